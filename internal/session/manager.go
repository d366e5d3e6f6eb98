// apps/go-server/internal/session/manager.go
//
// Session state manager: loads, creates, expires and persists player sessions.
// Responsibilities:
//   - Resolve a client handle (session ID) to a *game.Session, creating one when absent.
//   - Detect idle sessions (no activity for longer than the idle timeout).
//   - Touch and persist sessions after every mutation.
//   - Periodically delete idle sessions from the backing store.
//
// An expired session is never handed back as if nothing happened: the stale state is
// discarded, a fresh zero session is persisted under the same ID, and ErrExpired is
// returned alongside it so the caller can tell the player.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/store"
)

// DefaultIdleTimeout is how long a session may go without a request.
const DefaultIdleTimeout = 30 * time.Minute

// ErrExpired means the handle referred to a session that is no longer available.
var ErrExpired = errors.New("session: expired")

// Manager wraps a store.Store with expiry rules.
type Manager struct {
	store store.Store
	idle  time.Duration
	now   func() time.Time
}

// NewManager returns a manager with the given idle timeout (<= 0 uses the default).
func NewManager(st store.Store, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Manager{store: st, idle: idle, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// LoadOrInit returns the session for id.
//
//   - id == "": a new session with a new ID is created and persisted.
//   - known and active: the stored session is returned.
//   - expired, or unknown to the store: a fresh session is persisted under id and
//     returned together with ErrExpired. Handles are only ever issued by this
//     server, so an unknown ID means its state was reaped or lost.
func (m *Manager) LoadOrInit(ctx context.Context, id string) (*game.Session, error) {
	if id == "" {
		s := m.fresh(NewID())
		if err := m.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("save new session: %w", err)
		}
		return s, nil
	}

	s, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	case !m.IsExpired(s):
		return s, nil
	default:
		if err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("discard expired session: %w", err)
		}
	}

	fresh := m.fresh(id)
	if err := m.store.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("replace expired session: %w", err)
	}
	log.Debug().Str("session", id).Msg("session expired")
	return fresh, ErrExpired
}

func (m *Manager) fresh(id string) *game.Session {
	now := m.now()
	return &game.Session{ID: id, CreatedAt: now, LastActive: now}
}

// IsExpired reports whether s has been idle longer than the timeout.
func (m *Manager) IsExpired(s *game.Session) bool {
	return m.now().Sub(s.LastActive) > m.idle
}

// Touch records activity on s.
func (m *Manager) Touch(s *game.Session) { s.LastActive = m.now() }

// Reset starts a new game on s without persisting it.
func (m *Manager) Reset(s *game.Session) { s.Reset() }

// Save touches and persists s.
func (m *Manager) Save(ctx context.Context, s *game.Session) error {
	m.Touch(s)
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Reap deletes sessions idle for longer than the timeout.
func (m *Manager) Reap(ctx context.Context) (int, error) {
	return m.store.DeleteIdle(ctx, m.now().Add(-m.idle))
}

// RunReaper calls Reap every interval until ctx is done. It always returns nil.
func (m *Manager) RunReaper(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = m.idle / 2
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := m.Reap(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session reaper failed")
				continue
			}
			if n > 0 {
				log.Info().Int("deleted", n).Msg("reaped idle sessions")
			}
		}
	}
}
