// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// This is the default backend for single-instance deployments and for tests.
//
// Characteristics:
//   - Stores copies of *game.Session keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Idle sessions are removed by DeleteIdle, driven by the session reaper.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
)

var ErrNotFound = errors.New("store: session not found")

// Store defines the persistence interface for player sessions.
// Implementations: memory (this file), SQLite, Redis.
type Store interface {
	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Save persists or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteIdle removes sessions last active before cutoff and reports how many.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex             // guards sessions map
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

// Get returns a copy so callers can mutate freely until they Save.
func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return clone(s), nil
	}
	return nil, ErrNotFound
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// clone copies a session including its target.
func clone(s *game.Session) *game.Session {
	c := *s
	if s.Target != nil {
		t := *s.Target
		c.Target = &t
	}
	return &c
}
