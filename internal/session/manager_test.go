package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager() (*Manager, store.Store, *clock) {
	st := store.NewMemoryStore()
	c := &clock{t: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	m := NewManager(st, 30*time.Minute)
	m.SetClock(c.now)
	return m, st, c
}

func TestLoadOrInitCreates(t *testing.T) {
	m, st, c := newTestManager()
	ctx := context.Background()

	s, err := m.LoadOrInit(ctx, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ID == "" || s.Round != 0 || s.Score != 0 || s.Tries != 0 || s.Target != nil {
		t.Fatalf("fresh session = %+v", s)
	}
	if !s.LastActive.Equal(c.t) {
		t.Errorf("last active = %v", s.LastActive)
	}
	if _, err := st.Get(ctx, s.ID); err != nil {
		t.Errorf("fresh session not persisted: %v", err)
	}
}

func TestLoadOrInitActive(t *testing.T) {
	m, st, c := newTestManager()
	ctx := context.Background()
	_ = st.Save(ctx, &game.Session{ID: "a", Round: 2, Score: 2, LastActive: c.t})

	c.t = c.t.Add(29 * time.Minute)
	s, err := m.LoadOrInit(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Round != 2 || s.Score != 2 {
		t.Errorf("session = %+v, want stored state", s)
	}
}

func TestLoadOrInitExpired(t *testing.T) {
	m, st, c := newTestManager()
	ctx := context.Background()
	tgt := &game.Target{ImageID: "img", Label: "Paris, France"}
	_ = st.Save(ctx, &game.Session{ID: "a", Round: 3, Score: 3, Tries: 2, Target: tgt, LastActive: c.t})

	c.t = c.t.Add(31 * time.Minute)
	s, err := m.LoadOrInit(ctx, "a")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if s == nil || s.ID != "a" || s.Round != 0 || s.Score != 0 || s.Tries != 0 || s.Target != nil {
		t.Fatalf("replacement = %+v, want zero session with same id", s)
	}

	stored, _ := st.Get(ctx, "a")
	if stored.Round != 0 || stored.Target != nil {
		t.Errorf("stale state still stored: %+v", stored)
	}

	// The replacement is active, so the next load succeeds.
	if _, err := m.LoadOrInit(ctx, "a"); err != nil {
		t.Errorf("second load: %v", err)
	}
}

type deleteCounter struct {
	store.Store
	deleted []string
	fail    error
}

func (d *deleteCounter) Delete(ctx context.Context, id string) error {
	if d.fail != nil {
		return d.fail
	}
	d.deleted = append(d.deleted, id)
	return d.Store.Delete(ctx, id)
}

func TestLoadOrInitDiscardsExpired(t *testing.T) {
	st := &deleteCounter{Store: store.NewMemoryStore()}
	c := &clock{t: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	m := NewManager(st, 30*time.Minute)
	m.SetClock(c.now)
	ctx := context.Background()
	_ = st.Save(ctx, &game.Session{ID: "a", Score: 3, LastActive: c.t})

	if _, err := m.LoadOrInit(ctx, "a"); err != nil || len(st.deleted) != 0 {
		t.Fatalf("active load: err=%v deleted=%v", err, st.deleted)
	}

	c.t = c.t.Add(31 * time.Minute)
	if _, err := m.LoadOrInit(ctx, "a"); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if len(st.deleted) != 1 || st.deleted[0] != "a" {
		t.Errorf("deleted = %v, want [a]", st.deleted)
	}

	// A store that cannot drop the stale record surfaces the failure.
	c.t = c.t.Add(31 * time.Minute)
	st.fail = errors.New("disk full")
	if _, err := m.LoadOrInit(ctx, "a"); err == nil || errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want delete failure", err)
	}
}

func TestLoadOrInitUnknownHandle(t *testing.T) {
	m, st, _ := newTestManager()
	ctx := context.Background()

	s, err := m.LoadOrInit(ctx, "reaped")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if s.ID != "reaped" {
		t.Errorf("id = %q", s.ID)
	}
	if _, err := st.Get(ctx, "reaped"); err != nil {
		t.Errorf("replacement not persisted: %v", err)
	}
}

func TestSaveTouches(t *testing.T) {
	m, st, c := newTestManager()
	ctx := context.Background()
	s, _ := m.LoadOrInit(ctx, "")

	c.t = c.t.Add(10 * time.Minute)
	s.Score = 1
	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := st.Get(ctx, s.ID)
	if got.Score != 1 || !got.LastActive.Equal(c.t) {
		t.Errorf("stored = %+v", got)
	}
	if m.IsExpired(got) {
		t.Error("just-saved session reported expired")
	}
}

func TestReset(t *testing.T) {
	m, _, _ := newTestManager()
	s := &game.Session{Round: 4, Score: 3, Tries: 1, Target: &game.Target{}, Recorded: true}
	m.Reset(s)
	if s.Round != 0 || s.Score != 0 || s.Tries != 0 || s.Target != nil || s.Recorded {
		t.Errorf("after reset: %+v", s)
	}
}

func TestReap(t *testing.T) {
	m, st, c := newTestManager()
	ctx := context.Background()
	_ = st.Save(ctx, &game.Session{ID: "old", LastActive: c.t.Add(-time.Hour)})
	_ = st.Save(ctx, &game.Session{ID: "new", LastActive: c.t})

	n, err := m.Reap(ctx)
	if err != nil || n != 1 {
		t.Fatalf("reap = %d, %v; want 1, nil", n, err)
	}
}

func TestRunReaperStops(t *testing.T) {
	m, _, _ := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunReaper(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("reaper returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
