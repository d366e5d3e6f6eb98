package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/capitals/apps/go-server/internal/capitals"
	"github.com/robalobadob/capitals/apps/go-server/internal/database"
	"github.com/robalobadob/capitals/apps/go-server/internal/game"
)

func openSQLite(t *testing.T) Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestStores(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(*testing.T) Store { return NewMemoryStore() }},
		{"sqlite", openSQLite},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) { testRoundTrip(t, b.open(t)) })
			t.Run("not found", func(t *testing.T) { testNotFound(t, b.open(t)) })
			t.Run("delete idle", func(t *testing.T) { testDeleteIdle(t, b.open(t)) })
		})
	}
}

func testRoundTrip(t *testing.T, st Store) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	c := capitals.Capital{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522}
	in := &game.Session{
		ID: "s1", Round: 2, Score: 2, Tries: 1,
		Target:     &game.Target{Capital: c, ImageID: "img-1", Label: c.Label()},
		CreatedAt:  now.Add(-time.Minute),
		LastActive: now,
	}
	if err := st.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	in.Target.ImageID = "changed"

	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Round != 2 || got.Score != 2 || got.Tries != 1 {
		t.Errorf("counters = %+v", got)
	}
	if got.Target == nil || got.Target.ImageID != "img-1" || got.Target.Capital != c {
		t.Errorf("target = %+v", got.Target)
	}
	if !got.LastActive.Equal(now) {
		t.Errorf("last active = %v, want %v", got.LastActive, now)
	}

	got.Tries = 0
	got.Target = nil
	if err := st.Save(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := st.Get(ctx, "s1")
	if again.Target != nil || again.Tries != 0 {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := st.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func testNotFound(t *testing.T, st Store) {
	if _, err := st.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := st.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func testDeleteIdle(t *testing.T, st Store) {
	ctx := context.Background()
	now := time.Now()
	_ = st.Save(ctx, &game.Session{ID: "old", LastActive: now.Add(-time.Hour)})
	_ = st.Save(ctx, &game.Session{ID: "fresh", LastActive: now})

	n, err := st.DeleteIdle(ctx, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("delete idle: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := st.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old session still present: %v", err)
	}
	if _, err := st.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session removed: %v", err)
	}
}

func openMiniRedis(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStore(t *testing.T) {
	open := func(t *testing.T) Store {
		st, _ := openMiniRedis(t, 30*time.Minute)
		return st
	}
	t.Run("round trip", func(t *testing.T) { testRoundTrip(t, open(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, open(t)) })
}

func TestRedisStoreExpiresIdleSessions(t *testing.T) {
	idle := 30 * time.Minute
	st, mr := openMiniRedis(t, idle)
	ctx := context.Background()

	if err := st.Save(ctx, &game.Session{ID: "s1", Score: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := mr.TTL(redisKeyPrefix + "s1"); got != idle {
		t.Fatalf("ttl = %v, want %v", got, idle)
	}

	// Each save pushes the expiry back out.
	mr.FastForward(20 * time.Minute)
	if err := st.Save(ctx, &game.Session{ID: "s1", Score: 2}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if got := mr.TTL(redisKeyPrefix + "s1"); got != idle {
		t.Errorf("ttl after resave = %v, want %v", got, idle)
	}

	mr.FastForward(idle + time.Second)
	if _, err := st.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after idle timeout: %v, want ErrNotFound", err)
	}
	if n, err := st.DeleteIdle(ctx, time.Now()); n != 0 || err != nil {
		t.Errorf("delete idle = %d, %v; want 0, nil", n, err)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer rdb.Close()
	st := NewRedisStore(rdb, time.Minute)

	_, err := st.Get(context.Background(), "s1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("get err = %v, want a connection error", err)
	}
	if err := st.Save(context.Background(), &game.Session{ID: "s1"}); err == nil {
		t.Fatal("save: expected error")
	}
	if n, err := st.DeleteIdle(context.Background(), time.Now()); n != 0 || err != nil {
		t.Fatalf("delete idle = %d, %v; want 0, nil", n, err)
	}
}

func TestOpenRedisBadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
