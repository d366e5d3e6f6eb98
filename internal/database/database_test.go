package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(Memory)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("migrate pass %d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("_migrations rows = %d, want 1", n)
	}
	for _, table := range []string{"sessions", "results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateOrderAndFailure(t *testing.T) {
	db, err := Open(Memory)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"sql/002_b.sql": {Data: []byte(`INSERT INTO a(v) VALUES ('second');`)},
		"sql/001_a.sql": {Data: []byte(`CREATE TABLE a (v TEXT);`)},
		"sql/notes.txt": {Data: []byte(`ignored`)},
	}
	if err := migrate(db, fsys); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT v FROM a`).Scan(&v); err != nil || v != "second" {
		t.Fatalf("v = %q, err = %v", v, err)
	}

	bad := fstest.MapFS{"sql/003_bad.sql": {Data: []byte(`NOT SQL AT ALL;`)}}
	if err := migrate(db, bad); err == nil {
		t.Fatal("expected error for invalid migration")
	}
	var n int
	_ = db.QueryRow(`SELECT COUNT(*) FROM _migrations WHERE name='sql/003_bad.sql'`).Scan(&n)
	if n != 0 {
		t.Error("failed migration was recorded")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "capitals.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
