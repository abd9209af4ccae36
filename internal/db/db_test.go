package db

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLiteAppliesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	database, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"users", "sessions", "post_groups", "posts", "password_resets"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	var fk int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign keys disabled")
	}
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		database, err := Open(DriverSQLite, path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		database.Close()
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"forum.db":                   "forum.db?_foreign_keys=on",
		"file:forum.db?cache=shared": "file:forum.db?cache=shared&_foreign_keys=on",
		"forum.db?_foreign_keys=off": "forum.db?_foreign_keys=off",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}
