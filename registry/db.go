package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/osdesc"
)

const schema = `
CREATE TABLE IF NOT EXISTS engines (
	name        TEXT PRIMARY KEY,
	short_name  TEXT NOT NULL DEFAULT '',
	raw_xml     TEXT NOT NULL,
	has_search  INTEGER NOT NULL DEFAULT 0,
	has_suggest INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
`

// openDB opens the SQLite database at path with the production pragmas
// applied via EXEC and ensures the schema exists. Parent directories are
// created for file-backed paths.
func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("registry: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("registry: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory registry for testing. MaxOpenConns is
// pinned to 1 so every query hits the same in-memory database (each
// connection to ":memory:" creates a separate one), and the registry is
// closed automatically via t.Cleanup.
func OpenMemory(t testing.TB, cfg osdesc.Config) *Registry {
	t.Helper()
	r, err := Open(":memory:", cfg)
	if err != nil {
		t.Fatalf("registry.OpenMemory: %v", err)
	}
	r.db.SetMaxOpenConns(1)
	t.Cleanup(func() { r.Close() })
	return r
}
