// Package registry stores named description documents in SQLite and
// rehydrates them as ready-to-use providers.
//
// Documents are validated on the way in: Put parses and normalizes the
// XML before storing, so a stored engine always rehydrates. The raw XML
// is kept verbatim as the source of truth; the short name and capability
// flags are denormalized for listing.
//
// Schema (created automatically by Open):
//
//	CREATE TABLE IF NOT EXISTS engines (
//	    name        TEXT PRIMARY KEY,
//	    short_name  TEXT NOT NULL DEFAULT '',
//	    raw_xml     TEXT NOT NULL,
//	    has_search  INTEGER NOT NULL DEFAULT 0,
//	    has_suggest INTEGER NOT NULL DEFAULT 0,
//	    created_at  INTEGER NOT NULL,  -- milliseconds since epoch
//	    updated_at  INTEGER NOT NULL   -- milliseconds since epoch
//	);
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/osdesc"
)

var (
	// ErrNotFound reports that no engine with the requested name exists.
	ErrNotFound = errors.New("registry: engine not found")

	// ErrInvalidName reports an engine name outside the allowed alphabet.
	ErrInvalidName = errors.New("registry: invalid engine name")
)

// Engine is stored metadata about one description document.
type Engine struct {
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	HasSearch  bool   `json:"has_search"`
	HasSuggest bool   `json:"has_suggest"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// Registry is the engine store handle. Safe for concurrent use.
type Registry struct {
	db     *sql.DB
	cfg    osdesc.Config
	logger *slog.Logger
}

// Open opens (or creates) the registry database at path. cfg configures
// the providers handed out by Get.
func Open(path string, cfg osdesc.Config) (*Registry, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{db: db, cfg: cfg, logger: logger}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error { return r.db.Close() }

// Put validates and stores a description document under name, replacing
// any previous document with that name. The document must parse; broken
// XML never reaches the table.
func (r *Registry) Put(ctx context.Context, name string, rawXML []byte) (*Engine, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p, err := osdesc.FromXML(rawXML, r.cfg)
	if err != nil {
		return nil, err
	}
	d := p.Description()

	now := time.Now().UnixMilli()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO engines (name, short_name, raw_xml, has_search, has_suggest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			short_name  = excluded.short_name,
			raw_xml     = excluded.raw_xml,
			has_search  = excluded.has_search,
			has_suggest = excluded.has_suggest,
			updated_at  = excluded.updated_at`,
		name, d.ShortName, string(rawXML),
		boolInt(p.FindURL(osdesc.TypeHTML) != nil),
		boolInt(p.FindURL(osdesc.TypeSuggestionsJSON) != nil),
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("store engine: %w", err)
	}
	r.logger.Debug("registry: stored engine", "name", name, "short_name", d.ShortName)
	return r.Info(ctx, name)
}

// Get rehydrates the named engine as a Provider.
func (r *Registry) Get(ctx context.Context, name string) (*osdesc.Provider, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT raw_xml FROM engines WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}
	return osdesc.FromXML([]byte(raw), r.cfg)
}

// Info returns stored metadata for one engine.
func (r *Registry) Info(ctx context.Context, name string) (*Engine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, short_name, has_search, has_suggest, created_at, updated_at
		FROM engines WHERE name = ?`, name)
	return scanEngine(row)
}

// List returns metadata for all stored engines, ordered by name.
func (r *Registry) List(ctx context.Context) ([]Engine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, short_name, has_search, has_suggest, created_at, updated_at
		FROM engines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var engines []Engine
	for rows.Next() {
		var e Engine
		var hasSearch, hasSuggest int
		if err := rows.Scan(&e.Name, &e.ShortName, &hasSearch, &hasSuggest, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan engine: %w", err)
		}
		e.HasSearch = hasSearch != 0
		e.HasSuggest = hasSuggest != 0
		engines = append(engines, e)
	}
	return engines, rows.Err()
}

// Delete removes the named engine.
func (r *Registry) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM engines WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Suggest runs a suggestion query against the named engine.
func (r *Registry) Suggest(ctx context.Context, name string, params osdesc.Values) (*osdesc.Suggestions, error) {
	p, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Suggest(ctx, params)
}

// SearchURL expands the named engine's results URL without dispatching it.
func (r *Registry) SearchURL(ctx context.Context, name string, params osdesc.Values) (string, error) {
	p, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return p.SearchURL(params)
}

func scanEngine(row *sql.Row) (*Engine, error) {
	var e Engine
	var hasSearch, hasSuggest int
	err := row.Scan(&e.Name, &e.ShortName, &hasSearch, &hasSuggest, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan engine: %w", err)
	}
	e.HasSearch = hasSearch != 0
	e.HasSuggest = hasSuggest != 0
	return &e, nil
}

// validateName enforces the engine-name rules: 1-256 characters drawn
// from letters, digits, underscore, hyphen and dot. Names appear in URL
// paths and SQL, so anything fancier is rejected.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256)", ErrInvalidName)
	}
	for _, r := range name {
		if !isNameChar(r) {
			return fmt.Errorf("%w: character %q", ErrInvalidName, r)
		}
	}
	return nil
}

func isNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
