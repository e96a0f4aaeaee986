package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/capture/internal/errors"
)

// Preference keys.
const (
	KeySaveLocationURI     = "save_location_uri"
	KeySaveLocationDisplay = "save_location_display"
)

// DefaultLocationDisplay is shown when no save location has been chosen.
const DefaultLocationDisplay = "Not set, choose a folder"

// Prefs is the preference store backed by the prefs and tags tables.
type Prefs struct {
	db  *sql.DB
	now func() time.Time
}

// NewPrefs wraps an initialized database.
func NewPrefs(db *sql.DB) *Prefs {
	return &Prefs{db: db, now: time.Now}
}

// Get returns the value for key and whether it was set.
func (p *Prefs) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (p *Prefs) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, p.now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Location returns the saved location reference, or "" if none was chosen.
func (p *Prefs) Location(ctx context.Context) (string, error) {
	ref, _, err := p.Get(ctx, KeySaveLocationURI)
	return ref, err
}

// LocationDisplay returns the human-readable save location.
func (p *Prefs) LocationDisplay(ctx context.Context) (string, error) {
	display, ok, err := p.Get(ctx, KeySaveLocationDisplay)
	if err != nil {
		return "", err
	}
	if !ok || display == "" {
		return DefaultLocationDisplay, nil
	}
	return display, nil
}

// SetLocation stores the location reference and its display string together.
func (p *Prefs) SetLocation(ctx context.Context, ref, display string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	now := p.now().Unix()
	stmt := `
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, stmt, KeySaveLocationURI, ref, now); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.ExecContext(ctx, stmt, KeySaveLocationDisplay, display, now); err != nil {
		return errors.NewInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// AddTags merges tags into the tag history.
func (p *Prefs) AddTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	now := p.now().Unix()
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tags (tag, first_used, last_used, use_count) VALUES (?, ?, ?, 1)
			ON CONFLICT(tag) DO UPDATE SET last_used = excluded.last_used, use_count = use_count + 1
		`, tag, now, now)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// AllTags returns every tag ever used, sorted alphabetically.
func (p *Prefs) AllTags(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, errors.NewInternal(err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return tags, nil
}
