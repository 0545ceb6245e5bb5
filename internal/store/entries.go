// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store persists journaling entries and the working script draft.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/persistence/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Entry is one journaling session: the script spoken and how it was
// recorded.
type Entry struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Title     string        `json:"title,omitempty"`
	Script    string        `json:"script"`
	WPM       int           `json:"wpm"`
	Duration  time.Duration `json:"-"`
	// DurationMS mirrors Duration for JSON clients.
	DurationMS int64  `json:"duration_ms"`
	Recording  string `json:"recording,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	script      TEXT NOT NULL,
	wpm         INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	recording   TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS entries_created_at ON entries(created_at DESC);
`

// EntryStore keeps entries in SQLite.
type EntryStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenEntryStore opens (creating if needed) the database at path. An existing
// file is integrity checked first.
func OpenEntryStore(ctx context.Context, path string) (*EntryStore, error) {
	if _, err := os.Stat(path); err == nil {
		issues, err := sqlite.VerifyIntegrity(path, "quick")
		if err != nil {
			return nil, fmt.Errorf("verify entries db: %w", err)
		}
		if len(issues) > 0 {
			log.FromContext(ctx).Warn().Strs("issues", issues).Str(log.FieldPath, path).Msg("entries database failed quick check")
		}
	}
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate entries: %w", err)
	}
	return &EntryStore{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *EntryStore) Close() error { return s.db.Close() }

// Add stores e, assigning an id and timestamp when missing.
func (s *EntryStore) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Millisecond)
	if e.Duration == 0 && e.DurationMS > 0 {
		e.Duration = time.Duration(e.DurationMS) * time.Millisecond
	}
	e.DurationMS = e.Duration.Milliseconds()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, created_at, title, script, wpm, duration_ms, recording, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.Title, e.Script, e.WPM, e.DurationMS, e.Recording, e.Notes)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// Get returns the entry with id.
func (s *EntryStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, title, script, wpm, duration_ms, recording, notes FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return e, err
}

// List returns up to limit entries, newest first.
func (s *EntryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, title, script, wpm, duration_ms, recording, notes
		 FROM entries ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the entry with id.
func (s *EntryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	if err := sc.Scan(&e.ID, &created, &e.Title, &e.Script, &e.WPM, &e.DurationMS, &e.Recording, &e.Notes); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.Duration = time.Duration(e.DurationMS) * time.Millisecond
	return e, nil
}
