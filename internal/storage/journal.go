/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "sketchpad/internal/log"
	"sketchpad/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the journal schema. Bump it and add a step to runMigrations
// when the table layout changes.
const schemaVersion = 1

// tsLayout is fixed width so created_at sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by operations on a closed Journal.
var ErrClosed = errors.New("journal closed")

// Entry is one recorded export.
type Entry struct {
	ID        string
	Path      string
	Width     int
	Height    int
	Strokes   int
	CreatedAt time.Time
	Thumb     []byte // PNG, may be nil
}

// Journal is a small SQLite database remembering exported images.
// It never stores drawings; only metadata and a thumbnail of each written file.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready")
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file location.
func (j *Journal) Path() string { return j.path }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exports (
			id          TEXT PRIMARY KEY,
			path        TEXT    NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			strokes     INTEGER NOT NULL,
			created_at  TEXT    NOT NULL,
			thumb_blob  BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		applog.WithComponent("storage").Warn("journal schema is newer than this build", slog.Int("schema", cur))
		return nil
	}
	// Version 1 is the initial layout; future steps go here.
	return nil
}

func (j *Journal) conn() (*sql.DB, error) {
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}
	return j.db, nil
}

// Record stores e, assigning an ID and timestamp when they are unset.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	db, err := j.conn()
	if err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	_, err = db.ExecContext(ctx, `INSERT INTO exports(id,path,width,height,strokes,created_at,thumb_blob) VALUES(?,?,?,?,?,?,?)`,
		e.ID, e.Path, e.Width, e.Height, e.Strokes, e.CreatedAt.Format(tsLayout), e.Thumb)
	if err != nil {
		return Entry{}, fmt.Errorf("insert export: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	db, err := j.conn()
	if err != nil {
		return nil, err
	}
	q := `SELECT id,path,width,height,strokes,created_at,thumb_blob FROM exports ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if n > 0 {
		q += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one entry by ID. ok is false when no such entry exists.
func (j *Journal) Get(ctx context.Context, id string) (Entry, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	db, err := j.conn()
	if err != nil {
		return Entry{}, false, err
	}
	row := db.QueryRowContext(ctx, `SELECT id,path,width,height,strokes,created_at,thumb_blob FROM exports WHERE id=?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Prune keeps the newest keep entries and deletes the rest, returning the number removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	db, err := j.conn()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	res, err := db.ExecContext(ctx, `DELETE FROM exports WHERE rowid NOT IN (
		SELECT rowid FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune exports: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var created string
	if err := s.Scan(&e.ID, &e.Path, &e.Width, &e.Height, &e.Strokes, &created, &e.Thumb); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan export: %w", err)
	}
	t, err := time.Parse(tsLayout, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}
