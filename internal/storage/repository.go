package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igreja/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

// SQLiteRepository is the SQLite-backed record store.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations. Foreign keys are enabled on every connection so
// member deletes cascade to ledger entries.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewSQLiteRepositoryFromDB(db), nil
}

// NewSQLiteRepositoryFromDB wraps an already opened database.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func dataSourceName(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().Format(timestampLayout)
}

// nullDate stores the zero Date as NULL.
func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid {
		return core.Date{}, nil
	}
	return core.ParseDate(ns.String)
}

func nullBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
