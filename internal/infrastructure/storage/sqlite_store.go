package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

const signalsTable = "signals"

// SQLiteStore is the permanent deduplication ledger backed by an embedded
// sqlite database. Entries are created on first sight and never mutated.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.DedupStore = (*SQLiteStore)(nil)

// Open opens (creating directories as needed) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The ledger is low-traffic; a single connection sidesteps sqlite
	// write-lock contention between concurrent adapters.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteStore wires an opened database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Init creates the ledger schema if it does not exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS signals (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		link TEXT NOT NULL,
		author TEXT NOT NULL,
		category TEXT NOT NULL,
		published_at DATETIME NOT NULL,
		extra TEXT NOT NULL,
		stored_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_source ON signals(source);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Exists reports whether key is already recorded.
func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := sq.Select("1").
		From(signalsTable).
		Where(sq.Eq{"id": key}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Upsert persists record under key and reports whether the write created a
// new entry. A key collision is a no-op, never an overwrite.
func (s *SQLiteStore) Upsert(ctx context.Context, key string, record domain.Record) (bool, error) {
	extra, err := json.Marshal(record.Extra)
	if err != nil {
		return false, fmt.Errorf("marshal extra: %w", err)
	}

	query, args, err := sq.Insert(signalsTable).
		Columns("id", "source", "title", "body", "link", "author",
			"category", "published_at", "extra", "stored_at").
		Values(key, record.Source, record.Title, record.Body, record.Link,
			record.Author, string(record.Category), record.PublishedAt,
			string(extra), time.Now().UTC()).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build upsert query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert signal: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return inserted > 0, nil
}

// Count returns the number of ledger entries, used for startup logging.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(signalsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return count, nil
}
