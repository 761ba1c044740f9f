package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hoangv97/memorychat/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at TEXT,
		chunks INTEGER NOT NULL DEFAULT 0,
		ingested_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_ingested_at ON exchanges(ingested_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// SaveExchange inserts an exchange and stamps IngestedAt.
func (s *SQLiteStorage) SaveExchange(ctx context.Context, ex *models.Exchange) error {
	ex.IngestedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, source_url, content, created_at, chunks, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.SourceURL, ex.Content, ex.CreatedAt, ex.Chunks, ex.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// GetExchange returns an exchange by ID, or an error wrapping models.ErrNotFound.
func (s *SQLiteStorage) GetExchange(ctx context.Context, id string) (*models.Exchange, error) {
	var ex models.Exchange
	var createdAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, content, created_at, chunks, ingested_at
		 FROM exchanges WHERE id = ?`, id,
	).Scan(&ex.ID, &ex.SourceURL, &ex.Content, &createdAt, &ex.Chunks, &ex.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exchange %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	ex.CreatedAt = createdAt.String
	return &ex, nil
}

// SetChunkCount records how many chunks were indexed for the exchange.
func (s *SQLiteStorage) SetChunkCount(ctx context.Context, id string, chunks int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE exchanges SET chunks = ? WHERE id = ?`, chunks, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("exchange %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteExchange removes an exchange by ID. Deleting an unknown ID is not an error.
func (s *SQLiteStorage) DeleteExchange(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE id = ?`, id)
	return err
}

// ListExchanges returns exchanges, newest first, with offset and limit.
func (s *SQLiteStorage) ListExchanges(ctx context.Context, offset, limit int) ([]*models.Exchange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_url, content, created_at, chunks, ingested_at
		 FROM exchanges ORDER BY ingested_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Exchange
	for rows.Next() {
		var ex models.Exchange
		var createdAt sql.NullString
		if err := rows.Scan(&ex.ID, &ex.SourceURL, &ex.Content, &createdAt, &ex.Chunks, &ex.IngestedAt); err != nil {
			return nil, err
		}
		ex.CreatedAt = createdAt.String
		out = append(out, &ex)
	}
	return out, rows.Err()
}

// CountExchanges returns the number of stored exchanges.
func (s *SQLiteStorage) CountExchanges(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
