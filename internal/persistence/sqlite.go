package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
)

// SQLiteSchema creates the ticket index table. It is applied on every open.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id         TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	username          TEXT NOT NULL DEFAULT '',
	issue_description TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'Open',
	severity          TEXT NOT NULL DEFAULT 'medium',
	category          TEXT NOT NULL DEFAULT 'other',
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_user_created
	ON tickets (user_id, created_at DESC, ticket_id DESC);
`

// SQLite wraps the embedded ticket index database.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database at cfg.Path with full
// synchronous commits and applies the schema.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path not provided")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_sync=FULL&_busy_timeout=5000&_journal=WAL", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("opened sqlite index", zap.String("path", cfg.Path))
	return &SQLite{DB: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
