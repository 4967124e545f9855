// Package db persists the audit log: every reportable dispatch failure is
// appended here with its context so incidents survive a restart.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	remote_addr TEXT NOT NULL,
	plugin TEXT NOT NULL,
	message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
`

// AuditEntry is one audit-log record.
type AuditEntry struct {
	ID         int64
	CreatedAt  time.Time
	RemoteAddr string
	Plugin     string
	Message    string
}

// Store wraps the database connection.
type Store struct {
	*sql.DB
}

// NewStore creates a new database connection and ensures the schema.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite doesn't handle concurrent writes well
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{DB: sqlDB}, nil
}

// Append writes one audit entry.
func (s *Store) Append(ctx context.Context, entry AuditEntry) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO audit_log (remote_addr, plugin, message) VALUES (?, ?, ?)`,
		entry.RemoteAddr, entry.Plugin, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the n most recent audit entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]AuditEntry, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, created_at, remote_addr, plugin, message
		 FROM audit_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.RemoteAddr, &e.Plugin, &e.Message); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Purge deletes audit entries older than before.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return res.RowsAffected()
}
