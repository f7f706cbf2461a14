// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores keys in a single table of a SQLite database.
type SQLite struct {
	db         *sql.DB
	quotaBytes int64
}

// OpenSQLite opens or creates the database at path and creates the schema
// if it does not exist. quotaBytes <= 0 disables the quota.
func OpenSQLite(path string, quotaBytes int64) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps quota checks and writes strictly ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, quotaBytes: quotaBytes}, nil
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key, enforcing the quota inside the transaction.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, Entry{Key: key, Value: value})
}

// SetMany upserts every entry in one transaction. The quota counts the
// new values in place of the ones they replace.
func (s *SQLite) SetMany(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if s.quotaBytes > 0 {
		latest := make(map[string]int64, len(entries))
		args := make([]any, 0, len(entries))
		for _, e := range entries {
			if _, dup := latest[e.Key]; !dup {
				args = append(args, e.Key)
			}
			latest[e.Key] = usage(e.Key, e.Value)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

		var used, added int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv WHERE key NOT IN (`+placeholders+`)`, args...,
		).Scan(&used); err != nil {
			return fmt.Errorf("computing usage: %w", err)
		}
		for _, n := range latest {
			added += n
		}
		if used+added > s.quotaBytes {
			return fmt.Errorf("writing %s (%d bytes used of %d): %w", describe(entries), used, s.quotaBytes, ErrQuotaExceeded)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
			e.Key, e.Value, now,
		)
		if err != nil {
			return fmt.Errorf("writing key %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

// Delete removes keys; absent keys are ignored.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting key %s: %w", key, err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
