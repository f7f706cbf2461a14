// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kv provides the key-value persistence backends behind the
// library store: SQLite (default), Redis, and an in-memory map.
// Values are opaque byte slices; callers encode JSON.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-library/pkg/types"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("kv: key not found")

	// ErrQuotaExceeded is returned by Set when the write would push the
	// store past its byte quota. Nothing is written.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")
)

// DefaultQuotaBytes mirrors the browser extension storage quota (5 MiB).
const DefaultQuotaBytes int64 = 5 << 20

// Entry is one key and its value in a SetMany call.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a flat key-value namespace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes every entry or none of them.
	SetMany(ctx context.Context, entries ...Entry) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open constructs the backend selected by cfg.
func Open(cfg types.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case types.StorageSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "paper-library.db"
		}
		return OpenSQLite(path, cfg.QuotaBytes)
	case types.StorageRedis:
		return NewRedis(cfg)
	case types.StorageMemory:
		return NewMemory(cfg.QuotaBytes), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q: use sqlite, redis, or memory", cfg.Backend)
	}
}

func usage(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

// describe names the keys of a write for error messages.
func describe(entries []Entry) string {
	if len(entries) == 1 {
		return "key " + entries[0].Key
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return "keys " + strings.Join(keys, ", ")
}
