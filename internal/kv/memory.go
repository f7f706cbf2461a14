// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store used by tests and ephemeral runs.
type Memory struct {
	mu         sync.RWMutex
	data       map[string][]byte
	quotaBytes int64
}

// NewMemory returns an empty store. quotaBytes <= 0 disables the quota.
func NewMemory(quotaBytes int64) *Memory {
	return &Memory{data: make(map[string][]byte), quotaBytes: quotaBytes}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	return m.SetMany(ctx, Entry{Key: key, Value: value})
}

func (m *Memory) SetMany(_ context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quotaBytes > 0 {
		next := make(map[string]int64, len(entries))
		for _, e := range entries {
			next[e.Key] = usage(e.Key, e.Value)
		}
		var used, added int64
		for k, v := range m.data {
			if _, replaced := next[k]; !replaced {
				used += usage(k, v)
			}
		}
		for _, n := range next {
			added += n
		}
		if used+added > m.quotaBytes {
			return fmt.Errorf("writing %s (%d bytes used of %d): %w", describe(entries), used, m.quotaBytes, ErrQuotaExceeded)
		}
	}
	for _, e := range entries {
		m.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
