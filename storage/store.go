//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Key-value persistence used for tokens and profiles.
//

package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no blob exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store persists opaque blobs under string keys.
type Store interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Save stores a copy of blob under key.
func (m *MemoryStore) Save(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Load returns a copy of the blob stored under key.
func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}
