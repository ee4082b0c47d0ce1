//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: File backed store, one file per key.
//

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileStore writes each blob to its own file inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path maps a key to a file name that cannot escape the directory.
func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

// Save writes blob to the key's file with owner-only permissions.
func (f *FileStore) Save(ctx context.Context, key string, blob []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	log.Debugf("[Store:File] Saved %s (%d bytes)", key, len(blob))
	return nil
}

// Load reads the key's file.
func (f *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return blob, nil
}

// Delete removes the key's file.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
