//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: BoltDB backed store. This is the default store for the CLI.
//

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const boltBucket = "spotify"

// BoltStore keeps blobs in a single bucket of a bbolt database.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create store bucket: %w", err)
	}

	log.Infof("[Store:Bolt] Opened %s", path)
	return &BoltStore{db: db, path: path}, nil
}

// Save writes blob under key.
func (b *BoltStore) Save(ctx context.Context, key string, blob []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key.
func (b *BoltStore) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// bolt memory is only valid inside the transaction
		blob = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Delete removes key.
func (b *BoltStore) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
