//
// Date: 2025-12-20
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Redis backed store for sharing a token between processes.
//

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisStore keeps blobs as plain redis strings under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

// Save writes blob under key with no expiry.
func (r *RedisStore) Save(ctx context.Context, key string, blob []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key.
func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	blob, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return blob, nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
