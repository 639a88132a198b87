// Package redis implements repository.KeyValueStore on a Redis server, for
// deployments where the portal runs as more than one replica.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/ssc-portal/internal/repository"
)

var _ repository.KeyValueStore = (*Store)(nil)

// Store keeps every key under a shared prefix.
type Store struct {
	client *goredis.Client
	prefix string
}

// New connects to addr with short timeouts.
func New(addr, prefix string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return NewWithClient(client, prefix)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value without expiry; the session ends on logout, not on a TTL.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis: deleting %v: %w", keys, err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (s *Store) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
