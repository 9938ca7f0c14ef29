// Package redisstore implements the primary document store over Redis.
// Snapshots are stored as JSON strings under the document id, with
// datetimes encoded as tagged structures (see package internal/codec).
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jacentio/espalier/document"
)

// Config holds Redis connection parameters.
type Config struct {
	// Addr is the host:port of the Redis server.
	// Default: "localhost:6379"
	Addr string

	// DB is the database index to select.
	DB int

	// Password is the optional AUTH credential.
	Password string
}

func (c *Config) validate() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
}

// Store is a document.PrimaryStore backed by a single Redis database.
type Store struct {
	client *redis.Client
}

// New creates a Store with its own client from connection parameters.
func New(cfg Config) *Store {
	cfg.validate()
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})}
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Exists reports whether a record is stored under id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", id, err)
	}
	return n > 0, nil
}

// Read returns the decoded snapshot stored under id, or
// document.ErrNotFound when the id is absent.
func (s *Store) Read(ctx context.Context, id string) (map[string]any, error) {
	data, err := s.client.Get(ctx, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", document.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", id, err)
	}
	return Decode(data)
}

// Upsert stores the encoded snapshot under id with no expiry.
func (s *Store) Upsert(ctx context.Context, id string, snapshot map[string]any) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, id, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", id, err)
	}
	return nil
}

// Delete removes the record stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, id).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", id, err)
	}
	return nil
}

// ScanKeys returns the stored keys matching a Redis glob pattern.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %q: %w", pattern, err)
	}
	return keys, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
