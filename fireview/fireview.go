// Package fireview implements the view store over Firebase Realtime
// Database. Create, Update and Delete are dispatched through a bounded
// background queue and return immediately: completion order and success
// are not observed by the caller, matching the fire-and-forget contract of
// document.ViewStore.
package fireview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/jacentio/espalier/internal/dispatch"
)

// Config holds Firebase connection and dispatch parameters.
type Config struct {
	// DatabaseURL is the Realtime Database URL.
	DatabaseURL string

	// StorageBucket is the storage bucket identifier.
	StorageBucket string

	// CredentialsFile is the path to the service account credential.
	CredentialsFile string

	// Workers is the background dispatch worker count.
	// Default: 4
	Workers int

	// QueueDepth bounds the number of pending background writes. When the
	// queue is full, new writes are dropped and logged.
	// Default: 256
	QueueDepth int

	// Timeout bounds each background write.
	// Default: 10s
	Timeout time.Duration
}

func (c *Config) validate() {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.QueueDepth < 1 {
		c.QueueDepth = 256
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Store is a document.ViewStore backed by Firebase Realtime Database.
type Store struct {
	client  *db.Client
	queue   *dispatch.Queue
	timeout time.Duration
}

// New initializes the Firebase app from the credential file and returns a
// connected Store. A nil logger defaults to slog.Default().
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.validate()

	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL:   cfg.DatabaseURL,
		StorageBucket: cfg.StorageBucket,
	}, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database: %w", err)
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing database client.
func NewWithClient(client *db.Client, cfg Config, logger *slog.Logger) *Store {
	cfg.validate()
	return &Store{
		client:  client,
		queue:   dispatch.New(cfg.Workers, cfg.QueueDepth, logger),
		timeout: cfg.Timeout,
	}
}

// Read returns the value stored at path. Unlike the write operations, Read
// is synchronous and uses the caller's context.
func (s *Store) Read(ctx context.Context, path string) (any, error) {
	var value any
	if err := s.client.NewRef(path).Get(ctx, &value); err != nil {
		return nil, fmt.Errorf("firebase get %q: %w", path, err)
	}
	return value, nil
}

// Create sets the value at path/id in the background. The caller's context
// is not used: the write outlives the call that issued it.
func (s *Store) Create(_ context.Context, path, id string, value map[string]any) {
	ref := s.client.NewRef(join(path, id))
	s.enqueue("create "+ref.Path, func(ctx context.Context) error {
		return ref.Set(ctx, value)
	})
}

// Update merges value into the entry at path/id in the background. Entries
// with nil values are dropped before transmission; an update left empty
// after dropping them is skipped entirely. The caller's context is not
// used.
func (s *Store) Update(_ context.Context, path, id string, value map[string]any) {
	pruned := make(map[string]any, len(value))
	for key, item := range value {
		if item != nil {
			pruned[key] = item
		}
	}
	if len(pruned) == 0 {
		return
	}

	ref := s.client.NewRef(join(path, id))
	s.enqueue("update "+ref.Path, func(ctx context.Context) error {
		return ref.Update(ctx, pruned)
	})
}

// Delete removes the entry at path/id in the background. The caller's
// context is not used.
func (s *Store) Delete(_ context.Context, path, id string) {
	ref := s.client.NewRef(join(path, id))
	s.enqueue("delete "+ref.Path, func(ctx context.Context) error {
		return ref.Delete(ctx)
	})
}

// Close drains the dispatch queue and waits for in-flight writes.
func (s *Store) Close() {
	s.queue.Close()
}

func (s *Store) enqueue(name string, fn func(context.Context) error) {
	s.queue.Enqueue(name, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return fn(ctx)
	})
}

func join(path, id string) string {
	return strings.TrimSuffix(path, "/") + "/" + id
}
