package document

import "context"

// PrimaryStore is the authoritative low-latency key-value store holding the
// full field snapshot of every document. All operations are synchronous and
// block the caller.
type PrimaryStore interface {
	// Exists reports whether a record is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Read returns the stored snapshot for id. It returns [ErrNotFound]
	// when the id is absent.
	Read(ctx context.Context, id string) (map[string]any, error)

	// Upsert stores the full field snapshot under id, replacing any
	// previous record.
	Upsert(ctx context.Context, id string, snapshot map[string]any) error

	// Delete removes the record stored under id.
	Delete(ctx context.Context, id string) error

	// ScanKeys returns the stored keys matching a glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// ViewStore is the remote, eventually-consistent presentation store read by
// external consumers. Create, Update and Delete are dispatched for
// background execution: they do not block, their completion order relative
// to the issuing call is undefined, and their failures are handled (if at
// all) by the adapter's own policy. Entries are addressed as path/id.
type ViewStore interface {
	// Read returns the value stored at path.
	Read(ctx context.Context, path string) (any, error)

	// Create sets the value at path/id.
	Create(ctx context.Context, path, id string, value map[string]any)

	// Update merges value into the entry at path/id. Entries with nil
	// values are dropped before transmission; an update left empty after
	// dropping them is skipped entirely.
	Update(ctx context.Context, path, id string, value map[string]any)

	// Delete removes the entry at path/id.
	Delete(ctx context.Context, path, id string)
}

// Connections pairs the two store adapters a document kind writes through.
type Connections struct {
	Primary PrimaryStore
	View    ViewStore
}

func (c Connections) complete() bool {
	return c.Primary != nil && c.View != nil
}
