package document

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Options configures document construction.
type Options struct {
	// IgnoreUnknown drops unknown field names in the supplied values
	// instead of failing.
	IgnoreUnknown bool

	// TreatAsFetched marks the fresh instance as fetched, allowing its
	// first save to overwrite an existing record.
	TreatAsFetched bool
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Force writes both stores even when no field changed.
	Force bool
}

// Document is a live, mutable instance of a document kind bound to a
// primary-store and a view-store connection. Instances are not safe for
// concurrent mutation; callers requiring stronger guarantees must
// serialize writes per id externally.
type Document struct {
	schema  *Schema
	conns   Connections
	id      string
	viewID  string
	fields  map[string]*Field
	changed map[string]struct{}
	fetched bool
	path    string
}

// New constructs a fresh, unfetched instance of the kind from the supplied
// field values. The changed set afterwards equals the supplied field names.
// It fails with [ErrUnknownField] for undeclared names (unless ignored),
// [ErrMissingIdentifier] when the identifier field resolves to no value,
// [ErrMissingRequired] naming any absent required fields, and
// [ErrNoConnection] when no store connections resolve.
func (s *Schema) New(values map[string]any, opts Options) (*Document, error) {
	conns, err := s.resolveConnections()
	if err != nil {
		return nil, err
	}

	d := &Document{
		schema:  s,
		conns:   conns,
		fields:  s.newFields(),
		changed: make(map[string]struct{}, len(values)),
		path:    s.container,
	}

	for name, value := range values {
		field, ok := d.fields[name]
		if !ok {
			if opts.IgnoreUnknown || s.ignoreUnknown {
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if err := field.Set(name, value); err != nil {
			return nil, err
		}
		d.changed[name] = struct{}{}
	}

	id, err := s.identifierValue(d.fields)
	if err != nil {
		return nil, err
	}
	d.id = id

	if missing := d.missingRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	d.fetched = opts.TreatAsFetched

	if s.pointer {
		d.viewID = d.id
		d.id = s.name + "::" + d.viewID
	}

	return d, nil
}

// Get fetches the record stored under id and returns a hydrated, fetched
// instance with an empty changed set. It fails with [ErrMissingIdentifier]
// for an empty id, [ErrNotFound] when no record exists, and
// [ErrUnknownField] for stored keys the kind does not declare (unless the
// kind ignores unknowns).
func (s *Schema) Get(ctx context.Context, id string) (*Document, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}

	conns, err := s.resolveConnections()
	if err != nil {
		return nil, err
	}

	exists, err := conns.Primary.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	record, err := conns.Primary.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", id, err)
	}

	d := &Document{
		schema:  s,
		conns:   conns,
		id:      id,
		fields:  s.newFields(),
		changed: make(map[string]struct{}),
		fetched: true,
		path:    s.container,
	}
	if s.pointer {
		d.viewID = strings.TrimPrefix(id, s.name+"::")
	}

	for key, value := range record {
		field, ok := d.fields[key]
		if !ok {
			if s.ignoreUnknown {
				continue
			}
			return nil, fmt.Errorf("%w: stored key %q", ErrUnknownField, key)
		}
		if err := field.Set(key, value); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// ID returns the identifier the document is stored under in the primary
// store. For pointer kinds this is the composite "{Kind}::{parentID}".
func (d *Document) ID() string { return d.id }

// ViewID returns the id the document is addressed by in the view store.
// For non-pointer kinds it equals ID.
func (d *Document) ViewID() string {
	if d.schema.pointer {
		return d.viewID
	}
	return d.id
}

// Path returns the kind's view-store container path.
func (d *Document) Path() string { return d.path }

// Fetched reports whether the instance has observed the stored record.
func (d *Document) Fetched() bool { return d.fetched }

// Changed returns the sorted names of fields mutated since the last save.
func (d *Document) Changed() []string {
	return sortedNames(d.changed)
}

// Set assigns a value to the named field through the typed field contract,
// recording the name as changed only when the coerced value differs from
// the current one. It fails with [ErrUnknownField] for undeclared names.
func (d *Document) Set(name string, value any) error {
	field, ok := d.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if name == d.schema.identifier {
		return fmt.Errorf("%w: %q", ErrIdentifierImmutable, name)
	}

	previous := field.Get()
	if err := field.Set(name, value); err != nil {
		return err
	}
	if !valuesEqual(previous, field.Get()) {
		d.changed[name] = struct{}{}
	}
	return nil
}

// Value returns the named field's current value (or its default, or nil
// when absent). It fails with [ErrUnknownField] for undeclared names.
func (d *Document) Value(name string) (any, error) {
	field, ok := d.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return field.Get(), nil
}

// Edit runs fn against the document and then saves exactly once, on every
// exit path: fn returning an error does not suppress the save, and a panic
// inside fn still flushes pending mutations before unwinding. The save
// error is reported only when fn itself returned nil.
func (d *Document) Edit(ctx context.Context, fn func(*Document) error) (err error) {
	defer func() {
		saveErr := d.Save(ctx, SaveOptions{})
		if err == nil {
			err = saveErr
		}
	}()
	return fn(d)
}

// Save flushes the document according to the conditional-write policy:
// the primary store always receives the full snapshot, while the view store
// receives the presentation payload only when the save is forced, when a
// changed field is presentational (or the kind declares no presentational
// fields and anything changed), or when the record did not previously
// exist. Saving an unchanged, existing record is a no-op unless forced.
// Saving an unfetched instance over an existing record fails with
// [ErrAlreadyExists].
func (d *Document) Save(ctx context.Context, opts SaveOptions) error {
	if d.schema.pointer {
		return d.savePointer(ctx, opts)
	}

	// 1. Existence drives both the no-op check and the propagation policy.
	exists, err := d.conns.Primary.Exists(ctx, d.id)
	if err != nil {
		return fmt.Errorf("check %q: %w", d.id, err)
	}

	// 2. Clean and already stored: nothing to do.
	if exists && !opts.Force && len(d.changed) == 0 {
		return nil
	}

	// 3. Refuse to clobber a record this instance never read.
	if !d.fetched && exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, d.id)
	}

	// 4. Snapshot values and change-sets before any store is touched.
	view := newView(d)
	payload := d.schema.presentationPayload(view)

	// 5. The primary store always gets the full snapshot.
	if err := d.conns.Primary.Upsert(ctx, d.id, view.Values()); err != nil {
		return fmt.Errorf("upsert %q: %w", d.id, err)
	}

	// 6. The view store only gets touched when the policy says so.
	if d.shouldPropagate(opts.Force, exists) {
		d.conns.View.Update(ctx, d.path, d.id, payload)
	}

	// 7. Hooks see the snapshot, never the live document.
	if d.schema.onSave != nil {
		if err := d.schema.onSave(ctx, view); err != nil {
			return fmt.Errorf("on-save hook for %q: %w", d.id, err)
		}
	}

	d.changed = make(map[string]struct{})
	d.fetched = true
	return nil
}

// shouldPropagate implements the inclusive-OR conditional-write policy for
// the view store.
func (d *Document) shouldPropagate(force, exists bool) bool {
	if force || !exists {
		return true
	}
	if len(d.schema.presentation) > 0 {
		for name := range d.changed {
			if _, ok := d.schema.presentation[name]; ok {
				return true
			}
		}
		return false
	}
	return len(d.changed) > 0
}

// savePointer writes only the view store: the presentation payload goes to
// the container path keyed by the view id. Clean pointers are a no-op
// unless forced.
func (d *Document) savePointer(ctx context.Context, opts SaveOptions) error {
	if !opts.Force && len(d.changed) == 0 {
		return nil
	}

	view := newView(d)
	d.conns.View.Update(ctx, d.path, d.viewID, d.schema.transform(view))

	d.changed = make(map[string]struct{})
	return nil
}

// Delete removes the record from the primary store and the view store and
// invokes the kind's on-delete hook with a View built from the
// pre-deletion field values. Deleting a nonexistent id is a silent no-op.
// The instance should not be reused after a successful delete.
func (d *Document) Delete(ctx context.Context) error {
	if d.schema.pointer {
		d.conns.View.Delete(ctx, d.path, d.viewID)
		return nil
	}

	exists, err := d.conns.Primary.Exists(ctx, d.id)
	if err != nil {
		return fmt.Errorf("check %q: %w", d.id, err)
	}
	if !exists {
		return nil
	}

	view := newView(d)

	if err := d.conns.Primary.Delete(ctx, d.id); err != nil {
		return fmt.Errorf("delete %q: %w", d.id, err)
	}
	d.conns.View.Delete(ctx, d.path, d.id)

	if d.schema.onDelete != nil {
		if err := d.schema.onDelete(ctx, view); err != nil {
			return fmt.Errorf("on-delete hook for %q: %w", d.id, err)
		}
	}
	return nil
}

// missingRequired returns the sorted required field names that resolve to
// no value. Declared defaults satisfy requiredness.
func (d *Document) missingRequired() []string {
	missing := make(map[string]struct{})
	for name := range d.schema.required {
		if d.fields[name].Get() == nil {
			missing[name] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return sortedNames(missing)
}

// identifierValue resolves the identifier field to the store key string.
func (s *Schema) identifierValue(fields map[string]*Field) (string, error) {
	value := fields[s.identifier].Get()
	if value == nil {
		return "", ErrMissingIdentifier
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	}
	return fmt.Sprint(value), nil
}

// valuesEqual compares two coerced field values. Times compare by instant
// so wall-clock equal values with different monotonic readings do not mark
// a field dirty.
func valuesEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}
