// Package document keeps each logical entity consistent across two
// heterogeneous stores: a fast authoritative key-value store (the primary
// store) and a remote, eventually-consistent presentation store (the view
// store) read in real time by external consumers.
//
// Espalier is built around typed field declaration, per-field dirty
// tracking, existence-aware create/update semantics, a conditional
// dual-write policy, and derived pointer documents that act as denormalized
// view buckets kept consistent with a parent document's lifecycle.
//
// # Kinds and schemas
//
// A document kind is declared once with [Define] (or [Registry.Define]) and
// yields an immutable [Schema] shared by every instance:
//
//	widget, err := reg.Define(document.Definition{
//	    Name:      "widget",
//	    Container: "widgets",
//	    Fields: map[string]document.Field{
//	        "sku":   {Kind: document.KindString, ID: true},
//	        "price": {Kind: document.KindInt, Presentation: true},
//	        "notes": {Kind: document.KindString},
//	    },
//	})
//
// Exactly one field per kind carries the ID flag; its value, once
// resolved, is immutable for the life of an instance.
//
// # Saving
//
// [Document.Save] always upserts the full field snapshot into the primary
// store, and propagates the presentation payload to the view store only
// when the save is forced, when a changed field is presentational (or the
// kind declares no presentational fields and anything changed), or when
// the record did not previously exist. View-store writes are dispatched by
// the adapter in the background and are best-effort: the core's
// consistency guarantees cover the primary store only.
//
// # Pointer documents
//
// Pointer kinds, declared with [DefinePointer], are presentation-only
// projections stored under a composite identifier "{Kind}::{parentID}" and
// addressed in the view store by the parent id. [Route] keeps mutually
// exclusive pointer buckets consistent from a parent's lifecycle hooks.
//
// # Concurrency
//
// Schemas are read-only after definition and safe for concurrent use.
// Individual Document instances are not; concurrent saves for the same id
// from independent instances race on the existence check, and the last
// writer wins at the primary store. Callers needing stronger guarantees
// must serialize writes per id externally.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - fetch of a nonexistent id
//   - [ErrAlreadyExists] - unfetched save over an existing record
//   - [ErrUnknownField] - undeclared field name
//   - [ErrMissingIdentifier] - identifier field resolves to no value
//   - [ErrMissingRequired] - required fields absent at construction
//   - [ErrTypeMismatch] - field coercion failure (see [TypeMismatchError])
//   - [ErrNoConnection] - no store connections resolve
//   - [ErrDefinition] - invalid kind definition
package document
