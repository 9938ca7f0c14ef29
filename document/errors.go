package document

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when fetching a document whose id is absent
	// from the primary store.
	ErrNotFound = errors.New("espalier: document not found")

	// ErrAlreadyExists is returned when saving an unfetched document whose
	// id collides with an existing record.
	ErrAlreadyExists = errors.New("espalier: document already exists")

	// ErrUnknownField is returned when a field name is not declared by the
	// document's kind.
	ErrUnknownField = errors.New("espalier: unknown field")

	// ErrMissingIdentifier is returned when the identifier field resolves
	// to no value.
	ErrMissingIdentifier = errors.New("espalier: document has no identifier")

	// ErrMissingRequired is returned when a required field is absent after
	// construction.
	ErrMissingRequired = errors.New("espalier: missing required fields")

	// ErrNoConnection is returned when neither kind-level nor registry
	// default store connections are configured.
	ErrNoConnection = errors.New("espalier: no store connections configured")

	// ErrIdentifierImmutable is returned when mutating the identifier
	// field of a live document.
	ErrIdentifierImmutable = errors.New("espalier: identifier field is immutable")

	// ErrTypeMismatch is the sentinel wrapped by [TypeMismatchError].
	ErrTypeMismatch = errors.New("espalier: field type mismatch")

	// ErrDefinition is returned by [Define] for an invalid kind definition.
	ErrDefinition = errors.New("espalier: invalid kind definition")
)

// TypeMismatchError reports a value that could not be coerced to a field's
// declared kind. It unwraps to [ErrTypeMismatch].
type TypeMismatchError struct {
	// Field is the name of the field being assigned.
	Field string

	// Value is the offending input.
	Value any

	// Want is the field's declared kind.
	Want Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("espalier: field %q: wrong type %T, should be %s", e.Field, e.Value, e.Want)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
