package document

import (
	"context"
	"fmt"
)

// Route maintains mutually exclusive pointer buckets for a parent
// document. It constructs every candidate pointer kind from the parent's
// View, saves the active one with force, and deletes the rest, so a parent
// never settles in two exclusive buckets at once. Active may be nil to
// clear every bucket. Route is intended to be called from a parent kind's
// on-save or on-delete hook:
//
//	OnSave: func(ctx context.Context, v document.View) error {
//	    if v.BoolValue("confirmed") {
//	        return document.Route(ctx, v, confirmedPointer, ongoingPointer)
//	    }
//	    return document.Route(ctx, v, ongoingPointer, confirmedPointer)
//	},
func Route(ctx context.Context, v View, active *Schema, inactive ...*Schema) error {
	if active != nil {
		doc, err := newPointer(active, v)
		if err != nil {
			return err
		}
		if err := doc.Save(ctx, SaveOptions{Force: true}); err != nil {
			return err
		}
	}
	for _, schema := range inactive {
		doc, err := newPointer(schema, v)
		if err != nil {
			return err
		}
		if err := doc.Delete(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newPointer(s *Schema, v View) (*Document, error) {
	if !s.pointer {
		return nil, fmt.Errorf("%w: kind %q is not a pointer kind", ErrDefinition, s.name)
	}
	return s.New(v.Values(), Options{IgnoreUnknown: true})
}
