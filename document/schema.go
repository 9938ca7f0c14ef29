package document

import (
	"context"
	"fmt"
)

// Transform maps a document [View] to the payload written to the view
// store. Transforms must not retain or mutate the View.
type Transform func(View) map[string]any

// Hook is invoked with the immutable [View] computed at save or delete
// time. Hooks must not mutate the originating document.
type Hook func(context.Context, View) error

// Definition declares a document kind. It is consumed once by [Define] (or
// [Registry.Define]); the resulting [Schema] is immutable and shared by all
// instances of the kind.
type Definition struct {
	// Name is the kind name, e.g. "incident". Pointer kinds embed it in
	// their composite identifier.
	Name string

	// Container roots the kind's location in the view store,
	// e.g. "incidents".
	Container string

	// PresentationOnly marks every declared field as presentational,
	// regardless of per-field Presentation flags.
	PresentationOnly bool

	// IgnoreUnknown drops unknown stored keys during fetch hydration
	// instead of failing.
	IgnoreUnknown bool

	// Fields maps field names to their declaration templates.
	Fields map[string]Field

	// Presentation computes the view-store payload from a View. When nil,
	// the View is filtered to the presentational field set (or used
	// verbatim when that set is empty). Pointer kinds must set it.
	Presentation Transform

	// OnSave is invoked after every save with the saved View.
	OnSave Hook

	// OnDelete is invoked after a delete with the pre-deletion View.
	OnDelete Hook

	// Connections overrides the registry default connection pair for this
	// kind.
	Connections *Connections
}

// Schema is the immutable per-kind state computed once at definition time.
// It is safe for unsynchronized concurrent reads.
type Schema struct {
	name             string
	container        string
	identifier       string
	fields           map[string]Field
	presentation     map[string]struct{}
	required         map[string]struct{}
	presentationOnly bool
	ignoreUnknown    bool
	pointer          bool
	transform        Transform
	onSave           Hook
	onDelete         Hook
	conns            *Connections
	registry         *Registry
}

// Define builds the schema for a document kind. It fails with
// [ErrDefinition] when the kind declares no name, no container path, or
// anything other than exactly one identifier field, or when a field default
// cannot be coerced to its declared kind.
func Define(def Definition) (*Schema, error) {
	return define(def, nil, false)
}

// DefinePointer builds the schema for a pointer document kind: a
// presentation-only projection whose primary identifier is synthesized as
// "{Name}::{parentID}" and whose view id equals the parent id. A pointer
// definition without a Presentation transform fails with [ErrDefinition].
func DefinePointer(def Definition) (*Schema, error) {
	return define(def, nil, true)
}

func define(def Definition, registry *Registry, pointer bool) (*Schema, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: kind has no name", ErrDefinition)
	}
	if def.Container == "" {
		return nil, fmt.Errorf("%w: kind %q has no container path", ErrDefinition, def.Name)
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%w: kind %q declares no fields", ErrDefinition, def.Name)
	}
	if pointer && def.Presentation == nil {
		return nil, fmt.Errorf("%w: pointer kind %q requires a presentation transform", ErrDefinition, def.Name)
	}

	s := &Schema{
		name:             def.Name,
		container:        def.Container,
		fields:           make(map[string]Field, len(def.Fields)),
		presentation:     make(map[string]struct{}),
		required:         make(map[string]struct{}),
		presentationOnly: def.PresentationOnly || pointer,
		ignoreUnknown:    def.IgnoreUnknown,
		pointer:          pointer,
		transform:        def.Presentation,
		onSave:           def.OnSave,
		onDelete:         def.OnDelete,
		conns:            def.Connections,
		registry:         registry,
	}

	for name, field := range def.Fields {
		if field.Default != nil {
			coerced, ok := coerce(field.Kind, field.Default)
			if !ok {
				return nil, fmt.Errorf("%w: kind %q: default for field %q is not a %s",
					ErrDefinition, def.Name, name, field.Kind)
			}
			field.Default = coerced
		}
		field.value = nil
		field.set = false
		s.fields[name] = field

		if field.ID {
			if s.identifier != "" {
				return nil, fmt.Errorf("%w: kind %q declares more than one identifier field (%q, %q)",
					ErrDefinition, def.Name, s.identifier, name)
			}
			s.identifier = name
		}
		if field.Presentation || s.presentationOnly {
			s.presentation[name] = struct{}{}
		}
		if field.Required {
			s.required[name] = struct{}{}
		}
	}

	if s.identifier == "" {
		return nil, fmt.Errorf("%w: kind %q declares no identifier field", ErrDefinition, def.Name)
	}

	return s, nil
}

// Name returns the kind name.
func (s *Schema) Name() string { return s.name }

// Container returns the kind's view-store container path.
func (s *Schema) Container() string { return s.container }

// IdentifierField returns the name of the kind's identifier field.
func (s *Schema) IdentifierField() string { return s.identifier }

// Pointer reports whether the kind is a pointer document kind.
func (s *Schema) Pointer() bool { return s.pointer }

// newFields copies the schema's field templates into an independently
// owned instance map.
func (s *Schema) newFields() map[string]*Field {
	fields := make(map[string]*Field, len(s.fields))
	for name, template := range s.fields {
		f := template
		fields[name] = &f
	}
	return fields
}

// resolveConnections returns the kind-level connections if declared, else
// the registry default pair, else [ErrNoConnection].
func (s *Schema) resolveConnections() (Connections, error) {
	if s.conns != nil && s.conns.complete() {
		return *s.conns, nil
	}
	if s.registry != nil {
		if conns, ok := s.registry.Connections(); ok {
			return conns, nil
		}
	}
	return Connections{}, ErrNoConnection
}

// presentationPayload applies the kind's presentation transform, falling
// back to filtering the view by the presentational field set. With no
// presentational fields declared, the full view is used verbatim.
func (s *Schema) presentationPayload(v View) map[string]any {
	if s.transform != nil {
		return s.transform(v)
	}
	if len(s.presentation) == 0 {
		return v.Values()
	}
	payload := make(map[string]any, len(s.presentation))
	for name := range s.presentation {
		payload[name] = v.Value(name)
	}
	return payload
}
