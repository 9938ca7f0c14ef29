package document

import (
	"sort"
	"time"
)

// View is an immutable, point-in-time snapshot of a document's field values
// and change-sets, constructed once per save or delete call and passed to
// presentation transforms and lifecycle hooks.
type View struct {
	values              map[string]any
	changed             map[string]struct{}
	presentationChanged map[string]struct{}
}

func newView(d *Document) View {
	values := make(map[string]any, len(d.fields))
	for name, field := range d.fields {
		values[name] = field.Get()
	}
	changed := make(map[string]struct{}, len(d.changed))
	presentationChanged := make(map[string]struct{})
	for name := range d.changed {
		changed[name] = struct{}{}
		if _, ok := d.schema.presentation[name]; ok {
			presentationChanged[name] = struct{}{}
		}
	}
	return View{
		values:              values,
		changed:             changed,
		presentationChanged: presentationChanged,
	}
}

// Value returns the materialized value of the named field, or nil when the
// name is not part of the snapshot.
func (v View) Value(name string) any {
	return v.values[name]
}

// Values returns a fresh copy of the full field snapshot.
func (v View) Values() map[string]any {
	values := make(map[string]any, len(v.values))
	for name, value := range v.values {
		values[name] = value
	}
	return values
}

// Changed returns the sorted names of fields mutated since the last save.
func (v View) Changed() []string {
	return sortedNames(v.changed)
}

// PresentationChanged returns the sorted names of changed fields that are
// presentational.
func (v View) PresentationChanged() []string {
	return sortedNames(v.presentationChanged)
}

// HasChanged reports whether the named field is in the changed set.
func (v View) HasChanged(name string) bool {
	_, ok := v.changed[name]
	return ok
}

// StringValue returns the named value as a string, or "" when it is absent
// or not a string.
func (v View) StringValue(name string) string {
	s, _ := v.values[name].(string)
	return s
}

// IntValue returns the named value as an int64, or 0 when it is absent or
// not an int.
func (v View) IntValue(name string) int64 {
	i, _ := v.values[name].(int64)
	return i
}

// FloatValue returns the named value as a float64, or 0 when it is absent
// or not a float.
func (v View) FloatValue(name string) float64 {
	f, _ := v.values[name].(float64)
	return f
}

// BoolValue returns the named value as a bool, or false when it is absent
// or not a bool.
func (v View) BoolValue(name string) bool {
	b, _ := v.values[name].(bool)
	return b
}

// TimeValue returns the named value as a time.Time, or the zero time when
// it is absent or not a time.
func (v View) TimeValue(name string) time.Time {
	t, _ := v.values[name].(time.Time)
	return t
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
