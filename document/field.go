package document

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the declared type of a [Field].
type Kind int

const (
	// KindAny accepts any value without coercion.
	KindAny Kind = iota

	// KindString holds a string.
	KindString

	// KindInt holds an int64.
	KindInt

	// KindFloat holds a float64.
	KindFloat

	// KindBool holds a bool.
	KindBool

	// KindTime holds a time.Time.
	KindTime

	// KindMap holds a map[string]any.
	KindMap
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Field is a typed, independently validated value holder. The exported
// struct fields form the declaration template used in [Definition.Fields];
// each live document owns an independent copy carrying the instance state.
type Field struct {
	// Kind is the declared value type. The zero value is [KindAny].
	Kind Kind

	// ID marks this field as the kind's identifier. Exactly one field per
	// kind must set it.
	ID bool

	// Presentation marks the field as visible to the view store.
	Presentation bool

	// Required makes construction fail when the field resolves to no value.
	Required bool

	// Default is the value reported while no explicit value is set.
	// nil means no default.
	Default any

	value any
	set   bool
}

// Set assigns a value to the field, coercing it to the declared kind.
// A nil value clears the field to absent. The name is used only for error
// reporting.
func (f *Field) Set(name string, value any) error {
	if value == nil {
		f.value = nil
		f.set = false
		return nil
	}
	coerced, ok := coerce(f.Kind, value)
	if !ok {
		return &TypeMismatchError{Field: name, Value: value, Want: f.Kind}
	}
	f.value = coerced
	f.set = true
	return nil
}

// Get returns the coerced value, the default when no value is set, or nil
// when the field is absent.
func (f *Field) Get() any {
	if f.set {
		return f.value
	}
	return f.Default
}

// coerce converts value to kind's canonical representation. The bool result
// reports whether the conversion was possible.
func coerce(k Kind, value any) (any, bool) {
	switch k {
	case KindAny:
		return value, true
	case KindString:
		return coerceString(value)
	case KindInt:
		return coerceInt(value)
	case KindFloat:
		return coerceFloat(value)
	case KindBool:
		return coerceBool(value)
	case KindTime:
		return coerceTime(value)
	case KindMap:
		return coerceMap(value)
	}
	return nil, false
}

func coerceString(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	if i, ok := toInt64(value); ok {
		return strconv.FormatInt(i, 10), true
	}
	return nil, false
}

func coerceInt(value any) (any, bool) {
	if i, ok := toInt64(value); ok {
		return i, true
	}
	switch v := value.(type) {
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case bool:
		if v {
			return int64(1), true
		}
		return int64(0), true
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	}
	return nil, false
}

func coerceFloat(value any) (any, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case bool:
		if v {
			return float64(1), true
		}
		return float64(0), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	if i, ok := toInt64(value); ok {
		return float64(i), true
	}
	return nil, false
}

func coerceBool(value any) (any, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, false
		}
		return b, true
	case float32:
		return v != 0, true
	case float64:
		return v != 0, true
	}
	if i, ok := toInt64(value); ok {
		return i != 0, true
	}
	return nil, false
}

func coerceTime(value any) (any, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case float64:
		return epochTime(v), true
	case float32:
		return epochTime(float64(v)), true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, false
		}
		return t, true
	}
	if i, ok := toInt64(value); ok {
		return time.Unix(i, 0).UTC(), true
	}
	return nil, false
}

func coerceMap(value any) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = item
		}
		return out, true
	}
	return nil, false
}

// toInt64 widens any integer type to int64.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// epochTime converts fractional epoch seconds to a UTC time.
func epochTime(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second))).UTC()
}
