// Package codec implements the tagged value encoding used at the primary
// store boundary: datetimes serialize to {__type__: "datetime", value:
// <epoch-seconds float>} at any nesting depth, all other values pass
// through the store's native structured encoding.
package codec

import "time"

const (
	typeKey  = "__type__"
	timeTag  = "datetime"
	valueKey = "value"
)

// Tag replaces every time.Time in v, recursively, with its tagged
// structure. Maps and slices are copied, not mutated in place.
func Tag(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{typeKey: timeTag, valueKey: Epoch(t)}
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, item := range t {
			out[key] = Tag(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Tag(item)
		}
		return out
	}
	return v
}

// Revive replaces every tagged datetime structure in v, recursively, with
// a UTC time.Time.
func Revive(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t[typeKey] == timeTag {
			if secs, ok := asFloat(t[valueKey]); ok {
				return FromEpoch(secs)
			}
		}
		out := make(map[string]any, len(t))
		for key, item := range t {
			out[key] = Revive(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Revive(item)
		}
		return out
	}
	return v
}

// Epoch converts a time to fractional epoch seconds.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpoch converts fractional epoch seconds to a UTC time.
func FromEpoch(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second))).UTC()
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
