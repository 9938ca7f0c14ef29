package document_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jacentio/espalier/document"
)

func TestFieldCoercion(t *testing.T) {
	utc := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		kind  document.Kind
		input any
		want  any
	}{
		{"string passthrough", document.KindString, "abc", "abc"},
		{"string from bytes", document.KindString, []byte("abc"), "abc"},
		{"string from int", document.KindString, 7, "7"},
		{"int passthrough", document.KindInt, int64(42), int64(42)},
		{"int from float", document.KindInt, 3.9, int64(3)},
		{"int from string", document.KindInt, "12", int64(12)},
		{"int from bool", document.KindInt, true, int64(1)},
		{"float passthrough", document.KindFloat, 2.5, 2.5},
		{"float from int", document.KindFloat, 2, 2.0},
		{"float from string", document.KindFloat, "2.5", 2.5},
		{"bool passthrough", document.KindBool, true, true},
		{"bool from string", document.KindBool, "true", true},
		{"bool from int", document.KindBool, 0, false},
		{"time passthrough", document.KindTime, utc, utc},
		{"time from epoch", document.KindTime, float64(utc.Unix()), utc},
		{"time from rfc3339", document.KindTime, "2024-05-01T12:30:00Z", utc},
		{"any passthrough", document.KindAny, []int{1, 2}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := document.Field{Kind: tt.kind}
			if err := f.Set("f", tt.input); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := f.Get()
			if wt, ok := tt.want.(time.Time); ok {
				gt, ok := got.(time.Time)
				if !ok || !gt.Equal(wt) {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
				return
			}
			switch w := tt.want.(type) {
			case []int:
				g, ok := got.([]int)
				if !ok || len(g) != len(w) {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			default:
				if got != tt.want {
					t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
				}
			}
		})
	}
}

func TestFieldCoercionMap(t *testing.T) {
	f := document.Field{Kind: document.KindMap}
	if err := f.Set("meta", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := f.Get().(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", f.Get())
	}
	if m["a"] != "b" {
		t.Errorf("expected value 'b', got %v", m["a"])
	}
}

func TestFieldTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		kind  document.Kind
		input any
	}{
		{"int from struct", document.KindInt, struct{}{}},
		{"int from bad string", document.KindInt, "twelve"},
		{"bool from bad string", document.KindBool, "maybe"},
		{"time from bad string", document.KindTime, "yesterday"},
		{"map from string", document.KindMap, "not a map"},
		{"string from slice", document.KindString, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := document.Field{Kind: tt.kind}
			err := f.Set("f", tt.input)
			if !errors.Is(err, document.ErrTypeMismatch) {
				t.Fatalf("expected ErrTypeMismatch, got %v", err)
			}
			var mismatch *document.TypeMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected *TypeMismatchError, got %T", err)
			}
			if mismatch.Field != "f" {
				t.Errorf("expected field 'f', got %q", mismatch.Field)
			}
			if mismatch.Want != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, mismatch.Want)
			}
		})
	}
}

func TestFieldClearToAbsent(t *testing.T) {
	f := document.Field{Kind: document.KindString}
	if err := f.Set("f", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set("f", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get(); got != nil {
		t.Errorf("expected nil after clear, got %v", got)
	}
}

func TestFieldDefault(t *testing.T) {
	f := document.Field{Kind: document.KindString, Default: "fallback"}
	if got := f.Get(); got != "fallback" {
		t.Errorf("expected default 'fallback', got %v", got)
	}
	if err := f.Set("f", "explicit"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get(); got != "explicit" {
		t.Errorf("expected 'explicit', got %v", got)
	}
}
