// Package optional tracks whether a JSON field was present, and whether it
// was null, so PATCH handlers can tell "leave alone" from "clear".
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a decoded value plus its presence. The zero Field is absent.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Of returns a present, non-null field.
func Of[T any](v T) Field[T] { return Field[T]{set: true, value: v} }

// Null returns a present field explicitly set to null.
func Null[T any]() Field[T] { return Field[T]{set: true, null: true} }

// UnmarshalJSON is only invoked when the key appears in the object.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		f.null, f.value = true, zero
		return nil
	}
	f.null = false
	return json.Unmarshal(b, &f.value)
}

// IsSet reports whether the key was present (null included).
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the key was present with a null value.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and true when the key was present and not null.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set && !f.null
}

// OrZero returns the value, or T's zero value when absent or null.
func (f Field[T]) OrZero() T { return f.value }
