// Package patch provides an explicit Unset|Set field type for partial updates.
//
// A Field that is not set leaves the stored value untouched when applied,
// which makes merge semantics testable without relying on store-level
// null coalescing.
package patch

// Field carries an optional new value for one column of a partial update.
// The zero value is "unset".
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// FromPtr returns an unset Field for a nil pointer, otherwise Set(*p).
// Request DTOs use pointers for optional JSON fields; absent and null both
// decode to nil and both mean "leave unchanged".
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Field[T]{}
	}
	return Set(*p)
}

// IsSet reports whether the field carries a value.
func (f Field[T]) IsSet() bool { return f.set }

// Value returns the carried value and whether it is set.
func (f Field[T]) Value() (T, bool) { return f.value, f.set }

// Apply returns the carried value if set, otherwise current.
func (f Field[T]) Apply(current T) T {
	if f.set {
		return f.value
	}
	return current
}

// ApplyPtr returns a pointer to the carried value if set, otherwise current.
func (f Field[T]) ApplyPtr(current *T) *T {
	if f.set {
		v := f.value
		return &v
	}
	return current
}
