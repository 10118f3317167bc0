package domain

// FieldState tags the outcome of a single field extraction.
type FieldState uint8

const (
	// FieldMissing means the expected markup was absent.
	FieldMissing FieldState = iota
	// FieldOK means the value was extracted and coerced.
	FieldOK
	// FieldMalformed means the markup was present but its text could not be coerced.
	FieldMalformed
)

// String renders the state for logs.
func (s FieldState) String() string {
	switch s {
	case FieldOK:
		return "ok"
	case FieldMalformed:
		return "malformed"
	default:
		return "missing"
	}
}

// Field is the result of one extractor. The zero value is Missing.
type Field[T any] struct {
	Value  T
	State  FieldState
	Reason string
}

// Ok wraps a successfully extracted value.
func Ok[T any](v T) Field[T] {
	return Field[T]{Value: v, State: FieldOK}
}

// Missing reports absent markup.
func Missing[T any](reason string) Field[T] {
	return Field[T]{State: FieldMissing, Reason: reason}
}

// Malformed reports markup whose text could not be coerced.
func Malformed[T any](reason string) Field[T] {
	return Field[T]{State: FieldMalformed, Reason: reason}
}

// OK reports whether the field carries a usable value.
func (f Field[T]) OK() bool {
	return f.State == FieldOK
}

// Or returns the value when present, fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if f.State == FieldOK {
		return f.Value
	}
	return fallback
}
