// SPDX-License-Identifier: MIT

package validate

import "strings"

// Batch accumulates validation errors across multiple fields so a request
// can report every invalid parameter at once instead of failing on the
// first.
type Batch struct {
	errors []Error
}

// NewBatch creates an empty batch validator.
func NewBatch() *Batch {
	return &Batch{errors: make([]Error, 0)}
}

func (b *Batch) record(err *Error) {
	if err != nil {
		b.errors = append(b.errors, *err)
	}
}

// Number validates and records; returns the value (zero on failure).
func (b *Batch) Number(field string, v any, min, max *float64) float64 {
	f, err := Number(field, v, min, max)
	b.record(err)
	return f
}

// Int validates and records; returns the value (zero on failure).
func (b *Batch) Int(field string, v any, min, max *int) int {
	n, err := Int(field, v, min, max)
	b.record(err)
	return n
}

// String validates and records; returns the value ("" on failure).
func (b *Batch) String(field string, v any, opts StringOpts) string {
	s, err := String(field, v, opts)
	b.record(err)
	return s
}

// Bool validates and records; returns the value (false on failure).
func (b *Batch) Bool(field string, v any) bool {
	t, err := Bool(field, v)
	b.record(err)
	return t
}

// Vector3 validates and records; returns the tuple (nil on failure).
func (b *Batch) Vector3(field string, v any) []float64 {
	t, err := Vector3(field, v)
	b.record(err)
	return t
}

// Enum validates and records; returns the value ("" on failure).
func (b *Batch) Enum(field string, v any, allowed []string) string {
	s, err := Enum(field, v, allowed)
	b.record(err)
	return s
}

// IsValid reports whether no errors have been recorded.
func (b *Batch) IsValid() bool {
	return len(b.errors) == 0
}

// Errors returns the accumulated errors.
func (b *Batch) Errors() []Error {
	return b.errors
}

// Err returns nil when valid, otherwise an aggregate error listing every
// failed field.
func (b *Batch) Err() error {
	if len(b.errors) == 0 {
		return nil
	}
	copied := make([]Error, len(b.errors))
	copy(copied, b.errors)
	return &BatchError{errors: copied}
}

// BatchError bundles multiple field errors into one error value.
type BatchError struct {
	errors []Error
}

// Errors returns the individual field errors.
func (e *BatchError) Errors() []Error {
	return e.errors
}

// Fields returns the names of all failed fields in recorded order.
func (e *BatchError) Fields() []string {
	fields := make([]string, len(e.errors))
	for i, err := range e.errors {
		fields[i] = err.Field
	}
	return fields
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
