package errs

import (
	"strings"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// ValidationError collects field errors for a single payload.
// It matches ErrInvalidInput via errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// Add appends a field error.
func (v *ValidationError) Add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

// Prefix returns a copy with every field name prefixed, e.g. "links[2].".
func (v *ValidationError) Prefix(p string) *ValidationError {
	out := &ValidationError{Fields: make([]FieldError, len(v.Fields))}
	for i, f := range v.Fields {
		out.Fields[i] = FieldError{Field: p + f.Field, Message: f.Message}
	}
	return out
}

// Merge appends fields from other.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	v.Fields = append(v.Fields, other.Fields...)
}

// OrNil returns nil when no field errors were collected, so the result can be returned as error.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.String()
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Is reports ErrInvalidInput equivalence.
func (v *ValidationError) Is(target error) bool { return target == ErrInvalidInput }
