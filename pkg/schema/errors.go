package schema

import (
	"fmt"
	"strings"
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Path   string // Field path, dot-joined for nested objects (e.g. "user.name")
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation, nil if absent
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// AggregateError collects every validation failure of a single Validate call.
// Its message joins all failures as "path: reason; path: reason" so the
// caller sees the full set at once.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// FieldErrors returns the individual failures if err is an AggregateError,
// nil otherwise.
func FieldErrors(err error) []*FieldError {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
