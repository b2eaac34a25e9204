// Package openapi validates action arguments against OpenAPI 3 schemas.
// It is a drop-in alternative to the native schema validator for tools whose
// argument shapes already exist as OpenAPI documents.
package openapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/aretw0/pergola/pkg/schema"
)

// Validator implements ports.ArgumentValidator for *openapi3.Schema shapes.
// Every schema violation is collected into one aggregated error rather than
// stopping at the first.
type Validator struct{}

// NewValidator creates an OpenAPI argument validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks args against shape, which must be an *openapi3.Schema or
// an *openapi3.SchemaRef. Arguments are returned unchanged on success.
func (v *Validator) Validate(shape any, args map[string]any) (map[string]any, error) {
	s, err := schemaOf(shape)
	if err != nil {
		return nil, err
	}

	err = s.VisitJSON(args, openapi3.MultiErrors())
	if err == nil {
		return args, nil
	}

	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		multi = openapi3.MultiError{err}
	}

	agg := &schema.AggregateError{Errors: make([]*schema.FieldError, 0, len(multi))}
	for _, item := range multi {
		agg.Errors = append(agg.Errors, toFieldError(item))
	}
	return nil, agg
}

func schemaOf(shape any) (*openapi3.Schema, error) {
	switch s := shape.(type) {
	case *openapi3.Schema:
		return s, nil
	case *openapi3.SchemaRef:
		if s.Value == nil {
			return nil, fmt.Errorf("openapi: schema ref has no resolved value")
		}
		return s.Value, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported shape type %T", shape)
	}
}

// toFieldError maps a kin-openapi SchemaError to the engine's field error,
// preserving the JSON path so nested failures read as "user.age: ...".
func toFieldError(err error) *schema.FieldError {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return &schema.FieldError{
			Path:   strings.Join(se.JSONPointer(), "."),
			Reason: se.Reason,
			Value:  se.Value,
		}
	}
	return &schema.FieldError{Reason: err.Error()}
}
