package openapi_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/adapters/openapi"
	"github.com/aretw0/pergola/pkg/schema"
)

func userSchema() *openapi3.Schema {
	return &openapi3.Schema{
		Type:     &openapi3.Types{openapi3.TypeObject},
		Required: []string{"name", "age"},
		Properties: openapi3.Schemas{
			"name": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
			"age":  openapi3.NewSchemaRef("", openapi3.NewIntegerSchema()),
		},
	}
}

func TestValidator_Accepts(t *testing.T) {
	v := openapi.NewValidator()

	args := map[string]any{"name": "Ada", "age": 36.0}
	out, err := v.Validate(userSchema(), args)

	require.NoError(t, err)
	assert.Equal(t, args, out)
}

func TestValidator_AggregatesAllViolations(t *testing.T) {
	v := openapi.NewValidator()

	_, err := v.Validate(userSchema(), map[string]any{"age": "old"})
	require.Error(t, err)

	fields := schema.FieldErrors(err)
	require.NotEmpty(t, fields)
	// Both the missing name and the mistyped age must be present.
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "age")
}

func TestValidator_RejectsForeignShape(t *testing.T) {
	v := openapi.NewValidator()

	_, err := v.Validate(schema.Schema{"x": schema.String()}, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shape")
}

func TestValidator_WiredIntoEngine(t *testing.T) {
	engine := pergola.New(pergola.WithValidator(openapi.NewValidator()))
	engine.MustRegister(pergola.NewTool("users", "").
		Action(pergola.Action{
			Key:   "create",
			Shape: userSchema(),
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return "created", nil
			},
		}))

	resp := engine.Execute(context.Background(), "users", map[string]any{
		"action": "create",
		"name":   "Ada",
		"age":    36.0,
	})
	require.False(t, resp.IsError)
	assert.Equal(t, "created", resp.FirstText())

	resp = engine.Execute(context.Background(), "users", map[string]any{"action": "create"})
	require.True(t, resp.IsError)
}
