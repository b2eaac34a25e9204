package middleware_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/middleware"
)

func sanitizedEngine(t *testing.T, maxSize int) (*pergola.Engine, *map[string]any) {
	t.Helper()
	var seen map[string]any
	e := pergola.New(pergola.WithMiddleware(middleware.Sanitize(maxSize)))
	e.MustRegister(pergola.NewTool("echo", "").
		Action(pergola.Action{Key: "run", Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
			seen = inv.Args
			return "ok", nil
		}}))
	return e, &seen
}

func TestSanitize_StripsControlCharacters(t *testing.T) {
	e, seen := sanitizedEngine(t, 0)

	resp := e.Execute(context.Background(), "echo", map[string]any{
		"action": "run",
		"note":   "hello\x1b[31mworld\x00",
		"multi":  "line one\nline two\ttabbed",
	})

	require.False(t, resp.IsError)
	assert.Equal(t, "hello[31mworld", (*seen)["note"])
	assert.Equal(t, "line one\nline two\ttabbed", (*seen)["multi"], "safe whitespace survives")
}

func TestSanitize_RejectsOversizedArgument(t *testing.T) {
	e, _ := sanitizedEngine(t, 16)

	resp := e.Execute(context.Background(), "echo", map[string]any{
		"action": "run",
		"blob":   strings.Repeat("x", 17),
	})

	require.True(t, resp.IsError)
	assert.Contains(t, resp.FirstText(), "maximum allowed size")
}

func TestSanitize_RejectsInvalidUTF8(t *testing.T) {
	e, _ := sanitizedEngine(t, 0)

	resp := e.Execute(context.Background(), "echo", map[string]any{
		"action": "run",
		"name":   string([]byte{0xff, 0xfe}),
	})

	require.True(t, resp.IsError)
	assert.Contains(t, resp.FirstText(), "UTF-8")
}

func TestSanitize_NonStringArgsUntouched(t *testing.T) {
	e, seen := sanitizedEngine(t, 0)

	resp := e.Execute(context.Background(), "echo", map[string]any{
		"action": "run",
		"count":  42,
		"flags":  []any{"a", "b"},
	})

	require.False(t, resp.IsError)
	assert.Equal(t, 42, (*seen)["count"])
	assert.Equal(t, []any{"a", "b"}, (*seen)["flags"])
}
