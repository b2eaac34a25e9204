package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
	"github.com/aretw0/pergola/pkg/schema"
)

func testEngine(t *testing.T) *pergola.Engine {
	t.Helper()
	e := pergola.New()
	e.MustRegister(pergola.NewTool("users", "User records").
		Action(pergola.Action{
			Key:   "get",
			Shape: schema.Schema{"id": schema.String()},
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return "user-" + inv.Args["id"].(string), nil
			},
			ReadOnly: true,
		}).
		Action(pergola.Action{
			Key:         "delete",
			Description: "Remove a user",
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return "deleted", nil
			},
			Destructive: true,
		}))
	return e
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInputSchema_DiscriminatorEnum(t *testing.T) {
	e := testEngine(t)
	info := e.Tools()[0]

	raw := inputSchemaFor(info)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))

	props := parsed["properties"].(map[string]any)
	action := props["action"].(map[string]any)
	assert.ElementsMatch(t, []any{"get", "delete"}, action["enum"])
	assert.Equal(t, []any{"action"}, parsed["required"].([]any))
	assert.Equal(t, true, parsed["additionalProperties"])
}

func TestToolDescription_ListsActions(t *testing.T) {
	e := testEngine(t)
	desc := toolDescription(e.Tools()[0])

	assert.Contains(t, desc, "User records")
	assert.Contains(t, desc, `"action"`)
	assert.Contains(t, desc, "- get")
	assert.Contains(t, desc, "- delete: Remove a user (destructive)")
}

func TestToCallResult_MapsContentAndErrorFlag(t *testing.T) {
	ok := toCallResult(domain.NewTextResponse("fine"))
	require.Len(t, ok.Content, 1)
	assert.False(t, ok.IsError)

	structured := toCallResult(domain.NewJSONResponse(map[string]any{"n": 1}))
	require.Len(t, structured.Content, 1)

	failed := toCallResult(domain.NewErrorResponse(assert.AnError))
	assert.True(t, failed.IsError)
}

func TestNewServer_RegistersEveryTool(t *testing.T) {
	s := NewServer(testEngine(t), nopLogger())
	require.NotNil(t, s.mcpServer)
}
