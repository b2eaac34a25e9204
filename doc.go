/*
Package pergola is a tool dispatch engine for agent hosts: it routes
structured tool calls to registered action handlers, validates arguments,
runs each call through a precompiled middleware chain, and serializes
destructive operations on the same logical resource.

# Concept

An agent issues calls of the form {tool, arguments}; one argument field (the
discriminator, "action" by default) selects which action of the tool to run.
Pergola owns everything between receiving the raw arguments and producing a
Response: routing, validation, mutual exclusion, cancellation and progress
streaming. Transports (HTTP, MCP, CLI) live in adapters and only ever see
Responses, never raw faults.

# Key Guarantees

  - Total boundary: Execute always returns a Response. Handler errors and
    panics become structured failures; nothing escapes the pipeline.
  - FIFO mutual exclusion: destructive actions sharing a key run strictly
    one at a time, in submission order, with idle keys garbage collected.
  - Cooperative cancellation: a fired context is observed before dispatch,
    while queued for the serializer, and between progress steps. Running
    handlers are never preempted.
  - Zero-overhead opt-outs: actions without a schema skip validation,
    non-destructive actions never touch the serializer, and calls without a
    progress sink pay nothing for events.

# Usage

Register tools at startup; the action table freezes on the first call.

	engine := pergola.New()

	users := pergola.NewTool("users", "Manage user records").
		Action(pergola.Action{
			Key:   "get",
			Shape: schema.Schema{"id": schema.String()},
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return lookup(inv.Args["id"].(string))
			},
			ReadOnly: true,
		}).
		Action(pergola.Action{
			Key:         "delete",
			Shape:       schema.Schema{"id": schema.String()},
			Handler:     deleteHandler,
			Destructive: true, // serialized per users.delete
		})

	engine.MustRegister(users)

	resp := engine.Execute(ctx, "users", map[string]any{
		"action": "delete",
		"id":     "42",
	})
*/
package pergola
