package pergola

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/pergola/pkg/domain"
)

// CallOption configures a single Execute call.
type CallOption func(*callConfig)

type callConfig struct {
	sink domain.ProgressSink
}

// WithProgress attaches a sink receiving the call's progress events in
// emission order. Without it, events are produced and dropped with no
// behavioral difference.
func WithProgress(sink domain.ProgressSink) CallOption {
	return func(c *callConfig) {
		c.sink = sink
	}
}

// Execute runs one tool call through the invocation pipeline:
// resolve action -> validate arguments -> serialize (destructive only) ->
// run the compiled chain.
//
// It always returns a Response; routing, validation and cancellation
// failures, handler errors and handler panics all surface as a Response with
// IsError set. This boundary is the only place faults are caught and
// converted. Cancellation is cooperative: a context that fired before
// dispatch fails fast with zero side effects, one that fires while queued in
// the serializer rejects only that waiter, and running handlers are never
// preempted.
func (e *Engine) Execute(ctx context.Context, tool string, rawArgs map[string]any, opts ...CallOption) *domain.Response {
	e.freezeOnce.Do(e.freeze)

	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// Pre-dispatch cancellation: an already-fired context touches nothing.
	if ctx.Err() != nil {
		return domain.NewErrorResponse(domain.NewCancelled(ctx))
	}

	out, err := e.dispatch(ctx, tool, rawArgs, &cfg)
	if err != nil {
		e.logger.Warn("tool.call.failed", "tool", tool, "err", err.Error())
		return domain.NewErrorResponse(err)
	}
	return toResponse(out)
}

// dispatch implements the pipeline steps. Each step returns an error to
// short-circuit; Execute converts the first failure into the final Response.
func (e *Engine) dispatch(ctx context.Context, tool string, rawArgs map[string]any, cfg *callConfig) (any, error) {
	t, ok := e.tools[tool]
	if !ok {
		return nil, &domain.UnknownToolError{Name: tool, Available: e.toolNames()}
	}

	a, err := t.resolve(rawArgs)
	if err != nil {
		return nil, err
	}

	args, err := e.validateArgs(t, a, rawArgs)
	if err != nil {
		return nil, err
	}

	event := &domain.CallEvent{
		CallID: uuid.NewString(),
		Tool:   t.name,
		Action: a.Key,
	}
	inv := &Invocation{
		CallID:    event.CallID,
		Tool:      t.name,
		ActionKey: a.Key,
		Args:      args,
		sink:      cfg.sink,
		hooks:     e.hooks,
		event:     event,
		logger:    e.logger.With("tool", t.name, "action", a.Key, "call_id", event.CallID),
	}

	start := time.Now()
	inv.logger.Debug("tool.call.start")
	if e.hooks.OnCallStart != nil {
		e.hooks.OnCallStart(ctx, event)
	}

	chain := e.compiled[t.name][a.Key]
	run := func(ctx context.Context) (any, error) {
		return e.runChain(ctx, chain, inv)
	}

	var out any
	if a.Destructive && e.serializer != nil {
		out, err = e.serializer.Do(ctx, a.mutexKeyFor(t.name), run)
	} else {
		out, err = run(ctx)
	}

	event.Err = err
	event.Duration = time.Since(start)
	if e.hooks.OnCallEnd != nil {
		e.hooks.OnCallEnd(ctx, event)
	}
	if err == nil {
		inv.logger.Info("tool.call.success", "duration_ms", event.Duration.Milliseconds())
	}

	return out, err
}

// runChain invokes the precomposed chain, converting panics and unclassified
// errors into HandlerError. Cancellations pass through untouched so callers
// can distinguish an abandoned call from a failed one.
func (e *Engine) runChain(ctx context.Context, chain Handler, inv *Invocation) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.HandlerError{
				Tool:   inv.Tool,
				Action: inv.ActionKey,
				Err:    fmt.Errorf("panic: %v", r),
			}
		}
	}()

	out, err = chain(ctx, inv)
	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		var he *domain.HandlerError
		if !errors.As(err, &he) {
			err = &domain.HandlerError{Tool: inv.Tool, Action: inv.ActionKey, Err: err}
		}
	}
	return out, err
}

// validateArgs applies the action's declared shape, if any. The
// discriminator field is stripped before validation and the resolved action
// key re-injected into the normalized result. Actions without a shape pass
// arguments through unchanged.
func (e *Engine) validateArgs(t *Tool, a *Action, rawArgs map[string]any) (map[string]any, error) {
	if a.Shape == nil {
		return rawArgs, nil
	}

	candidate := make(map[string]any, len(rawArgs))
	for k, v := range rawArgs {
		if k == t.discriminator {
			continue
		}
		candidate[k] = v
	}

	validated, err := e.validator.Validate(a.Shape, candidate)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(validated)+1)
	for k, v := range validated {
		normalized[k] = v
	}
	normalized[t.discriminator] = a.Key
	return normalized, nil
}

// toResponse shapes a handler's return value into the final Response.
func toResponse(out any) *domain.Response {
	switch v := out.(type) {
	case nil:
		return &domain.Response{Content: []domain.ContentBlock{}}
	case *domain.Response:
		return v
	case string:
		return domain.NewTextResponse(v)
	default:
		return domain.NewJSONResponse(v)
	}
}
