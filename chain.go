package pergola

import "context"

// Handler executes an action with its validated arguments.
// The returned value becomes the Response payload: a *domain.Response passes
// through unchanged, a string becomes a text block, anything else a JSON
// block.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Middleware wraps a Handler. It must call next to continue the chain, or
// short-circuit by returning its own value (or error) without calling it.
type Middleware func(ctx context.Context, inv *Invocation, next Handler) (any, error)

// compose wraps h with mws so that mws[0] is outermost. Called once per
// action at freeze time; the hot path only invokes the precomposed function.
func compose(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(ctx context.Context, inv *Invocation) (any, error) {
			return mw(ctx, inv, next)
		}
	}
	return h
}
