package pergola

import (
	"context"
	"log/slog"

	"github.com/aretw0/pergola/pkg/domain"
	"github.com/aretw0/pergola/pkg/schema"
)

// Invocation carries one call's identity and validated arguments through the
// middleware chain into the handler. It is created by the engine per call and
// must not be retained past the handler's return.
type Invocation struct {
	// CallID correlates log lines, hooks and progress events of one call.
	CallID string
	// Tool and ActionKey identify the resolved route.
	Tool      string
	ActionKey string
	// Args holds the validated, normalized arguments including the
	// re-injected discriminator value.
	Args map[string]any

	sink   domain.ProgressSink
	hooks  domain.CallHooks
	event  *domain.CallEvent
	logger *slog.Logger
}

// Logger returns the call-scoped structured logger.
func (inv *Invocation) Logger() *slog.Logger { return inv.logger }

// Decode maps the validated arguments onto a typed struct via pkg/schema.
func (inv *Invocation) Decode(target any) error {
	return schema.Decode(inv.Args, target)
}

// Progress emits a progress event to the call's sink, if any. Events are
// forwarded synchronously in emission order; with no sink attached they are
// dropped for free. A panicking sink is logged and swallowed so it can never
// abort the handler.
func (inv *Invocation) Progress(ctx context.Context, percent float64, message string) {
	ev := domain.ProgressEvent{Percent: clampPercent(percent), Message: message}

	if inv.hooks.OnProgress != nil {
		inv.hooks.OnProgress(ctx, inv.event, ev)
	}
	if inv.sink == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				inv.logger.Warn("progress sink panicked",
					"tool", inv.Tool,
					"action", inv.ActionKey,
					"call_id", inv.CallID,
					"err", r,
				)
			}
		}()
		inv.sink(ev)
	}()
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
