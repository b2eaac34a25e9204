package pergola

import (
	"context"
	"fmt"

	"github.com/aretw0/pergola/pkg/domain"
)

// EmitFunc publishes one progress event from a streaming producer.
type EmitFunc func(event domain.ProgressEvent)

// Streaming adapts a progress-producing function into a Handler.
//
// The producer runs on its own goroutine and may emit any number of events
// before returning its final result; the adapter forwards each event to the
// call's sink in order and checks for cancellation between steps. When the
// context fires, iteration is abandoned after the current step and a
// cancelled error is returned instead of a final result. The producer's
// pending emits unblock via the same context, so no goroutine leaks.
func Streaming(fn func(ctx context.Context, inv *Invocation, emit EmitFunc) (any, error)) Handler {
	return func(ctx context.Context, inv *Invocation) (any, error) {
		type outcome struct {
			value any
			err   error
		}

		events := make(chan domain.ProgressEvent)
		done := make(chan outcome, 1)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- outcome{err: fmt.Errorf("panic: %v", r)}
				}
			}()
			v, err := fn(ctx, inv, func(ev domain.ProgressEvent) {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			})
			done <- outcome{value: v, err: err}
		}()

		for {
			select {
			case ev := <-events:
				// Cancellation checkpoint between progress steps.
				if ctx.Err() != nil {
					return nil, domain.NewCancelled(ctx)
				}
				inv.Progress(ctx, ev.Percent, ev.Message)
			case out := <-done:
				return out.value, out.err
			case <-ctx.Done():
				return nil, domain.NewCancelled(ctx)
			}
		}
	}
}
