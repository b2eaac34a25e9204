package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/pergola"
)

// Logging logs every call's start and outcome with the tool, action, call id
// and duration. Failures log at Warn with the error; successes at Info.
func Logging(logger *slog.Logger) pergola.Middleware {
	return func(ctx context.Context, inv *pergola.Invocation, next pergola.Handler) (any, error) {
		log := logger.With(
			"tool", inv.Tool,
			"action", inv.ActionKey,
			"call_id", inv.CallID,
		)
		log.Debug("tool.call.start")

		start := time.Now()
		out, err := next(ctx, inv)
		elapsed := time.Since(start)

		if err != nil {
			log.Warn("tool.call.failed",
				"err", err.Error(),
				"duration_ms", elapsed.Milliseconds(),
			)
			return out, err
		}
		log.Info("tool.call.success", "duration_ms", elapsed.Milliseconds())
		return out, nil
	}
}
