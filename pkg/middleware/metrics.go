package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
)

// Metrics instruments calls with three collectors registered on reg:
// pergola_calls_total{tool,action,outcome}, pergola_call_duration_seconds
// and pergola_calls_in_flight. Outcomes are success, error or cancelled.
func Metrics(reg prometheus.Registerer) pergola.Middleware {
	calls := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "pergola_calls_total",
		Help: "Tool calls by tool, action and outcome.",
	}, []string{"tool", "action", "outcome"})

	duration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pergola_call_duration_seconds",
		Help:    "Tool call duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool", "action"})

	inFlight := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "pergola_calls_in_flight",
		Help: "Tool calls currently executing.",
	}, []string{"tool", "action"})

	return func(ctx context.Context, inv *pergola.Invocation, next pergola.Handler) (any, error) {
		inFlight.WithLabelValues(inv.Tool, inv.ActionKey).Inc()
		defer inFlight.WithLabelValues(inv.Tool, inv.ActionKey).Dec()

		start := time.Now()
		out, err := next(ctx, inv)
		duration.WithLabelValues(inv.Tool, inv.ActionKey).Observe(time.Since(start).Seconds())

		calls.WithLabelValues(inv.Tool, inv.ActionKey, outcomeOf(err)).Inc()
		return out, err
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}
