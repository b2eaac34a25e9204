package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is the sentinel for calls abandoned via context cancellation.
// Use errors.Is(err, ErrCancelled) to detect it regardless of the cause.
var ErrCancelled = errors.New("operation cancelled")

// ErrFrozen is returned when registration is attempted after the first call.
var ErrFrozen = errors.New("action table is frozen after first execution")

// RoutingError reports a missing or unknown action selector. The message
// always enumerates the valid keys so the caller can retry correctly.
type RoutingError struct {
	Tool      string
	Field     string   // discriminator field name
	Value     string   // offending value; empty when the field was missing
	Available []string // valid action keys, in registration order
}

func (e *RoutingError) Error() string {
	keys := strings.Join(e.Available, ", ")
	if e.Value == "" {
		return fmt.Sprintf("missing %q field for tool %q: available actions: %s", e.Field, e.Tool, keys)
	}
	return fmt.Sprintf("unknown action %q for tool %q: available actions: %s", e.Value, e.Tool, keys)
}

// UnknownToolError reports a call to a tool that was never registered.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q: available tools: %s", e.Name, strings.Join(e.Available, ", "))
}

// HandlerError wraps a fault raised inside a handler or middleware. It is the
// only error shape produced for panics and unclassified handler failures.
type HandlerError struct {
	Tool   string
	Action string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("[%s/%s] %s", e.Tool, e.Action, e.Err.Error())
}

func (e *HandlerError) Unwrap() error { return e.Err }

// CancelledError reports a call abandoned before or during dispatch because
// its context fired. Cause carries context.Cause when one was set.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause != nil && !errors.Is(e.Cause, context.Canceled) {
		return fmt.Sprintf("operation cancelled: %s", e.Cause.Error())
	}
	return "operation cancelled"
}

// Is makes errors.Is(err, ErrCancelled) succeed for any CancelledError.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }

// NewCancelled builds a CancelledError from a fired context.
func NewCancelled(ctx context.Context) *CancelledError {
	return &CancelledError{Cause: context.Cause(ctx)}
}
