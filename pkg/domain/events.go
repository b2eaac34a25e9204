package domain

import (
	"context"
	"time"
)

// ProgressEvent is a transient status update emitted by a long-running
// handler before its final result. Percent is a completion ratio in [0, 100].
// Events are ordered and never persisted.
type ProgressEvent struct {
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// ProgressSink receives progress events in emission order. Sinks are
// fire-and-forget: a sink that blocks slows the handler, but a sink that
// panics never aborts it.
type ProgressSink func(event ProgressEvent)

// CallEvent describes a single tool invocation for observability hooks.
type CallEvent struct {
	CallID   string
	Tool     string
	Action   string
	Err      error         // nil on success; set on End only
	Duration time.Duration // set on End only
}

// CallHooks defines optional callbacks fired by the engine around each call.
// Hooks run synchronously on the calling goroutine; keep them cheap.
type CallHooks struct {
	OnCallStart func(context.Context, *CallEvent)
	OnCallEnd   func(context.Context, *CallEvent)
	OnProgress  func(context.Context, *CallEvent, ProgressEvent)
}

// ToolInfo is the introspection view of a registered tool.
type ToolInfo struct {
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Discriminator string       `json:"discriminator"`
	Actions       []ActionInfo `json:"actions"`
}

// ActionInfo is the introspection view of a single action.
type ActionInfo struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Destructive bool   `json:"destructive,omitempty"`
	ReadOnly    bool   `json:"read_only,omitempty"`
}
