package pergola

import (
	"fmt"

	"github.com/aretw0/pergola/pkg/domain"
)

// DefaultDiscriminator is the argument field that selects which action of a
// tool to invoke, unless the tool overrides it.
const DefaultDiscriminator = "action"

// Action is a named, independently invocable operation within a Tool.
//
// Key is immutable once registered. Shape is the optional argument schema in
// whatever form the engine's validator accepts (schema.Schema for the native
// validator); a nil Shape passes arguments through unchanged. Destructive
// actions are routed through the mutation serializer; ReadOnly is advisory
// metadata for transports.
type Action struct {
	Key         string
	Description string
	Shape       any
	Handler     Handler
	Middleware  []Middleware
	Destructive bool
	ReadOnly    bool

	// MutexKey overrides the serialization key for destructive actions.
	// Defaults to "tool.key", so all calls to the same action serialize;
	// set a shared key to serialize across actions touching one resource.
	MutexKey string
}

// mutexKeyFor resolves the serialization key for this action within a tool.
func (a *Action) mutexKeyFor(tool string) string {
	if a.MutexKey != "" {
		return a.MutexKey
	}
	return tool + "." + a.Key
}

// Tool is a named group of actions sharing a discriminator field and
// tool-scoped middleware. Build one with NewTool, then attach actions with
// Action and middleware with Use. Tools are mutable until registered with an
// Engine that has served its first call; after that the table is frozen.
type Tool struct {
	name          string
	description   string
	discriminator string
	use           []Middleware
	actions       []*Action
	index         map[string]*Action
}

// ToolOption configures a Tool at construction.
type ToolOption func(*Tool)

// WithDiscriminator overrides the action-selector field (default "action").
func WithDiscriminator(field string) ToolOption {
	return func(t *Tool) {
		t.discriminator = field
	}
}

// NewTool creates an empty tool definition.
func NewTool(name, description string, opts ...ToolOption) *Tool {
	t := &Tool{
		name:          name,
		description:   description,
		discriminator: DefaultDiscriminator,
		index:         make(map[string]*Action),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Use appends tool-scoped middleware. It runs after engine-global middleware
// and before action-scoped middleware, in registration order.
func (t *Tool) Use(mw ...Middleware) *Tool {
	t.use = append(t.use, mw...)
	return t
}

// Action registers an action. Duplicate keys, empty keys and nil handlers
// are programmer errors and panic immediately rather than surfacing at call
// time.
func (t *Tool) Action(a Action) *Tool {
	if a.Key == "" {
		panic(fmt.Sprintf("pergola: tool %q: action key must not be empty", t.name))
	}
	if a.Handler == nil {
		panic(fmt.Sprintf("pergola: tool %q: action %q has no handler", t.name, a.Key))
	}
	if _, exists := t.index[a.Key]; exists {
		panic(fmt.Sprintf("pergola: tool %q: duplicate action key %q", t.name, a.Key))
	}
	copied := a
	t.actions = append(t.actions, &copied)
	t.index[a.Key] = &copied
	return t
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Description returns the tool description.
func (t *Tool) Description() string { return t.description }

// Discriminator returns the action-selector field name.
func (t *Tool) Discriminator() string { return t.discriminator }

// Keys returns the action keys in registration order.
func (t *Tool) Keys() []string {
	keys := make([]string, len(t.actions))
	for i, a := range t.actions {
		keys[i] = a.Key
	}
	return keys
}

// Info returns the introspection view of the tool.
func (t *Tool) Info() domain.ToolInfo {
	info := domain.ToolInfo{
		Name:          t.name,
		Description:   t.description,
		Discriminator: t.discriminator,
		Actions:       make([]domain.ActionInfo, len(t.actions)),
	}
	for i, a := range t.actions {
		info.Actions[i] = domain.ActionInfo{
			Key:         a.Key,
			Description: a.Description,
			Destructive: a.Destructive,
			ReadOnly:    a.ReadOnly,
		}
	}
	return info
}

// resolve finds the action selected by the discriminator field in raw.
func (t *Tool) resolve(raw map[string]any) (*Action, error) {
	value, _ := raw[t.discriminator].(string)
	if value == "" {
		return nil, &domain.RoutingError{
			Tool:      t.name,
			Field:     t.discriminator,
			Available: t.Keys(),
		}
	}
	a, ok := t.index[value]
	if !ok {
		return nil, &domain.RoutingError{
			Tool:      t.name,
			Field:     t.discriminator,
			Value:     value,
			Available: t.Keys(),
		}
	}
	return a, nil
}
