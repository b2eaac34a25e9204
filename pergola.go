package pergola

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/pergola/internal/logging"
	"github.com/aretw0/pergola/pkg/domain"
	"github.com/aretw0/pergola/pkg/mutex"
	"github.com/aretw0/pergola/pkg/ports"
	"github.com/aretw0/pergola/pkg/schema"
)

// Engine routes structured tool calls to registered action handlers.
//
// Registration happens at startup via Register; the action table freezes on
// the first Execute call and never changes during live traffic. Compiled
// middleware chains and the table itself are read-only after the freeze, so
// Execute is safe for unbounded concurrent use.
type Engine struct {
	logger    *slog.Logger
	validator ports.ArgumentValidator
	locker    ports.DistributedLocker
	hooks     domain.CallHooks
	use       []Middleware // engine-global middleware, outermost first

	mu    sync.Mutex
	tools map[string]*Tool
	order []string

	frozen     atomic.Bool
	freezeOnce sync.Once
	compiled   map[string]map[string]Handler
	serializer *mutex.Serializer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithValidator overrides the argument validator (default: pkg/schema).
func WithValidator(v ports.ArgumentValidator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithLocker attaches a distributed locker to the mutation serializer so
// destructive actions are also guarded across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithHooks registers observability callbacks fired around each call.
func WithHooks(hooks domain.CallHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMiddleware appends engine-global middleware. It wraps every action of
// every tool, outermost, in registration order.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) {
		e.use = append(e.use, mw...)
	}
}

// New creates an Engine with no tools registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    logging.NewNop(),
		validator: schema.NewValidator(),
		tools:     make(map[string]*Tool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a tool to the action table. Registering after the first
// Execute call is a programmer error and panics; duplicate tool names and
// tools without actions are reported as errors.
func (e *Engine) Register(t *Tool) error {
	if e.frozen.Load() {
		panic(fmt.Sprintf("pergola: cannot register tool %q: %v", t.name, domain.ErrFrozen))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(t.actions) == 0 {
		return fmt.Errorf("tool %q has no actions", t.name)
	}
	if _, exists := e.tools[t.name]; exists {
		return fmt.Errorf("tool %q is already registered", t.name)
	}
	e.tools[t.name] = t
	e.order = append(e.order, t.name)
	return nil
}

// MustRegister is Register that panics on error. Intended for startup wiring.
func (e *Engine) MustRegister(t *Tool) {
	if err := e.Register(t); err != nil {
		panic("pergola: " + err.Error())
	}
}

// Tools returns the introspection view of all registered tools, in
// registration order.
func (e *Engine) Tools() []domain.ToolInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	infos := make([]domain.ToolInfo, 0, len(e.order))
	for _, name := range e.order {
		infos = append(infos, e.tools[name].Info())
	}
	return infos
}

// freeze compiles every action's middleware chain exactly once and builds
// the mutation serializer if any action needs it. Runs under freezeOnce on
// the first Execute; afterwards the hot path only indexes precomputed maps.
func (e *Engine) freeze() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.compiled = make(map[string]map[string]Handler, len(e.tools))
	destructive := false

	for name, t := range e.tools {
		chains := make(map[string]Handler, len(t.actions))
		for _, a := range t.actions {
			// Final call order: global -> tool -> action -> handler.
			mws := make([]Middleware, 0, len(e.use)+len(t.use)+len(a.Middleware))
			mws = append(mws, e.use...)
			mws = append(mws, t.use...)
			mws = append(mws, a.Middleware...)
			chains[a.Key] = compose(a.Handler, mws...)

			if a.Destructive {
				destructive = true
			}
		}
		e.compiled[name] = chains
	}

	// True zero overhead: no serializer exists unless some action needs it.
	if destructive {
		e.serializer = mutex.New(
			mutex.WithLogger(e.logger),
			serializerLocker(e.locker),
		)
	}

	e.frozen.Store(true)
	e.logger.Debug("action table frozen",
		"tools", len(e.tools),
		"serializer", destructive,
	)
}

// serializerLocker adapts an optional locker into a mutex option.
func serializerLocker(locker ports.DistributedLocker) mutex.Option {
	if locker == nil {
		return func(*mutex.Serializer) {}
	}
	return mutex.WithLocker(locker)
}

// Serializer exposes the mutation serializer for tests and adapters.
// Returns nil before the freeze or when no action is destructive.
func (e *Engine) Serializer() *mutex.Serializer {
	return e.serializer
}

func (e *Engine) toolNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...)
}
