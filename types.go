package store

import (
	"time"

	"github.com/goliatone/go-store/pkg/activity"
)

// Listener receives state transitions as (next, prev) pairs.
type Listener[T any] func(next, prev T)

// Initializer builds the initial state with access to the store API, so the
// initial value can close over set/get for later use.
type Initializer[T any] func(set func(T), get func() T, api *Store[T]) T

// Mode identifies how a transition computed its next state.
type Mode string

const (
	// ModeMerge overlays the update onto the current state one level deep.
	ModeMerge Mode = "merge"
	// ModeReplace supersedes the current state with the update wholesale.
	ModeReplace Mode = "replace"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// EvalContext carries the bindings available to a watch expression.
type EvalContext struct {
	State    any
	Prev     any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Store    string
}

func (ctx EvalContext) withDefaultNow() EvalContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx EvalContext) withDefaultMaps() EvalContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) withDefaults() EvalContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx EvalContext) storeLabel() string {
	if ctx.Store != "" {
		return ctx.Store
	}
	return "store"
}

// Evaluator executes expressions against an evaluation context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a store at construction time.
type Option func(*config)

type config struct {
	name            string
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	dispatchLogger  DispatchLogger
	schemaGenerator SchemaGenerator
	journalCapacity int
	emitter         *activity.Emitter
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithName labels the store. The name appears in activity events, persisted
// payloads, and evaluator scope labels.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithEvaluator configures the expression evaluator used by Evaluate and
// WatchExpr.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *config) {
		cfg.schemaGenerator = generator
	}
}

// WithJournal enables the transition journal, retaining at most capacity
// entries. Non-positive capacity keeps every transition.
func WithJournal(capacity int) Option {
	return func(cfg *config) {
		if capacity <= 0 {
			capacity = -1
		}
		cfg.journalCapacity = capacity
	}
}

// SetOption configures a single SetState or Update call.
type SetOption func(*setConfig)

type setConfig struct {
	replace bool
}

func applySetOptions(opts []SetOption) setConfig {
	cfg := setConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithReplace forces replace mode: the update supersedes the current state
// entirely, bypassing the shallow overlay.
func WithReplace() SetOption {
	return func(cfg *setConfig) {
		cfg.replace = true
	}
}
