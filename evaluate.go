package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-store/shallow"
)

// ErrNoEvaluator indicates no expression evaluator could be resolved.
var ErrNoEvaluator = errors.New("store: evaluator not configured")

// Evaluate executes expr against the current state using the configured
// evaluator and wraps the result.
func (s *Store[T]) Evaluate(expr string) (Response[any], error) {
	return s.EvaluateWith(EvalContext{}, expr)
}

// EvaluateWith executes expr using ctx, falling back to the current state
// when ctx.State is nil.
func (s *Store[T]) EvaluateWith(ctx EvalContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("store: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if ctx.State == nil {
		ctx.State = s.GetState()
	}
	if ctx.Store == "" {
		ctx.Store = s.cfg.name
	}
	ctx = ctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.storeLabel(), evalErr)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Store:    ctx.storeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return Response[any]{}, evalErr
	}
	return Response[any]{Value: value}, nil
}

// WatchExpr compiles expression and re-evaluates it on every transition,
// invoking fn with (next, prev) results whenever the result changed by
// shallow equality. Evaluation faults after registration are reported to the
// evaluator logger and skipped. The returned handle detaches the watch.
func (s *Store[T]) WatchExpr(expression string, fn func(next, prev any)) (func(), error) {
	if expression == "" {
		return nil, fmt.Errorf("store: expression must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("store: watch callback is required")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}

	engine := evaluatorEngineName(evaluator)
	evaluate := func(state, prev any) (any, error) {
		ctx := EvalContext{State: state, Prev: prev, Store: s.cfg.name}.withDefaults()
		start := time.Now()
		value, evalErr := rule.Evaluate(ctx)
		duration := time.Since(start)
		evalErr = wrapEvaluationError(engine, expression, ctx.storeLabel(), evalErr)
		s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Store:    ctx.storeLabel(),
			Duration: duration,
			Err:      evalErr,
		})
		return value, evalErr
	}

	last, err := evaluate(s.GetState(), nil)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	return s.Subscribe(func(next, prev T) {
		result, err := evaluate(next, prev)
		if err != nil {
			return
		}
		mu.Lock()
		if shallow.Equal(result, last) {
			mu.Unlock()
			return
		}
		previous := last
		last = result
		mu.Unlock()
		fn(result, previous)
	}), nil
}

func (s *Store[T]) resolveEvaluator() (Evaluator, error) {
	evaluator := s.evaluator()
	if evaluator != nil {
		return evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := s.programCache(); cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := s.functionRegistry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.withEvaluator(defaultEvaluator)
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*store.exprEvaluator":
		return "expr"
	case "*store.celEvaluator":
		return "cel"
	case "*store.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// bindingValue normalizes a state snapshot for expression environments:
// maps bind as-is, anything else is reduced to its JSON form so every engine
// sees the same key/value shape regardless of the Go state type.
func bindingValue(value any) any {
	switch value.(type) {
	case nil, map[string]any, []any, string, bool, float64, int, int64:
		return value
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var normalized any
	if err := json.Unmarshal(payload, &normalized); err != nil {
		return value
	}
	return normalized
}

func snapshotAsMap(value any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	if m, ok := value.(map[string]any); ok {
		return m
	}
	if m, ok := bindingValue(value).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
