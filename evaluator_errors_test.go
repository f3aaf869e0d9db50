package store

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "state.hits > 2", "session", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "state.hits > 2" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Store != "session" {
		t.Fatalf("expected store metadata, got %q", evalErr.Store)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "counter", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Store != "counter" {
		t.Fatalf("store should be filled, got %q", existing.Store)
	}
}

func TestWrapEvaluationErrorNil(t *testing.T) {
	if err := wrapEvaluationError("expr", "rule", "session", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEvaluationErrorMessage(t *testing.T) {
	err := &EvaluationError{
		Engine: "expr",
		Expr:   "state.hits",
		Store:  "session",
		Err:    errors.New("boom"),
	}
	message := err.Error()
	for _, fragment := range []string{"store:", "expr", `"state.hits"`, "session", "boom"} {
		if !strings.Contains(message, fragment) {
			t.Fatalf("expected %q in message %q", fragment, message)
		}
	}

	empty := &EvaluationError{Engine: "expr", Err: errors.New("boom")}
	if !strings.Contains(empty.Error(), "expr=<empty>") {
		t.Fatalf("expected empty-expression marker, got %q", empty.Error())
	}
}

func TestWrapEvaluatorErrorPassthrough(t *testing.T) {
	if err := wrapEvaluatorError("expr", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	prefixed := errors.New("store: already labelled")
	if got := wrapEvaluatorError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error untouched, got %v", got)
	}

	plain := errors.New("boom")
	got := wrapEvaluatorError("cel", plain)
	if !errors.Is(got, plain) {
		t.Fatalf("expected wrapping to preserve the cause")
	}
	if !strings.Contains(got.Error(), "cel evaluator") {
		t.Fatalf("expected engine in message, got %q", got.Error())
	}
}
