package store

import (
	"strings"
	"testing"
)

func TestFunctionRegistryRegisterAndCall(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Upper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	// Lookup is case-insensitive.
	result, err := registry.Call("upper", "ada")
	if err != nil {
		t.Fatalf("unexpected call error: %v", err)
	}
	if result != "ADA" {
		t.Fatalf("expected ADA, got %v", result)
	}

	if err := registry.Register("UPPER", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := registry.Register("noop", nil); err == nil {
		t.Fatalf("expected nil function to fail")
	}
}

func TestFunctionRegistryCallUnknown(t *testing.T) {
	registry := NewFunctionRegistry()
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected error for unregistered function")
	}
}

func TestFunctionRegistryCloneIsolated(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("one", func(...any) (any, error) { return 1, nil })

	clone := registry.Clone()
	_ = clone.Register("two", func(...any) (any, error) { return 2, nil })

	if len(registry.Names()) != 1 {
		t.Fatalf("expected original registry unchanged, got %v", registry.Names())
	}
	if len(clone.Names()) != 2 {
		t.Fatalf("expected clone to hold both functions, got %v", clone.Names())
	}
}

func TestFunctionRegistryNamesSorted(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("zulu", func(...any) (any, error) { return nil, nil })
	_ = registry.Register("alpha", func(...any) (any, error) { return nil, nil })

	names := registry.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zulu" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestWithCustomFunctionOption(t *testing.T) {
	s := New(session{User: "ada"}, WithCustomFunction("greet", func(args ...any) (any, error) {
		return "hello " + args[0].(string), nil
	}))

	resp, err := s.Evaluate(`greet(state.user)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Value != "hello ada" {
		t.Fatalf("unexpected result: %v", resp.Value)
	}
}
