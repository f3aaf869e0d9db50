package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " create ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " store ",
		ObjectID:       " cursor ",
		Channel:        " store ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "create" || got.ObjectType != "store" || got.ObjectID != "cursor" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "store" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Metadata["k"] != "v" {
		t.Fatalf("expected metadata value preserved: %+v", got.Metadata)
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	err := hooks.Notify(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events()))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom1") }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom2") }),
	}

	err := hooks.Notify(nil, Event{Verb: "update", ObjectType: "store", ObjectID: "cursor"})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	message := err.Error()
	if !strings.Contains(message, "boom1") || !strings.Contains(message, "boom2") {
		t.Fatalf("expected both failures joined, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events()))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: "create", ObjectType: "store", ObjectID: "cursor"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events for disabled emitter, got %d", len(capture.Events()))
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: "create", ObjectType: "store", ObjectID: "cursor"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected one captured event, got %d", len(capture.Events()))
	}
}

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	if err := emitter.Emit(context.Background(), Event{Verb: "create", ObjectType: "store", ObjectID: "cursor"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got := capture.Events()[0].Channel; got != "store" {
		t.Fatalf("expected default channel, got %q", got)
	}

	custom := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "commerce"})
	if err := custom.Emit(context.Background(), Event{Verb: "create", ObjectType: "store", ObjectID: "cursor"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got := capture.Events()[1].Channel; got != "commerce" {
		t.Fatalf("expected configured channel, got %q", got)
	}

	explicit := Event{Verb: "create", ObjectType: "store", ObjectID: "cursor", Channel: "audit"}
	if err := custom.Emit(context.Background(), explicit); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got := capture.Events()[2].Channel; got != "audit" {
		t.Fatalf("expected explicit channel preserved, got %q", got)
	}
}

func TestCaptureHookBuffersAndResets(t *testing.T) {
	capture := &CaptureHook{Err: errors.New("sink down")}

	if err := capture.Notify(context.Background(), Event{Verb: "state.merged", ObjectType: "store", ObjectID: "cursor"}); err == nil {
		t.Fatalf("expected configured error returned")
	}
	_ = capture.Notify(context.Background(), Event{Verb: "state.replaced", ObjectType: "store", ObjectID: "cursor"})

	verbs := capture.Verbs()
	if len(verbs) != 2 || verbs[0] != "state.merged" || verbs[1] != "state.replaced" {
		t.Fatalf("unexpected verbs: %v", verbs)
	}

	events := capture.Events()
	events[0].Verb = "mutated"
	if capture.Verbs()[0] != "state.merged" {
		t.Fatalf("expected Events to return a copy")
	}

	capture.Reset()
	if len(capture.Events()) != 0 {
		t.Fatalf("expected buffer cleared after Reset")
	}
}

func TestEmitterWithoutHooksDisabled(t *testing.T) {
	emitter := NewEmitter(nil, Config{Enabled: true})
	if emitter.Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
}
