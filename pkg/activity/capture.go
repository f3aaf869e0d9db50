package activity

import (
	"context"
	"sync"
)

// CaptureHook buffers the events a store emits so tests can assert on the
// lifecycle stream (store.created, state.merged, subscriber.removed, ...)
// without standing up a real sink.
type CaptureHook struct {
	// Err, when set, is returned from every Notify so callers can exercise
	// their emit-failure paths.
	Err error

	mu     sync.Mutex
	events []Event
}

// Notify buffers the normalized event and returns the configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, NormalizeEvent(event))
	return h.Err
}

// Events returns a copy of the captured events in emission order.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Verbs returns the verb of each captured event, in emission order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.events))
	for i, event := range h.events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Reset discards everything captured so far.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
