package store

import (
	"sync"

	"github.com/goliatone/go-store/shallow"
)

// WatchOption configures a selector watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	immediate bool
}

func applyWatchOptions(opts []WatchOption) watchConfig {
	cfg := watchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WatchImmediate fires the callback once with the current selection at
// registration time, with the same value for both next and prev.
func WatchImmediate() WatchOption {
	return func(cfg *watchConfig) {
		cfg.immediate = true
	}
}

// Watch subscribes fn to changes of the value selector derives from state.
// The callback fires only when the selected value changed by shallow
// equality; the returned handle detaches the watch. This is the boundary a
// UI binding adapter consumes: it subscribes on mount, detaches on unmount,
// and re-renders from the selected value.
func Watch[T, R any](s *Store[T], selector func(T) R, fn func(next, prev R), opts ...WatchOption) func() {
	return WatchWithEquality(s, selector, fn, shallow.Equal[R], opts...)
}

// WatchWithEquality behaves like Watch with a caller-supplied equality
// check deciding whether the selection changed.
func WatchWithEquality[T, R any](s *Store[T], selector func(T) R, fn func(next, prev R), equal func(a, b R) bool, opts ...WatchOption) func() {
	if s == nil || selector == nil || fn == nil {
		return func() {}
	}
	if equal == nil {
		equal = shallow.Equal[R]
	}
	cfg := applyWatchOptions(opts)

	var mu sync.Mutex
	last := selector(s.GetState())
	if cfg.immediate {
		fn(last, last)
	}

	return s.Subscribe(func(next, _ T) {
		selected := selector(next)
		mu.Lock()
		if equal(selected, last) {
			mu.Unlock()
			return
		}
		previous := last
		last = selected
		mu.Unlock()
		fn(selected, previous)
	})
}
