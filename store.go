// Package store implements a generic observable state container. A Store
// owns exactly one typed state value; all mutation flows through SetState,
// Update, or Replace, and every changed transition notifies subscribers
// synchronously in registration order with the (next, prev) pair.
package store

import (
	"sync"

	"github.com/goliatone/go-store/shallow"
)

// Store owns a single current state value and its subscriber list.
type Store[T any] struct {
	mu      sync.RWMutex
	value   T
	initial T
	seq     uint64
	subs    []*subscription[T]
	journal *Journal

	cfg config
}

type subscription[T any] struct {
	fn      Listener[T]
	removed bool
	mu      sync.Mutex
}

func (s *subscription[T]) markRemoved() {
	s.mu.Lock()
	s.removed = true
	s.mu.Unlock()
}

func (s *subscription[T]) isRemoved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// New constructs a store holding initial. The initial value is cloned so
// GetInitialState stays stable even when the caller later mutates shared
// references.
func New[T any](initial T, opts ...Option) *Store[T] {
	s := newStore[T](opts)
	s.value = initial
	s.initial = shallow.Clone(initial)
	s.emitCreated()
	return s
}

// NewFromInit constructs a store whose initializer receives (set, get, api)
// and returns the initial state. Set calls made inside the initializer
// operate on the zero value and are superseded by the returned state.
func NewFromInit[T any](init Initializer[T], opts ...Option) *Store[T] {
	s := newStore[T](opts)
	if init != nil {
		set := func(update T) { s.SetState(update) }
		get := func() T { return s.GetState() }
		value := init(set, get, s)
		s.mu.Lock()
		s.value = value
		s.initial = shallow.Clone(value)
		s.mu.Unlock()
	}
	s.emitCreated()
	return s
}

func newStore[T any](opts []Option) *Store[T] {
	s := &Store[T]{cfg: applyOptions(opts)}
	if s.cfg.journalCapacity != 0 {
		s.journal = newJournal(s.cfg.journalCapacity)
	}
	return s
}

// Name returns the label configured via WithName.
func (s *Store[T]) Name() string {
	return s.cfg.name
}

// GetState returns the current state. The value is returned as-is; callers
// must not mutate shared references and should route changes through
// SetState instead.
func (s *Store[T]) GetState() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// GetInitialState returns the state the store was created with.
func (s *Store[T]) GetInitialState() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initial
}

// SetState computes the next state from update. When the state shape is
// composable (struct or map) the update is shallow-merged onto the current
// state: populated top-level fields win, absent ones are retained. For any
// other shape, or when WithReplace is supplied, the update becomes the next
// state exactly. A next state shallow-equal to the current one is a no-op.
func (s *Store[T]) SetState(update T, opts ...SetOption) {
	cfg := applySetOptions(opts)
	s.apply(update, cfg.replace)
}

// Replace is shorthand for SetState(next, WithReplace()).
func (s *Store[T]) Replace(next T) {
	s.apply(next, true)
}

// Update applies fn to the current state and routes the result through the
// same merge-or-replace path as SetState.
func (s *Store[T]) Update(fn func(T) T, opts ...SetOption) {
	if fn == nil {
		return
	}
	cfg := applySetOptions(opts)
	s.mu.RLock()
	current := s.value
	s.mu.RUnlock()
	s.apply(fn(current), cfg.replace)
}

func (s *Store[T]) apply(update T, replace bool) {
	s.mu.Lock()
	prev := s.value

	mode := ModeReplace
	next := update
	if !replace && shallow.IsComposable(prev) {
		next = shallow.Merge(prev, update)
		mode = ModeMerge
	}

	if shallow.Equal(next, prev) {
		s.mu.Unlock()
		return
	}

	s.value = next
	s.seq++
	seq := s.seq
	subs := make([]*subscription[T], len(s.subs))
	copy(subs, s.subs)
	if s.journal != nil {
		s.journal.record(seq, mode, prev, next)
	}
	s.mu.Unlock()

	for i, sub := range subs {
		if sub.isRemoved() {
			continue
		}
		s.dispatch(sub, i, seq, next, prev)
	}
	s.emitChanged(mode, seq, prev, next)
}

// dispatch invokes one listener, containing panics so a faulty subscriber
// cannot sever the remaining ones from the store.
func (s *Store[T]) dispatch(sub *subscription[T], index int, seq uint64, next, prev T) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.dispatchLogger().LogDispatch(DispatchEvent{
				Store:      s.cfg.name,
				Seq:        seq,
				Subscriber: index,
				Recovered:  recovered,
			})
		}
	}()
	sub.fn(next, prev)
}

// Subscribe registers fn and returns an idempotent unsubscribe handle.
// Listeners registered during a dispatch are effective from the next
// transition; unsubscribing during a dispatch also suppresses the in-flight
// delivery for that listener.
func (s *Store[T]) Subscribe(fn Listener[T]) func() {
	if fn == nil {
		return func() {}
	}

	sub := &subscription[T]{fn: fn}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	count := len(s.subs)
	s.mu.Unlock()
	s.emitSubscriber(true, count)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.markRemoved()
			s.mu.Lock()
			for i, existing := range s.subs {
				if existing == sub {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
			count := len(s.subs)
			s.mu.Unlock()
			s.emitSubscriber(false, count)
		})
	}
}

// SubscriberCount reports the number of registered listeners.
func (s *Store[T]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Journal returns the transition journal, or nil when WithJournal was not
// configured.
func (s *Store[T]) Journal() *Journal {
	return s.journal
}

func (s *Store[T]) evaluator() Evaluator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.evaluator
}

func (s *Store[T]) withEvaluator(e Evaluator) {
	s.mu.Lock()
	s.cfg.evaluator = e
	s.mu.Unlock()
}

func (s *Store[T]) programCache() ProgramCache {
	return s.cfg.programCache
}

func (s *Store[T]) functionRegistry() *FunctionRegistry {
	return s.cfg.functions
}

func (s *Store[T]) evaluatorLogger() EvaluatorLogger {
	if s.cfg.evalLogger != nil {
		return s.cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}

func (s *Store[T]) dispatchLogger() DispatchLogger {
	if s.cfg.dispatchLogger != nil {
		return s.cfg.dispatchLogger
	}
	return noopDispatchLogger{}
}

func (s *Store[T]) schemaGenerator() SchemaGenerator {
	if s == nil {
		return DefaultSchemaGenerator()
	}
	if s.cfg.schemaGenerator != nil {
		return s.cfg.schemaGenerator
	}
	return DefaultSchemaGenerator()
}
