package store

import (
	"context"

	"github.com/goliatone/go-store/pkg/activity"
)

// WithActivityEmitter attaches a configured emitter; lifecycle events
// (store.created, state.merged, state.replaced, subscriber.added/removed)
// flow through it.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *config) {
		cfg.emitter = emitter
	}
}

// WithActivityHooks is a convenience wrapper that builds an enabled emitter
// around hooks with default configuration.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *config) {
		cfg.emitter = activity.NewEmitter(hooks, activity.Config{Enabled: true})
	}
}

func (s *Store[T]) emitCreated() {
	s.emitEvent(func() activity.Event {
		return activity.BuildStoreCreatedEvent(activity.StoreEventInput{
			StoreName: s.cfg.name,
			NewValue:  s.GetState(),
		})
	})
}

func (s *Store[T]) emitChanged(mode Mode, seq uint64, prev, next T) {
	s.emitEvent(func() activity.Event {
		input := activity.StoreEventInput{
			StoreName: s.cfg.name,
			Seq:       seq,
			OldValue:  prev,
			NewValue:  next,
		}
		if mode == ModeReplace {
			return activity.BuildStateReplacedEvent(input)
		}
		return activity.BuildStateMergedEvent(input)
	})
}

func (s *Store[T]) emitSubscriber(added bool, count int) {
	s.emitEvent(func() activity.Event {
		input := activity.StoreEventInput{
			StoreName:   s.cfg.name,
			Subscribers: count,
		}
		if added {
			return activity.BuildSubscriberAddedEvent(input)
		}
		return activity.BuildSubscriberRemovedEvent(input)
	})
}

func (s *Store[T]) emitEvent(build func() activity.Event) {
	emitter := s.cfg.emitter
	if !emitter.Enabled() {
		return
	}
	if err := emitter.Emit(context.Background(), build()); err != nil {
		s.dispatchLogger().LogDispatch(DispatchEvent{
			Store: s.cfg.name,
			Err:   err,
		})
	}
}
