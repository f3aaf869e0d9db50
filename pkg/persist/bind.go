package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	store "github.com/goliatone/go-store"
)

// BindOption configures a Bind call.
type BindOption func(*bindConfig)

type bindConfig struct {
	hydrate bool
	onError func(error)
}

// WithoutHydration skips loading the persisted snapshot into the store when
// binding; only subsequent transitions are saved.
func WithoutHydration() BindOption {
	return func(cfg *bindConfig) {
		cfg.hydrate = false
	}
}

// WithSaveErrorHandler receives save failures, which otherwise go
// unreported since transitions are synchronous and cannot fail.
func WithSaveErrorHandler(fn func(error)) BindOption {
	return func(cfg *bindConfig) {
		if fn != nil {
			cfg.onError = fn
		}
	}
}

// Bind attaches backend persistence to s. When a snapshot exists for ref it
// is loaded into the store in replace mode, then every changed transition
// is saved back. The returned detach function stops persisting; it does not
// delete the stored snapshot.
func Bind[T any](ctx context.Context, s *store.Store[T], backend Store[T], ref Ref, opts ...BindOption) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("persist: store is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("persist: backend is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, err
	}

	cfg := bindConfig{hydrate: true, onError: func(error) {}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var mu sync.Mutex
	var lastMeta Meta

	if cfg.hydrate {
		snapshot, meta, ok, err := backend.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("persist: load %q: %w", ref.Name, err)
		}
		if ok {
			lastMeta = meta
			s.Replace(snapshot)
		}
	}

	unsubscribe := s.Subscribe(func(next, _ T) {
		mu.Lock()
		meta := Meta{
			SnapshotID: uuid.NewString(),
			ETag:       lastMeta.ETag,
			UpdatedAt:  time.Now(),
		}
		mu.Unlock()

		saved, err := backend.Save(ctx, ref, next, meta)
		if err != nil {
			cfg.onError(fmt.Errorf("persist: save %q: %w", ref.Name, err))
			return
		}
		mu.Lock()
		lastMeta = saved
		mu.Unlock()
	})

	return unsubscribe, nil
}
