package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation intended for tests and
// single-process use. It uses Ref.Identifier() as its deterministic key and
// enforces the same ETag match-on-save contract as the file store.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.snapshot, cloneMeta(record.meta), true, nil
}

// Save stores the snapshot after checking the caller's ETag against the
// stored one. A fresh ETag is minted on every successful save.
func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok {
		if err := checkETag(meta, existing.meta); err != nil {
			return Meta{}, err
		}
	}
	saved := cloneMeta(meta)
	saved.ETag = uuid.NewString()
	s.records[key] = memoryRecord[T]{snapshot: snapshot, meta: saved}
	return cloneMeta(saved), nil
}

// checkETag enforces optimistic concurrency on save: when the caller and
// the stored record both carry an ETag, they must agree. An empty ETag on
// either side skips the check, so blind writes stay possible.
func checkETag(incoming, stored Meta) error {
	if incoming.ETag == "" || stored.ETag == "" {
		return nil
	}
	if incoming.ETag != stored.ETag {
		return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, incoming.ETag, stored.ETag)
	}
	return nil
}
