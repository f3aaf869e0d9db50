package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/goliatone/go-store/internal/hydrate"
)

// FileStore persists one snapshot file per reference under a base
// directory. Writes go through a temp file and rename so concurrent readers
// never observe a torn snapshot.
type FileStore[T any] struct {
	dir     string
	codec   Codec
	decoder *hydrate.Decoder[T]
	mu      sync.Mutex
}

// FileStoreOption configures a FileStore.
type FileStoreOption[T any] func(*FileStore[T])

// FileWithCodec selects the snapshot codec. JSON is the default.
func FileWithCodec[T any](codec Codec) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// FileWithDecoder installs a hydrate decoder used for object-shaped
// snapshots, enabling pre/post hooks during rehydration.
func FileWithDecoder[T any](decoder *hydrate.Decoder[T]) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		s.decoder = decoder
	}
}

// NewFileStore constructs a file-backed Store rooted at dir.
func NewFileStore[T any](dir string, opts ...FileStoreOption[T]) *FileStore[T] {
	s := &FileStore[T]{
		dir:   dir,
		codec: JSONCodec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type envelope struct {
	Meta  Meta `json:"meta" yaml:"meta"`
	State any  `json:"state" yaml:"state"`
}

func (s *FileStore[T]) path(ref Ref) (string, error) {
	id, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(id)) + s.codec.Extension(), nil
}

func (s *FileStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	path, err := s.path(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, Meta{}, false, nil
		}
		return zero, Meta{}, false, fmt.Errorf("persist: read %q: %w", path, err)
	}

	var env envelope
	if err := s.codec.Unmarshal(payload, &env); err != nil {
		return zero, Meta{}, false, fmt.Errorf("persist: decode %q: %w", path, err)
	}

	snapshot, err := s.decodeState(ref, env.State)
	if err != nil {
		return zero, Meta{}, false, err
	}
	return snapshot, cloneMeta(env.Meta), true, nil
}

// Save writes the snapshot after checking the caller's ETag against the
// one on disk. A fresh ETag is minted on every successful save.
func (s *FileStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	path, err := s.path(ref)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok, err := s.readMeta(path)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if err := checkETag(meta, stored); err != nil {
			return Meta{}, err
		}
	}

	saved := cloneMeta(meta)
	if saved.SnapshotID == "" {
		saved.SnapshotID = uuid.NewString()
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now()
	}
	saved.ETag = uuid.NewString()

	payload, err := s.codec.Marshal(envelope{Meta: saved, State: snapshot})
	if err != nil {
		return Meta{}, fmt.Errorf("persist: encode %q: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Meta{}, fmt.Errorf("persist: mkdir for %q: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return Meta{}, fmt.Errorf("persist: write %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Meta{}, fmt.Errorf("persist: commit %q: %w", path, err)
	}
	return cloneMeta(saved), nil
}

// readMeta loads only the metadata of the snapshot at path, reporting
// whether a snapshot exists.
func (s *FileStore[T]) readMeta(path string) (Meta, bool, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, false, nil
		}
		return Meta{}, false, fmt.Errorf("persist: read %q: %w", path, err)
	}
	var env envelope
	if err := s.codec.Unmarshal(payload, &env); err != nil {
		return Meta{}, false, fmt.Errorf("persist: decode %q: %w", path, err)
	}
	return env.Meta, true, nil
}

// decodeState converts the codec's generic representation back into T.
// Object-shaped payloads run through the hydrate decoder so callers can
// attach normalisation hooks; anything else takes a plain JSON round trip.
func (s *FileStore[T]) decodeState(ref Ref, raw any) (T, error) {
	var zero T
	hctx := hydrate.Context{Store: ref.Name, Key: ref.Key}

	if payload, ok := raw.(map[string]any); ok {
		decoder := s.decoder
		if decoder == nil {
			decoder = hydrate.NewDecoder[T]()
		}
		snapshot, err := decoder.Decode(hctx, payload)
		if err != nil {
			return zero, fmt.Errorf("persist: hydrate %q: %w", ref.Name, err)
		}
		return snapshot, nil
	}

	buffer, err := json.Marshal(raw)
	if err != nil {
		return zero, fmt.Errorf("persist: normalise %q: %w", ref.Name, err)
	}
	var snapshot T
	if err := json.Unmarshal(buffer, &snapshot); err != nil {
		return zero, fmt.Errorf("persist: decode state %q: %w", ref.Name, err)
	}
	return snapshot, nil
}

// Watch invokes onChange whenever the snapshot file for ref is written by
// an external process. The returned stop function releases the watcher.
func (s *FileStore[T]) Watch(ref Ref, onChange func(Ref)) (func(), error) {
	if onChange == nil {
		return nil, fmt.Errorf("persist: watch callback is required")
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("persist: watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("persist: mkdir for %q: %w", path, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("persist: watch %q: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				onChange(ref)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			watcher.Close()
		})
	}, nil
}
