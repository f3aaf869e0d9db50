// Package persist attaches durable snapshot storage to a store: a backend
// interface with in-memory and file implementations, and a Bind helper that
// hydrates a store on attach and saves every subsequent transition.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrETagMismatch signals an optimistic-concurrency conflict on save.
var ErrETagMismatch = errors.New("persist: etag mismatch")

// Ref identifies one persisted snapshot. Name is the store label; Key
// optionally distinguishes instances of the same store shape (per user,
// per tenant, per environment).
type Ref struct {
	Name string
	Key  string
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "", fmt.Errorf("persist: store name is required")
	}
	key := strings.TrimSpace(r.Key)
	if key == "" {
		return name, nil
	}
	return fmt.Sprintf("%s/%s", name, key), nil
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads and saves one snapshot per reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
