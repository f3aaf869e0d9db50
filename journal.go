package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-store/shallow"
)

// Transition records one committed state change.
type Transition struct {
	ID   string    `json:"id"`
	Seq  uint64    `json:"seq"`
	Mode Mode      `json:"mode"`
	Prev any       `json:"prev,omitempty"`
	Next any       `json:"next"`
	At   time.Time `json:"at"`
}

// Journal retains a bounded window of committed transitions for debugging
// and audit tooling. No-op transitions are never recorded.
type Journal struct {
	mu       sync.Mutex
	capacity int
	entries  []Transition
}

func newJournal(capacity int) *Journal {
	return &Journal{capacity: capacity}
}

// record clones both sides of the transition so later mutation of a shared
// reference cannot rewrite history.
func (j *Journal) record(seq uint64, mode Mode, prev, next any) {
	entry := Transition{
		ID:   uuid.NewString(),
		Seq:  seq,
		Mode: mode,
		Prev: shallow.Clone(prev),
		Next: shallow.Clone(next),
		At:   time.Now(),
	}
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	if j.capacity > 0 && len(j.entries) > j.capacity {
		j.entries = j.entries[len(j.entries)-j.capacity:]
	}
	j.mu.Unlock()
}

// Entries returns a copy of the retained transitions, oldest first.
func (j *Journal) Entries() []Transition {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Transition, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len reports the number of retained transitions.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// ToJSON serialises the retained transitions for logging or transport.
func (j *Journal) ToJSON() ([]byte, error) {
	return json.Marshal(j.Entries())
}

// JournalFromJSON deserialises a payload previously generated via ToJSON.
func JournalFromJSON(payload []byte) ([]Transition, error) {
	var entries []Transition
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
