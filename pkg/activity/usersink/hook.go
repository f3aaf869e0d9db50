// Package usersink bridges store activity events into a go-users
// ActivitySink so store transitions land in the same audit stream as user
// actions.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-store/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards store lifecycle events (state.merged, subscriber.added, ...)
// to a go-users ActivitySink. A zero Hook is a no-op.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify converts the event into an ActivityRecord and logs it. Events
// missing a verb or object identity are dropped rather than logged as
// partial records.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	record, ok := buildRecord(activity.NormalizeEvent(event))
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// buildRecord maps a normalized store event onto go-users' record shape.
// Store IDs are strings; anything that is not a UUID collapses to uuid.Nil
// so the sink still accepts the record.
func buildRecord(event activity.Event) (usertypes.ActivityRecord, bool) {
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return usertypes.ActivityRecord{}, false
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return usertypes.ActivityRecord{
		ActorID:    uuidOrNil(event.ActorID),
		UserID:     uuidOrNil(event.UserID),
		TenantID:   uuidOrNil(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       recordData(event),
		OccurredAt: occurredAt,
	}, true
}

// recordData folds the event metadata plus the notification routing fields
// into the record's free-form data map. Returns nil when there is nothing
// to carry.
func recordData(event activity.Event) map[string]any {
	size := len(event.Metadata)
	if event.DefinitionCode != "" {
		size++
	}
	if len(event.Recipients) > 0 {
		size++
	}
	if size == 0 {
		return nil
	}

	data := make(map[string]any, size)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = append([]string{}, event.Recipients...)
	}
	return data
}

func uuidOrNil(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
