package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-store/pkg/activity"
	"github.com/goliatone/go-store/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := activity.Event{
		Verb:           "state.merged",
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		ObjectType:     "store.state",
		ObjectID:       "session",
		Channel:        "store",
		DefinitionCode: "store:state.merged",
		Recipients:     []string{"recipient@example.com"},
		Metadata: map[string]any{
			"store_name": "session",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != "state.merged" || record.ObjectType != "store.state" || record.ObjectID != "session" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "store" {
		t.Fatalf("expected channel store got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "store:state.merged" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["store_name"] != "session" {
		t.Fatalf("expected metadata passthrough got %v", record.Data["store_name"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "recipient@example.com" {
		t.Fatalf("expected recipients in data, got %v", record.Data["recipients"])
	}
}

func TestHookNotifyInvalidIDsFallBackToNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	event := activity.Event{
		Verb:       "state.replaced",
		ActorID:    "not-a-uuid",
		ObjectType: "store.state",
		ObjectID:   "session",
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil || record.UserID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected nil uuids for unparseable ids, got %+v", record)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: "create"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected incomplete event skipped, got %d records", len(sink.records))
	}
}

func TestHookNotifyNilSink(t *testing.T) {
	hook := usersink.Hook{}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "create", ObjectType: "store", ObjectID: "x"}); err != nil {
		t.Fatalf("expected nil error without sink, got %v", err)
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	sinkErr := errors.New("sink down")
	sink := &recordingSink{err: sinkErr}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{Verb: "create", ObjectType: "store", ObjectID: "x"})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
