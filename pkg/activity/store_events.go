package activity

import (
	"strings"
	"time"
)

// StoreEventInput describes the common fields for store lifecycle events.
type StoreEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	StoreName      string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Seq            uint64
	OldValue       any
	NewValue       any
	Subscribers    int
	OccurredAt     time.Time
}

// BuildStoreCreatedEvent constructs a normalized event for store creation.
func BuildStoreCreatedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.created", "store", input)
}

// BuildStateMergedEvent constructs an event for a merge-mode transition.
func BuildStateMergedEvent(input StoreEventInput) Event {
	return buildStoreEvent("state.merged", "store.state", input)
}

// BuildStateReplacedEvent constructs an event for a replace-mode transition.
func BuildStateReplacedEvent(input StoreEventInput) Event {
	return buildStoreEvent("state.replaced", "store.state", input)
}

// BuildSubscriberAddedEvent constructs an event for listener registration.
func BuildSubscriberAddedEvent(input StoreEventInput) Event {
	return buildStoreEvent("subscriber.added", "store.subscriber", input)
}

// BuildSubscriberRemovedEvent constructs an event for listener removal.
func BuildSubscriberRemovedEvent(input StoreEventInput) Event {
	return buildStoreEvent("subscriber.removed", "store.subscriber", input)
}

func buildStoreEvent(verb, objectType string, input StoreEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.StoreName != "" {
		metadata = ensureMetadata(metadata)
		metadata["store_name"] = input.StoreName
	}
	if input.Seq > 0 {
		metadata = ensureMetadata(metadata)
		metadata["seq"] = input.Seq
	}
	if input.Subscribers > 0 {
		metadata = ensureMetadata(metadata)
		metadata["subscribers"] = input.Subscribers
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.StoreName)
	if objectID == "" {
		objectID = "store"
	}

	return Event{
		Verb:           verb,
		ActorID:        input.ActorID,
		UserID:         input.UserID,
		TenantID:       input.TenantID,
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        input.Channel,
		DefinitionCode: input.DefinitionCode,
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
