package hydrate

import (
	"fmt"
	"strings"
	"testing"
)

type notificationSettings struct {
	Email      bool     `json:"email"`
	Push       bool     `json:"push"`
	QuietStart string   `json:"quietStart"`
	QuietEnd   string   `json:"quietEnd"`
	Tags       []string `json:"tags"`
}

func quietHoursPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["quietHours"].(string)
	if !ok || value == "" {
		return payload, nil
	}
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid quietHours %q", value)
	}
	payload["quietStart"] = parts[0]
	payload["quietEnd"] = parts[1]
	delete(payload, "quietHours")
	return payload, nil
}

func ensureTagPostHook(_ Context, state *notificationSettings) error {
	if len(state.Tags) == 0 {
		state.Tags = []string{"default"}
	}
	return nil
}

func TestDecodeBasicPayload(t *testing.T) {
	decoder := NewDecoder[notificationSettings]()

	result, err := decoder.Decode(Context{Store: "notifications"}, map[string]any{
		"email": true,
		"push":  false,
		"tags":  []any{"urgent"},
	})
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !result.Email || result.Push {
		t.Fatalf("unexpected flags: %+v", result)
	}
	if len(result.Tags) != 1 || result.Tags[0] != "urgent" {
		t.Fatalf("unexpected tags: %v", result.Tags)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	decoder := NewDecoder[notificationSettings]()
	if _, err := decoder.Decode(Context{Store: "notifications"}, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestDecodePreHookNormalisesLegacyShape(t *testing.T) {
	decoder := NewDecoder[notificationSettings](
		WithPreHook[notificationSettings](quietHoursPreHook),
	)

	payload := map[string]any{"quietHours": "22:00-07:00"}
	result, err := decoder.Decode(Context{Store: "notifications"}, payload)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if result.QuietStart != "22:00" || result.QuietEnd != "07:00" {
		t.Fatalf("expected quiet hours split, got %+v", result)
	}
	if _, still := payload["quietHours"]; !still {
		t.Fatalf("expected caller payload untouched, got %v", payload)
	}
}

func TestDecodePreHookErrorIncludesStore(t *testing.T) {
	decoder := NewDecoder[notificationSettings](
		WithPreHook[notificationSettings](quietHoursPreHook),
	)

	_, err := decoder.Decode(Context{Store: "notifications"}, map[string]any{"quietHours": "22:00"})
	if err == nil {
		t.Fatalf("expected pre-hook error")
	}
	if !strings.Contains(err.Error(), `store "notifications"`) {
		t.Fatalf("expected store in error, got %v", err)
	}
}

func TestDecodePostHookAdjustsResult(t *testing.T) {
	decoder := NewDecoder[notificationSettings](
		WithPostHook[notificationSettings](ensureTagPostHook),
	)

	result, err := decoder.Decode(Context{Store: "notifications"}, map[string]any{"email": true})
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(result.Tags) != 1 || result.Tags[0] != "default" {
		t.Fatalf("expected post-hook default, got %v", result.Tags)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	decoder := NewDecoder[notificationSettings](
		WithDisallowUnknownFields[notificationSettings](),
	)

	if _, err := decoder.Decode(Context{Store: "notifications"}, map[string]any{"mystery": 1}); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestDecodeCustomDecoder(t *testing.T) {
	decoder := NewDecoder[notificationSettings](
		WithCustomDecoder[notificationSettings](func(_ Context, payload map[string]any) (notificationSettings, error) {
			return notificationSettings{Email: payload["enabled"] == true}, nil
		}),
	)

	result, err := decoder.Decode(Context{Store: "notifications"}, map[string]any{"enabled": true})
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !result.Email {
		t.Fatalf("expected custom decoder output, got %+v", result)
	}
}
