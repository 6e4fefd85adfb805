package agent

import "testing"

func TestNewMessage(t *testing.T) {
	msg := NewMessage("test_type", map[string]string{"key": "value"})

	if msg.ID == "" {
		t.Error("expected non-empty message ID")
	}
	if msg.Type != "test_type" {
		t.Errorf("expected type test_type, got %s", msg.Type)
	}
	if msg.Timestamp == "" {
		t.Error("expected non-empty timestamp")
	}
	if msg.Payload != `{"key":"value"}` {
		t.Errorf("unexpected payload: %s", msg.Payload)
	}
}

func TestMessageIDsUnique(t *testing.T) {
	a := NewMessage("t", nil)
	b := NewMessage("t", nil)
	if a.ID == b.ID {
		t.Error("expected unique message IDs")
	}
}

func TestUnmarshalPayload(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	msg := NewMessage("t", payload{Name: "x", Count: 3})
	var got payload
	if err := msg.UnmarshalPayload(&got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestUnmarshalEmptyPayload(t *testing.T) {
	msg := &Message{Type: "t"}
	var v any
	if err := msg.UnmarshalPayload(&v); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestMetadata(t *testing.T) {
	msg := NewMessage("t", nil).WithMetadata("trace_id", "abc")

	if got := msg.GetMetadataString("trace_id", ""); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
	if got := msg.GetMetadataString("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}

	msg.WithMetadata("count", 3)
	if got := msg.GetMetadataString("count", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for non-string value, got %s", got)
	}
}

func TestClone(t *testing.T) {
	msg := NewMessage("t", "data").WithMetadata("k", "v")
	clone := msg.Clone()

	if clone.ID != msg.ID || clone.Payload != msg.Payload {
		t.Error("clone should copy ID and payload")
	}

	clone.Metadata["k"] = "changed"
	if msg.Metadata["k"] != "v" {
		t.Error("mutating clone metadata must not affect the original")
	}
}
