package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the standard payload format carried by the bus. The same type is
// used for direct sends, topic publishes, and replies.
type Message struct {
	// ID is a unique identifier for this message, automatically generated.
	ID string

	// Type identifies the message type (e.g., "analysis_request").
	// HandlerMux routes on this field.
	Type string

	// Payload contains the message data as a JSON string.
	// Use UnmarshalPayload to deserialize into a specific type.
	Payload string

	// Timestamp is the RFC 3339 creation time of the message.
	Timestamp string

	// Metadata contains optional key-value pairs for tracing, correlation, etc.
	Metadata map[string]any
}

// NewMessage creates a message with the given type and payload.
// The payload is serialized to JSON; a unique ID and timestamp are generated.
func NewMessage(msgType string, payload any) *Message {
	payloadJSON, _ := json.Marshal(payload)
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   string(payloadJSON),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metadata:  make(map[string]any),
	}
}

// WithMetadata adds a metadata entry and returns the message for chaining.
func (m *Message) WithMetadata(key string, value any) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
	return m
}

// GetMetadataString retrieves string metadata by key, returning the default
// when the key is absent or holds a non-string value.
func (m *Message) GetMetadataString(key, defaultValue string) string {
	if m.Metadata == nil {
		return defaultValue
	}
	if s, ok := m.Metadata[key].(string); ok {
		return s
	}
	return defaultValue
}

// UnmarshalPayload deserializes the message payload into the provided value.
// The value should be a pointer to the desired type.
func (m *Message) UnmarshalPayload(v any) error {
	if m.Payload == "" {
		return fmt.Errorf("message payload is empty")
	}
	return json.Unmarshal([]byte(m.Payload), v)
}

// Clone creates a deep copy of the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:        m.ID,
		Type:      m.Type,
		Payload:   m.Payload,
		Timestamp: m.Timestamp,
		Metadata:  make(map[string]any, len(m.Metadata)),
	}
	for k, v := range m.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// String returns a human-readable representation for debugging.
func (m *Message) String() string {
	return fmt.Sprintf("Message{ID:%s, Type:%s}", m.ID, m.Type)
}
