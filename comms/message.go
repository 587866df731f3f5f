package comms

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types exchanged between agents. MERGE carries newly discovered map
// fragments; CLAIM announces the sender's intent to explore a frontier. Both
// are monotonic set operations on the receiver, so no sequence numbers are
// needed and any delivery order is valid.
const (
	TypeMerge = "MERGE"
	TypeClaim = "CLAIM"
)

// Message is the envelope for agent-to-agent communication. Delivery is
// best-effort: a message may be lost, duplicated, or reordered in transit.
type Message struct {
	// ID is a unique identifier for this message, automatically generated.
	ID string `json:"id"`

	// Type identifies the message kind (TypeMerge or TypeClaim).
	Type string `json:"type"`

	// SenderID is the numeric id of the sending agent.
	SenderID int `json:"sender_id"`

	// SenderName is the human-readable name of the sending agent.
	SenderName string `json:"sender_name"`

	// Payload contains the message data as a JSON string.
	// Use UnmarshalPayload to deserialize into a specific type.
	Payload string `json:"payload"`

	// Timestamp is the ISO 8601 timestamp when the message was created.
	Timestamp string `json:"timestamp"`
}

// NewMessage creates a message of the given type. The payload is serialized
// to JSON; a unique ID and timestamp are generated automatically.
func NewMessage(msgType string, senderID int, senderName string, payload any) *Message {
	payloadJSON, _ := json.Marshal(payload)
	return &Message{
		ID:         uuid.New().String(),
		Type:       msgType,
		SenderID:   senderID,
		SenderName: senderName,
		Payload:    string(payloadJSON),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// UnmarshalPayload deserializes the message payload into the provided value.
// The value should be a pointer to the desired type.
func (m *Message) UnmarshalPayload(v any) error {
	if m.Payload == "" {
		return fmt.Errorf("message payload is empty")
	}
	return json.Unmarshal([]byte(m.Payload), v)
}

// Clone creates a copy of the message. Used by transports that may deliver
// the same datagram more than once.
func (m *Message) Clone() *Message {
	clone := *m
	return &clone
}

// String returns a human-readable representation for debugging.
func (m *Message) String() string {
	return fmt.Sprintf("Message{ID:%s, Type:%s, Sender:%s}", m.ID, m.Type, m.SenderName)
}
