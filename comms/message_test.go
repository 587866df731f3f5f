package comms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
)

func TestNewMessage(t *testing.T) {
	payload := MergePayload{
		Nodes:     []grid.Coord{{Row: 1, Col: 2}},
		Frontiers: []grid.Coord{{Row: 1, Col: 3}},
	}

	msg := NewMessage(TypeMerge, 4, "agent-4", payload)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, TypeMerge, msg.Type)
	assert.Equal(t, 4, msg.SenderID)
	assert.Equal(t, "agent-4", msg.SenderName)

	_, err := time.Parse(time.RFC3339, msg.Timestamp)
	assert.NoError(t, err)

	var decoded MergePayload
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	a := NewMessage(TypeClaim, 0, "a", ClaimPayload{})
	b := NewMessage(TypeClaim, 0, "a", ClaimPayload{})

	assert.NotEqual(t, a.ID, b.ID)
}

func TestUnmarshalPayload_Empty(t *testing.T) {
	msg := &Message{Type: TypeClaim}

	var p ClaimPayload
	assert.Error(t, msg.UnmarshalPayload(&p))
}

func TestUnmarshalPayload_Garbage(t *testing.T) {
	msg := &Message{Type: TypeMerge, Payload: "{not json"}

	var p MergePayload
	assert.Error(t, msg.UnmarshalPayload(&p))
}

func TestClone(t *testing.T) {
	msg := NewMessage(TypeClaim, 0, "a", ClaimPayload{TargetFrontier: grid.Coord{Row: 1, Col: 1}})

	clone := msg.Clone()
	require.Equal(t, msg, clone)

	clone.SenderName = "b"
	assert.Equal(t, "a", msg.SenderName, "clones must not share state")
}
