// Package comms provides the unreliable, unordered datagram transport the
// swarm gossips over. Every agent can address every other agent by a stable
// identifier; delivery is best-effort with no acknowledgements, so senders
// rely on rebroadcasting on later ticks rather than on any single message
// arriving.
package comms

// Channel is the peer-to-peer transport seam. Implementations must be safe
// for concurrent use.
//
// Send never reports failure: an unknown recipient, a full mailbox, or a
// transport error all result in a silently dropped message, matching the
// "unreliable but fast" substrate the protocol is designed for. Poll drains
// and returns everything that arrived since the last poll, in arbitrary
// order; duplicates are possible.
type Channel interface {
	// Register creates the mailbox for an agent id. Messages sent to an
	// unregistered id are dropped.
	Register(id string)

	// Send attempts best-effort delivery of msg from one agent to another.
	// Sending to yourself is a no-op.
	Send(from, to string, msg *Message)

	// Poll returns all messages that arrived for id since the last poll.
	// It never blocks; an empty inbox yields an empty slice.
	Poll(id string) []*Message
}
