package comms

import (
	"math/rand"
	"sync"

	"github.com/mazeswarm-dev/mazeswarm/pkg/observability"
)

// LocalChannel is an in-memory Channel for single-process simulations. It is
// the default transport, and doubles as the test substrate: loss and
// duplication are injected deterministically from a seeded source, and a
// filter hook lets tests drop specific message kinds (e.g. all CLAIMs) to
// reproduce arbitration races.
type LocalChannel struct {
	mu        sync.Mutex
	mailboxes map[string][]*Message
	rng       *rand.Rand
	lossRate  float64
	dupRate   float64
	filter    func(*Message) bool
}

// LocalOption configures a LocalChannel.
type LocalOption func(*LocalChannel)

// WithLossRate drops each sent message with probability p.
func WithLossRate(p float64) LocalOption {
	return func(c *LocalChannel) { c.lossRate = p }
}

// WithDupRate delivers each surviving message twice with probability p.
func WithDupRate(p float64) LocalOption {
	return func(c *LocalChannel) { c.dupRate = p }
}

// WithSeed seeds the loss/duplication source so runs are reproducible.
func WithSeed(seed int64) LocalOption {
	return func(c *LocalChannel) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithFilter installs a delivery predicate: messages for which f returns
// false are dropped. Used by tests to simulate selective loss.
func WithFilter(f func(*Message) bool) LocalOption {
	return func(c *LocalChannel) { c.filter = f }
}

// NewLocalChannel creates a lossless in-memory channel unless options say
// otherwise.
func NewLocalChannel(opts ...LocalOption) *LocalChannel {
	c := &LocalChannel{
		mailboxes: make(map[string][]*Message),
		rng:       rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates the mailbox for an agent id.
func (c *LocalChannel) Register(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mailboxes[id]; !ok {
		c.mailboxes[id] = nil
	}
}

// Send enqueues msg for the recipient, subject to the configured loss,
// duplication, and filter behavior. Failures are silent.
func (c *LocalChannel) Send(from, to string, msg *Message) {
	if from == to {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mailboxes[to]; !ok {
		observability.RecordMessageDropped("unknown_peer")
		return
	}
	if c.filter != nil && !c.filter(msg) {
		observability.RecordMessageDropped("filtered")
		return
	}
	if c.lossRate > 0 && c.rng.Float64() < c.lossRate {
		observability.RecordMessageDropped("loss")
		return
	}

	observability.RecordMessageSent(msg.Type)
	c.mailboxes[to] = append(c.mailboxes[to], msg)
	if c.dupRate > 0 && c.rng.Float64() < c.dupRate {
		c.mailboxes[to] = append(c.mailboxes[to], msg.Clone())
	}
}

// Poll drains and returns the mailbox for id.
func (c *LocalChannel) Poll(id string) []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := c.mailboxes[id]
	c.mailboxes[id] = nil
	return msgs
}
