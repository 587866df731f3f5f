package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazeswarm-dev/mazeswarm/comms"
	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
)

func corridor(t *testing.T, length int) *grid.Grid {
	t.Helper()
	row := make([]int, length)
	g, err := grid.Parse([][]int{row}, grid.Coord{Row: 0, Col: 0}, grid.Coord{Row: 0, Col: length - 1})
	require.NoError(t, err)
	return g
}

func TestTick_ScanClaimMove(t *testing.T) {
	g := corridor(t, 3)
	ch := comms.NewLocalChannel()
	ch.Register("a")
	ch.Register("watcher")

	e := NewExplorer(0, "a", g.Start(), ch)
	e.SetPeers([]string{"a", "watcher"})

	res := e.Tick(g.ViewAt(e.Position()))

	require.NotNil(t, res.Claimed)
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, *res.Claimed)
	assert.True(t, res.Moved)
	assert.Equal(t, grid.Coord{Row: 0, Col: 0}, res.From)
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, res.To)
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, e.Position())

	// The watcher sees the discovery before the claim.
	msgs := ch.Poll("watcher")
	require.Len(t, msgs, 2)
	assert.Equal(t, comms.TypeMerge, msgs[0].Type)
	assert.Equal(t, comms.TypeClaim, msgs[1].Type)

	var merge comms.MergePayload
	require.NoError(t, msgs[0].UnmarshalPayload(&merge))
	assert.Empty(t, merge.Nodes, "the origin is known at spawn, not discovered")
	assert.Equal(t, []grid.Coord{{Row: 0, Col: 1}}, merge.Frontiers)

	var claim comms.ClaimPayload
	require.NoError(t, msgs[1].UnmarshalPayload(&claim))
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, claim.TargetFrontier)
}

func TestTick_RespectsPeerClaims(t *testing.T) {
	g := corridor(t, 3)
	ch := comms.NewLocalChannel()
	ch.Register("a")

	e := NewExplorer(0, "a", g.Start(), ch)

	ch.Send("rival", "a", comms.NewMessage(comms.TypeClaim, 1, "rival", comms.ClaimPayload{
		TargetFrontier: grid.Coord{Row: 0, Col: 1},
	}))

	res := e.Tick(g.ViewAt(e.Position()))

	assert.Nil(t, res.Claimed, "the only frontier is claimed by the rival")
	assert.False(t, res.Moved)
	_, seeking := e.Target()
	assert.False(t, seeking)
}

func TestTick_AbsorbedTargetResets(t *testing.T) {
	g := corridor(t, 4)
	ch := comms.NewLocalChannel()
	ch.Register("a")

	e := NewExplorer(0, "a", g.Start(), ch)

	// A peer has already explored the middle of the corridor.
	ch.Send("rival", "a", comms.NewMessage(comms.TypeMerge, 1, "rival", comms.MergePayload{
		Nodes:     []grid.Coord{{Row: 0, Col: 1}, {Row: 0, Col: 2}},
		Frontiers: []grid.Coord{{Row: 0, Col: 3}},
	}))

	res := e.Tick(g.ViewAt(e.Position()))
	require.NotNil(t, res.Claimed)
	assert.Equal(t, grid.Coord{Row: 0, Col: 3}, *res.Claimed)
	assert.True(t, res.Moved)

	// Now the peer reports the target itself as explored.
	ch.Send("rival", "a", comms.NewMessage(comms.TypeMerge, 1, "rival", comms.MergePayload{
		Nodes: []grid.Coord{{Row: 0, Col: 3}},
	}))

	res = e.Tick(g.ViewAt(e.Position()))
	assert.Nil(t, res.Claimed, "no unclaimed frontiers remain")
	assert.False(t, res.Moved)
	_, seeking := e.Target()
	assert.False(t, seeking, "an absorbed target must be dropped")
}

func TestTick_StuckAbandonsTarget(t *testing.T) {
	g := corridor(t, 2)
	ch := comms.NewLocalChannel()
	ch.Register("a")
	ch.Register("rival")

	e := NewExplorer(0, "a", g.Start(), ch)
	e.SetPeers([]string{"rival"})

	// The rival claims the reachable frontier and gossips one beyond the
	// corridor's end, so the agent commits to a target it can never reach.
	unreachable := grid.Coord{Row: 0, Col: 5}
	ch.Send("rival", "a", comms.NewMessage(comms.TypeMerge, 1, "rival", comms.MergePayload{
		Frontiers: []grid.Coord{unreachable},
	}))
	ch.Send("rival", "a", comms.NewMessage(comms.TypeClaim, 1, "rival", comms.ClaimPayload{
		TargetFrontier: grid.Coord{Row: 0, Col: 1},
	}))

	res := e.Tick(g.ViewAt(e.Position()))
	require.NotNil(t, res.Claimed)
	assert.Equal(t, unreachable, *res.Claimed)
	assert.True(t, res.Moved, "the first step toward the target is open")
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, e.Position())

	// Three consecutive blocked ticks, then the target is abandoned.
	for i := 0; i < 3; i++ {
		_, seeking := e.Target()
		assert.True(t, seeking, "tick %d: target should still be held", i)
		res = e.Tick(g.ViewAt(e.Position()))
		assert.False(t, res.Moved)
	}

	_, seeking := e.Target()
	assert.False(t, seeking)
	assert.Equal(t, grid.Coord{Row: 0, Col: 1}, e.Position())
	assert.True(t, e.Knowledge().IsClaimed(unreachable), "abandoning must not retract the claim")
}

// Two agents lose all CLAIM traffic, target the same frontier, and then
// split up once their merged maps show the duplication.
func TestTick_ClaimRaceResolvesThroughMerges(t *testing.T) {
	g, err := grid.Parse([][]int{
		{0, 0, 0},
		{0, 0, 0},
	}, grid.Coord{Row: 0, Col: 0}, grid.Coord{Row: 1, Col: 2})
	require.NoError(t, err)

	ch := comms.NewLocalChannel(comms.WithFilter(func(m *comms.Message) bool {
		return m.Type != comms.TypeClaim
	}))
	ch.Register("a")
	ch.Register("b")

	a := NewExplorer(0, "a", grid.Coord{Row: 0, Col: 0}, ch)
	b := NewExplorer(1, "b", grid.Coord{Row: 0, Col: 2}, ch)
	a.SetPeers([]string{"a", "b"})
	b.SetPeers([]string{"a", "b"})

	resA := a.Tick(g.ViewAt(a.Position()))
	resB := b.Tick(g.ViewAt(b.Position()))

	require.NotNil(t, resA.Claimed)
	require.NotNil(t, resB.Claimed)
	assert.Equal(t, *resA.Claimed, *resB.Claimed, "without CLAIM delivery both pick the shared frontier")

	resA = a.Tick(g.ViewAt(a.Position()))
	resB = b.Tick(g.ViewAt(b.Position()))

	require.NotNil(t, resA.Claimed)
	require.NotNil(t, resB.Claimed)
	assert.NotEqual(t, *resA.Claimed, *resB.Claimed, "merged maps must steer the agents apart")
}

func TestTick_DropsMalformedMessages(t *testing.T) {
	g := corridor(t, 3)
	ch := comms.NewLocalChannel()
	ch.Register("a")

	e := NewExplorer(0, "a", g.Start(), ch)

	ch.Send("rival", "a", &comms.Message{ID: "x", Type: comms.TypeMerge, SenderName: "rival", Payload: "{"})
	ch.Send("rival", "a", &comms.Message{ID: "y", Type: "SHOUT", SenderName: "rival", Payload: "{}"})

	res := e.Tick(g.ViewAt(e.Position()))

	// The tick proceeds normally despite the garbage.
	require.NotNil(t, res.Claimed)
	assert.True(t, res.Moved)
	assert.Equal(t, 1, e.Knowledge().NodeCount())
}
