package swarm

import (
	"log"

	"github.com/mazeswarm-dev/mazeswarm/comms"
	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
	"github.com/mazeswarm-dev/mazeswarm/pkg/observability"
)

// stuckLimit is how many consecutive ticks an agent may fail to make
// progress toward its target before abandoning it. The claim entry for an
// abandoned target is never retracted.
const stuckLimit = 3

// target is the explorer's commitment state: idle, or seeking one frontier.
type target struct {
	seeking bool
	cell    grid.Coord
}

// Explorer is one agent of the swarm. Each tick it runs the five phases
// Scan, Broadcast, Listen, Decide, Move in strict order, exchanging MERGE
// and CLAIM gossip with its fixed peer set over the injected channel.
//
// An Explorer is single-goroutine by construction: only the driver calls
// Tick, and all shared state lives behind the channel.
type Explorer struct {
	id    int
	name  string
	pos   grid.Coord
	know  *Knowledge
	ch    comms.Channel
	peers []string

	target     target
	stuckTicks int
}

// NewExplorer creates an agent at the origin cell with an empty map except
// the origin itself. The peer list is fixed for the agent's lifetime.
func NewExplorer(id int, name string, origin grid.Coord, ch comms.Channel) *Explorer {
	return &Explorer{
		id:   id,
		name: name,
		pos:  origin,
		know: NewKnowledge(origin),
		ch:   ch,
	}
}

// SetPeers installs the fixed peer roster. Called once at spawn.
func (e *Explorer) SetPeers(peers []string) {
	e.peers = make([]string, 0, len(peers))
	for _, p := range peers {
		if p != e.name {
			e.peers = append(e.peers, p)
		}
	}
}

func (e *Explorer) ID() int              { return e.id }
func (e *Explorer) Name() string         { return e.name }
func (e *Explorer) Position() grid.Coord { return e.pos }

// Knowledge exposes the agent's knowledge store to the driver for progress
// reporting. The driver must not mutate it.
func (e *Explorer) Knowledge() *Knowledge { return e.know }

// Target returns the frontier currently pursued, if any.
func (e *Explorer) Target() (grid.Coord, bool) {
	return e.target.cell, e.target.seeking
}

// TickResult reports what happened during one tick, for the driver to
// translate into observer events.
type TickResult struct {
	From    grid.Coord
	To      grid.Coord
	Moved   bool
	Claimed *grid.Coord
}

// Tick runs one full Scan, Broadcast, Listen, Decide, Move cycle against
// the given sensor view. The view must be centered on the agent's current
// position.
func (e *Explorer) Tick(view grid.View) TickResult {
	res := TickResult{From: e.pos, To: e.pos}

	newNodes, newFrontiers := e.scan(view)

	if len(newNodes) > 0 || len(newFrontiers) > 0 {
		e.broadcast(comms.NewMessage(comms.TypeMerge, e.id, e.name, comms.MergePayload{
			Nodes:     newNodes,
			Frontiers: newFrontiers,
		}))
	}

	e.listen()

	if claimed := e.decide(); claimed != nil {
		res.Claimed = claimed
	}

	if to, moved := e.move(view); moved {
		e.pos = to
		res.To = to
		res.Moved = true
	}

	return res
}

// scan inspects the 4-neighborhood. The current position is expanded into
// the local map if it is still a frontier (it was stepped onto last tick),
// and every open neighbor either gains an edge or becomes a new frontier.
// Only this tick's discoveries are returned, so broadcasts stay bounded.
func (e *Explorer) scan(view grid.View) (newNodes, newFrontiers []grid.Coord) {
	if e.know.AddNode(e.pos) {
		newNodes = append(newNodes, e.pos)
	}

	for _, nbr := range view.Open {
		e.know.LinkOpen(e.pos, nbr)
		if !e.know.HasNode(nbr) && e.know.AddFrontier(nbr) {
			newFrontiers = append(newFrontiers, nbr)
		}
	}
	return newNodes, newFrontiers
}

// listen drains the inbox and folds every MERGE and CLAIM into the
// knowledge store. Malformed payloads are dropped and counted, never fatal.
func (e *Explorer) listen() {
	for _, msg := range e.ch.Poll(e.name) {
		switch msg.Type {
		case comms.TypeMerge:
			var p comms.MergePayload
			if err := msg.UnmarshalPayload(&p); err != nil {
				e.dropMalformed(msg, err)
				continue
			}
			e.know.MergeNodes(p.Nodes)
			e.know.MergeFrontiers(p.Frontiers)

		case comms.TypeClaim:
			var p comms.ClaimPayload
			if err := msg.UnmarshalPayload(&p); err != nil {
				e.dropMalformed(msg, err)
				continue
			}
			e.know.Claim(p.TargetFrontier, false)

		default:
			e.dropMalformed(msg, nil)
		}
	}
}

func (e *Explorer) dropMalformed(msg *comms.Message, err error) {
	observability.RecordMessageMalformed()
	log.Printf("[%s] dropping malformed %s message from %s: %v", e.name, msg.Type, msg.SenderName, err)
}

// decide picks a new target when the agent is idle, when the current target
// was claimed by a competitor, or when a peer's MERGE shows the target has
// already been explored. The nearest unclaimed frontier by Manhattan
// distance wins; ties go to the lexicographically lowest coordinate so runs
// are deterministic. A fresh pick is claimed locally first, then announced.
func (e *Explorer) decide() *grid.Coord {
	if e.target.seeking {
		contested := e.know.IsClaimed(e.target.cell) && !e.know.IsOwnClaim(e.target.cell)
		absorbed := !e.know.IsFrontier(e.target.cell)
		if !contested && !absorbed {
			return nil
		}
		e.target = target{}
	}

	candidates := e.know.Candidates()
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	bestDist := grid.Manhattan(e.pos, best)
	for _, c := range candidates[1:] {
		if d := grid.Manhattan(e.pos, c); d < bestDist {
			best, bestDist = c, d
		}
	}

	e.target = target{seeking: true, cell: best}
	e.stuckTicks = 0
	e.know.Claim(best, true)
	e.broadcast(comms.NewMessage(comms.TypeClaim, e.id, e.name, comms.ClaimPayload{
		TargetFrontier: best,
	}))
	return &best
}

// move takes one step toward the target, preferring the column axis over
// the row axis, onto cells confirmed open by the knowledge store or the
// current sensor view. Arriving at the target clears it; failing to move
// for stuckLimit consecutive ticks abandons it.
func (e *Explorer) move(view grid.View) (grid.Coord, bool) {
	if !e.target.seeking {
		return e.pos, false
	}

	next, ok := e.stepToward(e.target.cell, view)
	if !ok {
		e.stuckTicks++
		if e.stuckTicks >= stuckLimit {
			log.Printf("[%s] cannot reach target %v, abandoning it", e.name, e.target.cell)
			e.target = target{}
			e.stuckTicks = 0
		}
		return e.pos, false
	}

	e.stuckTicks = 0
	if next == e.target.cell {
		e.know.RemoveFrontier(next)
		e.target = target{}
	}
	return next, true
}

func (e *Explorer) stepToward(tgt grid.Coord, view grid.View) (grid.Coord, bool) {
	if dc := tgt.Col - e.pos.Col; dc != 0 {
		next := grid.Coord{Row: e.pos.Row, Col: e.pos.Col + sign(dc)}
		if e.walkable(next, view) {
			return next, true
		}
	}
	if dr := tgt.Row - e.pos.Row; dr != 0 {
		next := grid.Coord{Row: e.pos.Row + sign(dr), Col: e.pos.Col}
		if e.walkable(next, view) {
			return next, true
		}
	}
	return e.pos, false
}

func (e *Explorer) walkable(c grid.Coord, view grid.View) bool {
	return e.know.KnownOpen(c) || view.IsOpen(c)
}

func (e *Explorer) broadcast(msg *comms.Message) {
	for _, peer := range e.peers {
		e.ch.Send(e.name, peer, msg)
	}
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}
