package swarm

import (
	"sort"

	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
)

type coordSet map[grid.Coord]struct{}

func (s coordSet) add(c grid.Coord) bool {
	if _, ok := s[c]; ok {
		return false
	}
	s[c] = struct{}{}
	return true
}

func (s coordSet) has(c grid.Coord) bool {
	_, ok := s[c]
	return ok
}

// Knowledge is an agent's private replica of the swarm's shared exploration
// state. Every mutation is a monotonic set union, which commutes and is
// idempotent, so replicas converge under gossip without locks or consensus:
//
//   - nodes: the local map, coord -> known-open adjacency set. Grows only.
//   - frontiers: known-open cells adjacent to the map but not yet expanded.
//     Entries leave this set only by becoming nodes or being stepped onto.
//   - claimed: every frontier any agent has announced a claim for. Grows
//     only; a claim is never retracted, even if the owner abandons it.
type Knowledge struct {
	nodes     map[grid.Coord]coordSet
	frontiers coordSet
	claimed   coordSet
	ownClaims coordSet
}

// NewKnowledge creates a knowledge store seeded with the origin cell, which
// is the only cell an agent knows at spawn.
func NewKnowledge(origin grid.Coord) *Knowledge {
	k := &Knowledge{
		nodes:     make(map[grid.Coord]coordSet),
		frontiers: make(coordSet),
		claimed:   make(coordSet),
		ownClaims: make(coordSet),
	}
	k.nodes[origin] = make(coordSet)
	return k
}

// HasNode reports whether c is an expanded node in the local map.
func (k *Knowledge) HasNode(c grid.Coord) bool {
	_, ok := k.nodes[c]
	return ok
}

// KnownOpen reports whether c is known to be an open cell: either an
// expanded node or an identified frontier.
func (k *Knowledge) KnownOpen(c grid.Coord) bool {
	return k.HasNode(c) || k.frontiers.has(c)
}

// IsFrontier reports whether c is currently in the frontier set.
func (k *Knowledge) IsFrontier(c grid.Coord) bool {
	return k.frontiers.has(c)
}

// IsClaimed reports whether any agent has claimed c.
func (k *Knowledge) IsClaimed(c grid.Coord) bool {
	return k.claimed.has(c)
}

// IsOwnClaim reports whether this agent itself claimed c.
func (k *Knowledge) IsOwnClaim(c grid.Coord) bool {
	return k.ownClaims.has(c)
}

// NodeCount returns the number of expanded nodes in the local map.
func (k *Knowledge) NodeCount() int { return len(k.nodes) }

// FrontierCount returns the number of outstanding frontiers.
func (k *Knowledge) FrontierCount() int { return len(k.frontiers) }

// ClaimedCount returns the size of the claimed set.
func (k *Knowledge) ClaimedCount() int { return len(k.claimed) }

// Nodes returns the expanded node coordinates in lexicographic order.
func (k *Knowledge) Nodes() []grid.Coord {
	out := make([]grid.Coord, 0, len(k.nodes))
	for c := range k.nodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// AddNode expands c into the local map and links it both ways to every
// adjacent node already present. Returns true if c was new. Adjacent open
// cells can never be separated by a wall, so linking known neighbors is
// always sound. Becoming a node removes c from the frontier set.
func (k *Knowledge) AddNode(c grid.Coord) bool {
	if _, ok := k.nodes[c]; ok {
		return false
	}
	k.nodes[c] = make(coordSet)
	delete(k.frontiers, c)

	for _, n := range adjacent4(c) {
		if _, ok := k.nodes[n]; ok {
			k.nodes[c].add(n)
			k.nodes[n].add(c)
		}
	}
	return true
}

// LinkOpen records that nbr is a known-open neighbor of node. The reverse
// edge is recorded only if nbr is itself a node, keeping edges between
// expanded nodes symmetric while still letting a node point at a frontier.
func (k *Knowledge) LinkOpen(node, nbr grid.Coord) {
	if adj, ok := k.nodes[node]; ok {
		adj.add(nbr)
	}
	if adj, ok := k.nodes[nbr]; ok {
		adj.add(node)
	}
}

// AddFrontier records c as a frontier unless it is already expanded.
// Returns true if the frontier was newly added.
func (k *Knowledge) AddFrontier(c grid.Coord) bool {
	if k.HasNode(c) {
		return false
	}
	return k.frontiers.add(c)
}

// RemoveFrontier drops c from the frontier set. Called when the agent
// arrives on its target frontier; the cell becomes a regular node on the
// next scan.
func (k *Knowledge) RemoveFrontier(c grid.Coord) {
	delete(k.frontiers, c)
}

// MergeNodes applies the node list of a MERGE message.
func (k *Knowledge) MergeNodes(nodes []grid.Coord) {
	for _, c := range nodes {
		k.AddNode(c)
	}
}

// MergeFrontiers applies the frontier list of a MERGE message. Frontiers a
// lagging peer reports but that are already expanded locally are ignored.
func (k *Knowledge) MergeFrontiers(frontiers []grid.Coord) {
	for _, c := range frontiers {
		k.AddFrontier(c)
	}
}

// Claim records that an agent has claimed c. When own is true the claim is
// also remembered as this agent's, so Decide can tell its own claims apart
// from competing ones.
func (k *Knowledge) Claim(c grid.Coord, own bool) {
	k.claimed.add(c)
	if own {
		k.ownClaims.add(c)
	}
}

// Candidates returns the unclaimed frontiers in lexicographic order.
func (k *Knowledge) Candidates() []grid.Coord {
	var out []grid.Coord
	for c := range k.frontiers {
		if !k.claimed.has(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func adjacent4(c grid.Coord) [4]grid.Coord {
	return [4]grid.Coord{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
	}
}
