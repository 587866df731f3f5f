package comms

import "github.com/mazeswarm-dev/mazeswarm/internal/grid"

// MergePayload carries the nodes and frontiers an agent discovered during a
// single tick. It deliberately never carries the whole map: union on the
// receiver is idempotent, so repeated small fragments converge.
type MergePayload struct {
	Nodes     []grid.Coord `json:"nodes"`
	Frontiers []grid.Coord `json:"frontiers"`
}

// ClaimPayload announces that the sender intends to explore a frontier.
type ClaimPayload struct {
	TargetFrontier grid.Coord `json:"target_frontier"`
}
