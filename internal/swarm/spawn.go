package swarm

import (
	"fmt"
	"log"

	"github.com/mazeswarm-dev/mazeswarm/comms"
	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
)

// Spawn creates the entire fixed-size swarm at the grid's start cell and
// wires every agent to every other through the channel. No agent is created
// or destroyed after this point; the roster is the swarm for the whole
// simulation.
func Spawn(g *grid.Grid, count int, ch comms.Channel) ([]*Explorer, error) {
	if count < 1 {
		return nil, fmt.Errorf("swarm: size must be at least 1, got %d", count)
	}

	agents := make([]*Explorer, 0, count)
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("agent-%d", i)
		ch.Register(name)
		agents = append(agents, NewExplorer(i, name, g.Start(), ch))
		names = append(names, name)
	}

	for _, a := range agents {
		a.SetPeers(names)
	}

	log.Printf("[swarm] spawned %d agents at %v", count, g.Start())
	return agents, nil
}
