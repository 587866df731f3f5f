package sim

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
	"github.com/mazeswarm-dev/mazeswarm/internal/observability"
	"github.com/mazeswarm-dev/mazeswarm/internal/swarm"
	pkgobs "github.com/mazeswarm-dev/mazeswarm/pkg/observability"
)

// DefaultMaxTicks bounds a simulation that never finds the goal.
const DefaultMaxTicks = 1000

// Driver owns the grid and the fixed agent roster and runs the tick loop.
// Agents are processed sequentially in ascending id order each tick; the
// channel already decouples their logical concurrency, so the order only
// fixes determinism, not semantics. The driver is the sole writer of
// observer events.
type Driver struct {
	grid     *grid.Grid
	agents   []*swarm.Explorer
	sink     Sink
	maxTicks int
	limiter  *rate.Limiter
}

// Option configures a Driver.
type Option func(*Driver)

// WithSink directs progress events to the given sink.
func WithSink(s Sink) Option {
	return func(d *Driver) { d.sink = s }
}

// WithMaxTicks sets the tick budget.
func WithMaxTicks(n int) Option {
	return func(d *Driver) { d.maxTicks = n }
}

// WithTickRate paces the simulation to at most ticksPerSecond, so live
// observers can follow along. Zero means unpaced.
func WithTickRate(ticksPerSecond float64) Option {
	return func(d *Driver) {
		if ticksPerSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(ticksPerSecond), 1)
		}
	}
}

// NewDriver creates a driver over an already-spawned swarm.
func NewDriver(g *grid.Grid, agents []*swarm.Explorer, opts ...Option) *Driver {
	d := &Driver{
		grid:     g,
		agents:   agents,
		sink:     NopSink{},
		maxTicks: DefaultMaxTicks,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drives ticks until an agent stands on the goal cell or the tick
// budget runs out. Budget exhaustion is a normal terminal outcome, not an
// error; the only error path is context cancellation.
func (d *Driver) Run(ctx context.Context) (*SimulationComplete, error) {
	ctx, span := observability.StartSpan(ctx, "sim.run",
		trace.WithAttributes(
			observability.Attr("sim.agents", len(d.agents)),
			observability.Attr("sim.max_ticks", d.maxTicks),
			observability.Attr("sim.grid_cells", d.grid.TotalCells()),
		),
	)
	defer span.End()

	pkgobs.SetSwarmSize(len(d.agents))
	for _, a := range d.agents {
		d.sink.Emit(Event{Type: EventAgentRegistered, Payload: AgentRegistered{
			AgentID:  a.ID(),
			Name:     a.Name(),
			Position: a.Position(),
			Status:   "exploring",
		}})
	}

	tick := 0
	goalReached := false
	for tick < d.maxTicks && !goalReached {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("simulation canceled at tick %d: %w", tick, err)
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("simulation canceled at tick %d: %w", tick, err)
			}
		}

		tick++
		d.runTick(ctx, tick)
		goalReached = d.checkGoal()
	}

	summary := d.summarize(tick, goalReached)
	d.sink.Emit(Event{Type: EventSimulationComplete, Payload: *summary})
	span.SetAttributes(
		observability.Attr("sim.ticks", summary.Tick),
		observability.Attr("sim.goal_reached", summary.GoalReached),
		observability.Attr("sim.explored_cells", summary.ExploredCells),
	)
	log.Printf("[sim] complete: goal_reached=%v ticks=%d explored=%d/%d",
		summary.GoalReached, summary.Tick, summary.ExploredCells, summary.TotalCells)
	return summary, nil
}

// runTick executes one tick for the whole roster and emits the per-agent
// and roster-snapshot events.
func (d *Driver) runTick(ctx context.Context, tick int) {
	_, span := observability.StartSpan(ctx, "sim.tick",
		trace.WithAttributes(observability.Attr("sim.tick", tick)),
	)
	defer span.End()

	for _, a := range d.agents {
		view := d.grid.ViewAt(a.Position())
		res := a.Tick(view)

		if res.Claimed != nil {
			pkgobs.RecordFrontierClaim(a.Name())
			d.sink.Emit(Event{Type: EventAgentFrontier, Payload: AgentFrontier{
				AgentName: a.Name(),
				Frontier:  *res.Claimed,
			}})
		}
		if res.Moved {
			pkgobs.RecordAgentMove(a.Name())
			d.sink.Emit(Event{Type: EventAgentMove, Payload: AgentMove{
				AgentName:    a.Name(),
				FromPosition: res.From,
				ToPosition:   res.To,
			}})
		}
	}

	roster := make([]AgentPosition, 0, len(d.agents))
	for _, a := range d.agents {
		roster = append(roster, AgentPosition{ID: a.ID(), Position: a.Position()})
	}
	d.sink.Emit(Event{Type: EventTickUpdate, Payload: TickUpdate{Tick: tick, Agents: roster}})

	pkgobs.RecordTick()
	pkgobs.SetExploredCells(d.exploredCells())
}

// checkGoal reports whether any agent stands on the goal, emitting the
// goal event for the first one in id order.
func (d *Driver) checkGoal() bool {
	for _, a := range d.agents {
		if a.Position() == d.grid.Goal() {
			d.sink.Emit(Event{Type: EventAgentGoalReached, Payload: AgentGoalReached{
				AgentName: a.Name(),
				Position:  a.Position(),
			}})
			return true
		}
	}
	return false
}

// exploredCells counts the distinct open cells discovered by any agent.
func (d *Driver) exploredCells() int {
	seen := make(map[grid.Coord]struct{})
	for _, a := range d.agents {
		for _, c := range a.Knowledge().Nodes() {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

func (d *Driver) summarize(tick int, goalReached bool) *SimulationComplete {
	agents := make([]AgentSummary, 0, len(d.agents))
	for _, a := range d.agents {
		agents = append(agents, AgentSummary{
			ID:            a.ID(),
			Name:          a.Name(),
			Position:      a.Position(),
			NodesExplored: a.Knowledge().NodeCount(),
			Frontiers:     a.Knowledge().FrontierCount(),
		})
	}
	return &SimulationComplete{
		GoalReached:   goalReached,
		Tick:          tick,
		ExploredCells: d.exploredCells(),
		TotalCells:    d.grid.OpenCells(),
		Agents:        agents,
	}
}
