package sim

import (
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
)

// EventType identifies a progress event emitted to the observer sink.
type EventType string

const (
	EventAgentRegistered    EventType = "agent_registered"
	EventAgentMove          EventType = "agent_move"
	EventAgentFrontier      EventType = "agent_frontier"
	EventAgentGoalReached   EventType = "agent_goal_reached"
	EventTickUpdate         EventType = "tick_update"
	EventSimulationComplete EventType = "simulation_complete"
)

// Event is one progress notification for external observers such as a UI
// or log collector. Events never feed back into agent logic.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// AgentRegistered is emitted once per agent at spawn.
type AgentRegistered struct {
	AgentID  int        `json:"agent_id"`
	Name     string     `json:"name"`
	Position grid.Coord `json:"position"`
	Status   string     `json:"status"`
}

// AgentMove is emitted once per successful move.
type AgentMove struct {
	AgentName    string     `json:"agent_name"`
	FromPosition grid.Coord `json:"from_position"`
	ToPosition   grid.Coord `json:"to_position"`
}

// AgentFrontier is emitted once per frontier selection.
type AgentFrontier struct {
	AgentName string     `json:"agent_name"`
	Frontier  grid.Coord `json:"frontier"`
}

// AgentGoalReached is emitted once, for whichever agent first reaches goal.
type AgentGoalReached struct {
	AgentName string     `json:"agent_name"`
	Position  grid.Coord `json:"position"`
}

// AgentPosition is one roster entry in a tick update.
type AgentPosition struct {
	ID       int        `json:"id"`
	Position grid.Coord `json:"position"`
}

// TickUpdate is a full roster snapshot, emitted once per tick.
type TickUpdate struct {
	Tick   int             `json:"tick"`
	Agents []AgentPosition `json:"agents"`
}

// AgentSummary reports one agent's final exploration state.
type AgentSummary struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Position      grid.Coord `json:"position"`
	NodesExplored int        `json:"nodes_explored"`
	Frontiers     int        `json:"frontiers"`
}

// SimulationComplete is emitted once, at termination.
type SimulationComplete struct {
	GoalReached   bool           `json:"goal_reached"`
	Tick          int            `json:"tick"`
	ExploredCells int            `json:"explored_cells"`
	TotalCells    int            `json:"total_cells"`
	Agents        []AgentSummary `json:"agents"`
}

// Sink consumes progress events. Implementations must tolerate being called
// from the driver's goroutine only; the driver is the sole writer.
type Sink interface {
	Emit(ev Event)
}

// LogSink writes events to the standard logger.
type LogSink struct{}

func (LogSink) Emit(ev Event) {
	log.Printf("[event] %s %+v", ev.Type, ev.Payload)
}

// JSONLSink writes events as JSON lines to w.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink creates a sink encoding one event per line onto w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		log.Printf("[event] encode %s: %v", ev.Type, err)
	}
}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

func (s MultiSink) Emit(ev Event) {
	for _, sink := range s {
		sink.Emit(ev)
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}
