package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Channel metrics
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazeswarm_messages_sent_total",
			Help: "Total number of agent messages handed to the channel",
		},
		[]string{"type"},
	)

	messagesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazeswarm_messages_dropped_total",
			Help: "Total number of messages lost in transit",
		},
		[]string{"reason"},
	)

	messagesMalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mazeswarm_messages_malformed_total",
			Help: "Total number of inbound messages that failed to parse",
		},
	)

	// Agent metrics
	agentMovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazeswarm_agent_moves_total",
			Help: "Total number of successful agent moves",
		},
		[]string{"agent"},
	)

	frontierClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mazeswarm_frontier_claims_total",
			Help: "Total number of frontier claims broadcast",
		},
		[]string{"agent"},
	)

	// Simulation metrics
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mazeswarm_ticks_total",
			Help: "Total number of simulation ticks executed",
		},
	)

	exploredCells = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mazeswarm_explored_cells",
			Help: "Number of distinct open cells discovered by the swarm",
		},
	)

	swarmSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mazeswarm_swarm_size",
			Help: "Number of agents in the swarm",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the Prometheus metrics. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			messagesSentTotal,
			messagesDroppedTotal,
			messagesMalformedTotal,
			agentMovesTotal,
			frontierClaimsTotal,
			ticksTotal,
			exploredCells,
			swarmSize,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordMessageSent records a message handed to the channel
func RecordMessageSent(msgType string) {
	messagesSentTotal.WithLabelValues(msgType).Inc()
}

// RecordMessageDropped records a message lost in transit
func RecordMessageDropped(reason string) {
	messagesDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordMessageMalformed records an inbound message that failed to parse
func RecordMessageMalformed() {
	messagesMalformedTotal.Inc()
}

// RecordAgentMove records a successful move
func RecordAgentMove(agent string) {
	agentMovesTotal.WithLabelValues(agent).Inc()
}

// RecordFrontierClaim records a frontier claim broadcast
func RecordFrontierClaim(agent string) {
	frontierClaimsTotal.WithLabelValues(agent).Inc()
}

// RecordTick records one completed simulation tick
func RecordTick() {
	ticksTotal.Inc()
}

// SetExploredCells sets the explored cell gauge
func SetExploredCells(count int) {
	exploredCells.Set(float64(count))
}

// SetSwarmSize sets the swarm size gauge
func SetSwarmSize(count int) {
	swarmSize.Set(float64(count))
}
