package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the Rank-It game coordination server.
//
// Naming convention: namespace_subsystem_name
// - namespace: rank_it (application-level grouping)
// - subsystem: websocket, room, emoji, store (feature-level grouping)
// - name: specific metric (connections_active, events_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, players)
// - Counter: Cumulative events (messages processed, errors)
// - Histogram: Latency distributions (processing time)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rank_it",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rank_it",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomPlayers tracks the number of players in each room
	RoomPlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rank_it",
		Subsystem: "room",
		Name:      "players_count",
		Help:      "Number of players in each room",
	}, []string{"room_code"})

	// GamesCompleted tracks finished games (rooms reaching the ended state)
	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "room",
		Name:      "games_completed_total",
		Help:      "Total games played to completion",
	})

	// WebsocketEvents tracks the total number of WebSocket commands processed
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket events processed",
	}, []string{"event_type", "status"})

	// MessageProcessingDuration tracks the time the room actor spends per command
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rank_it",
		Subsystem: "websocket",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing room commands",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	// EmojiRequests tracks emoji lookups by outcome (provider, fallback)
	EmojiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "emoji",
		Name:      "requests_total",
		Help:      "Total emoji lookups by source",
	}, []string{"source"})

	// EmojiBudgetUsed tracks the daily upstream request budget consumption
	EmojiBudgetUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rank_it",
		Subsystem: "emoji",
		Name:      "budget_used",
		Help:      "LLM emoji lookups used today",
	})

	// CircuitBreakerState reports the item store breaker state (0 closed, 1 open, 2 half-open)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rank_it",
		Subsystem: "store",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state per dependency",
	}, []string{"dependency"})

	// CircuitBreakerFailures counts requests rejected by an open breaker
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "store",
		Name:      "circuit_breaker_failures_total",
		Help:      "Requests rejected while the circuit breaker was open",
	}, []string{"dependency"})

	// RateLimitRequests counts requests that passed the rate limiter
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "ratelimit",
		Name:      "requests_total",
		Help:      "Requests checked by the rate limiter",
	}, []string{"endpoint"})

	// RateLimitExceeded counts requests rejected by the rate limiter
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rank_it",
		Subsystem: "ratelimit",
		Name:      "exceeded_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"endpoint", "limit_type"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
