package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codecrew_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecrew_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"cache", "result"})

	// VotesTotal counts vote toggles by target type and outcome.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecrew_votes_total",
		Help: "Total number of vote toggles",
	}, []string{"target_type", "outcome"})

	// ContentCreated counts created problems, answers and comments.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecrew_content_created_total",
		Help: "Total number of created content items",
	}, []string{"kind"})

	// AuthEvents counts signups, logins and refreshes by method and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecrew_auth_events_total",
		Help: "Total number of authentication events",
	}, []string{"event", "result"})

	// WebSocketConnections is the number of live realtime connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codecrew_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped for slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codecrew_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a func that records latency for (operation, table) when called.
//
//	defer observability.TrackQuery("list", "problems")()
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
