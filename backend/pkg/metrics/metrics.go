package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph store metrics
	GraphQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_query_duration_seconds",
			Help:    "Duration of Neo4j queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	GraphQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_query_errors_total",
			Help: "Total number of failed Neo4j queries",
		},
		[]string{"operation"},
	)

	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Recommendation metrics
	RecommendationsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_returned_total",
			Help: "Recommendations returned to callers, by winning strategy",
		},
		[]string{"strategy"},
	)

	NetworkNodesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "network_nodes_returned",
			Help:    "Node count of extracted movie networks",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500},
		},
	)
)

// RecordGraphQuery records a graph query metric
func RecordGraphQuery(operation string, duration time.Duration, err error) {
	GraphQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		GraphQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordRecommendation counts one returned recommendation
func RecordRecommendation(strategy string) {
	RecommendationsReturned.WithLabelValues(strategy).Inc()
}

// RecordNetworkSize records the node count of one extracted network
func RecordNetworkSize(nodes int) {
	NetworkNodesReturned.Observe(float64(nodes))
}
