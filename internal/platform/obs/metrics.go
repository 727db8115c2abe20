package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PlansTotal counts planning runs by outcome (ok, partial, unreachable, no_route, error).
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_route_plans_total",
			Help: "Total number of route planning runs",
		},
		[]string{"outcome"},
	)

	// VisitsTotal counts POI requirements by category and resolution.
	VisitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_route_visits_total",
			Help: "POI requirements resolved, by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// GraphQueriesTotal counts routing graph backend calls.
	GraphQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_route_graph_queries_total",
			Help: "Routing graph backend queries, by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// OpSeconds tracks latency of timed operations.
	OpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poi_route_op_seconds",
			Help:    "Latency of timed operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"op"},
	)

	// PathCacheTotal counts shortest-path cache lookups.
	PathCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_route_path_cache_total",
			Help: "Shortest-path cache lookups, by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(PlansTotal)
	prometheus.MustRegister(VisitsTotal)
	prometheus.MustRegister(GraphQueriesTotal)
	prometheus.MustRegister(OpSeconds)
	prometheus.MustRegister(PathCacheTotal)
}
