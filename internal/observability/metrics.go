package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcomes recorded by StateLoads.
const (
	LoadOutcomeSeeded     = "seeded"
	LoadOutcomeReconciled = "reconciled"
	LoadOutcomeDegraded   = "degraded"
)

var (
	// PersistenceFailures counts swallowed storage errors by operation (load, save).
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postfarm_persistence_failures_total",
		Help: "Total number of storage operations that failed and were ignored",
	}, []string{"operation"})

	// PersistenceLatency records storage slot latency by operation.
	PersistenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postfarm_persistence_latency_seconds",
		Help:    "Storage slot latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// StateLoads counts startup loads by outcome.
	StateLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postfarm_state_loads_total",
		Help: "Total number of state loads by outcome",
	}, []string{"outcome"})

	// Mutations counts applied store mutations by operation.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postfarm_mutations_total",
		Help: "Total number of store mutations by operation",
	}, []string{"operation"})

	// RedisErrors counts Redis command errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postfarm_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})
)

// TrackPersistence returns a function that records latency for operation when called (e.g. defer).
func TrackPersistence(operation string) func() {
	start := time.Now()
	return func() {
		PersistenceLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
