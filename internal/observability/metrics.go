// Package observability exposes Prometheus metrics for the negotiation core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoundsTotal counts rounds stepped, labeled by the phase the round
	// left the negotiation in.
	RoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_rounds_total",
		Help: "Total negotiation rounds stepped.",
	}, []string{"phase"})

	// OracleCallsTotal counts oracle invocations by caller component.
	OracleCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_oracle_calls_total",
		Help: "Total oracle completions requested.",
	}, []string{"component"})

	// OracleFallbacksTotal counts classifications that fell back to the
	// documented default (label outside the enumerated set).
	OracleFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_oracle_fallbacks_total",
		Help: "Oracle outputs resolved by a documented fallback.",
	}, []string{"component"})

	// ModuleTimeoutsTotal counts module invocations dropped by the
	// per-module timeout.
	ModuleTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accord_module_timeouts_total",
		Help: "Analysis module calls abandoned after timeout.",
	}, []string{"module"})

	// ConsensusIterations tracks how many voting iterations swarm decisions
	// take before reaching threshold or falling back.
	ConsensusIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accord_consensus_iterations",
		Help:    "Iterations used per swarm consensus decision.",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})

	// GenerationsTotal counts strategy-evolution generations advanced.
	GenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accord_evolution_generations_total",
		Help: "Strategy-evolution generations completed.",
	})
)
