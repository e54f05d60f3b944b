package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the advisor.
	Registry = prometheus.NewRegistry()

	// SimCalls counts simulation engine submissions by outcome.
	SimCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_calls_total", Help: "Simulation engine submissions by outcome."},
		[]string{"outcome"},
	)
	// SimDuration records engine round-trip time in seconds.
	SimDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "sim_call_duration_seconds", Help: "Simulation engine round-trip in seconds.", Buckets: prometheus.DefBuckets},
	)
	// Recommendations counts issued charging recommendations by trigger.
	Recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "recommendations_total", Help: "Charging recommendations by trigger."},
		[]string{"trigger"},
	)
	// LoopsDetected counts loop-detector hits.
	LoopsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "loops_detected_total", Help: "Customers flagged as looping."},
	)
	// RunScore holds the score of the latest completed run.
	RunScore = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "run_score", Help: "Score of the latest completed run."},
	)
)

// RegisterDefault registers collectors on the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SimCalls)
		Registry.MustRegister(SimDuration)
		Registry.MustRegister(Recommendations)
		Registry.MustRegister(LoopsDetected)
		Registry.MustRegister(RunScore)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
