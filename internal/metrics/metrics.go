// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorial_runs_total",
			Help: "Editorial pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	EngineResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorial_engine_results_total",
			Help: "Generative backend attempts by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)

	ImageTiers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorial_image_tier_total",
			Help: "Image cascade resolutions by tier",
		},
		[]string{"tier"},
	)

	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorial_dispatch_total",
			Help: "Social fan-out webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "editorial_run_duration_seconds",
			Help:    "Wall time of one editorial run",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"trigger"},
	)
)
