package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by trigger and outcome.
	// Labels: trigger (manual, scheduled, webhook), result (completed, failed, rejected)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repotrackr",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	// RunDuration tracks end-to-end run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repotrackr",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// RunsInFlight gauges currently executing runs.
	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "repotrackr",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing",
		},
	)

	// TasksExtracted tracks how many tasks each run recovered.
	TasksExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repotrackr",
			Subsystem: "pipeline",
			Name:      "tasks_extracted",
			Help:      "Number of tasks extracted per run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
