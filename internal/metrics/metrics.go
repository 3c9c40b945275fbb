// Package metrics holds the Prometheus collectors for reaper runs. They are
// registered on the default registry and served by `reaper schedule`.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reaper_runs_total",
		Help: "Reaper runs by job and outcome.",
	}, []string{"job", "outcome"})

	recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reaper_records_processed_total",
		Help: "Expired records fetched and attempted by a reaper.",
	}, []string{"job"})

	recordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reaper_records_failed_total",
		Help: "Records a reaper could not reconcile.",
	}, []string{"job"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reaper_run_duration_seconds",
		Help:    "Wall time of one reaper run.",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900, 1800},
	}, []string{"job"})
)

// ObserveRun records the result of one reaper run.
func ObserveRun(job string, processed, failed int, elapsed time.Duration, runErr error) {
	outcome := OutcomeSuccess
	if runErr != nil {
		outcome = OutcomeFailure
	}
	runsTotal.WithLabelValues(job, outcome).Inc()
	recordsProcessed.WithLabelValues(job).Add(float64(processed))
	recordsFailed.WithLabelValues(job).Add(float64(failed))
	runDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
