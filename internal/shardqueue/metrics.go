package shardqueue

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a job gave up, used as the "reason" label of jobFailuresTotal.
const (
	reasonFailed    = "failed"
	reasonExhausted = "exhausted"
	reasonCancelled = "cancelled"
	reasonStopped   = "stopped"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "jobs_submitted_total",
		Help:      "Jobs accepted onto a chat shard, by kind.",
	}, []string{"kind"})

	queueFullTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "jobs_rejected_total",
		Help:      "Jobs dropped because their chat shard stayed full, by kind.",
	}, []string{"kind"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "job_retries_total",
		Help:      "Repeat attempts after a recoverable error, by kind.",
	}, []string{"kind"})

	jobFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "job_failures_total",
		Help:      "Jobs that gave up, by kind and reason.",
	}, []string{"kind", "reason"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "job_duration_seconds",
		Help:      "Time spent in a single job attempt, by kind.",
		Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	// Written only by the shard's own worker.
	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "simpomni",
		Subsystem: "queue",
		Name:      "shard_depth",
		Help:      "Jobs waiting on each shard.",
	}, []string{"shard"})
)

func shardLabel(i int) string { return strconv.Itoa(i) }
