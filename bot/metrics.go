package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simpomni",
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Commands handled, by command and outcome (ok, error, unknown).",
		},
		[]string{"command", "outcome"},
	)

	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simpomni",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Updates received, by how they were routed (command, text, ignored).",
		},
		[]string{"kind"},
	)

	pollErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "simpomni",
			Subsystem: "bot",
			Name:      "poll_errors_total",
			Help:      "Failed getUpdates calls.",
		},
	)
)
