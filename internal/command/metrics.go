// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess      = "success"
	StatusError        = "error"
	StatusInvalidArgs  = "invalid_args"
	StatusNotFound     = "not_found"
	StatusPostFailed   = "post_failed"
	StatusPostComplete = "post_success"
)

// CommandExecutions is the counter for subcommand executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hookhost_command_executions_total",
		Help: "Total number of subcommand executions",
	},
	[]string{"command", "source", "status"},
)

// CommandDuration is the histogram for subcommand execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "hookhost_command_duration_seconds",
		Help:    "Subcommand execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "source"},
)

// PostCommandExecutions is the counter for post-command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var PostCommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hookhost_post_command_executions_total",
		Help: "Total number of post-command executions",
	},
	[]string{"post_command", "command", "source", "status"},
)

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(PostCommandExecutions)
}

// RecordCommandExecution increments the command execution counter with the given attributes.
func RecordCommandExecution(command, source, status string) {
	CommandExecutions.WithLabelValues(command, source, status).Inc()
}

// RecordCommandDuration records the duration of a command execution.
func RecordCommandDuration(command, source string, duration time.Duration) {
	CommandDuration.WithLabelValues(command, source).Observe(duration.Seconds())
}

// RecordPostCommandExecution increments the post-command counter.
func RecordPostCommandExecution(post, command, source, status string) {
	PostCommandExecutions.WithLabelValues(post, command, source, status).Inc()
}

// WriteTextfile writes everything gathered by g to path in the
// node_exporter textfile collector format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
