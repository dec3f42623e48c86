package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records outcome counters and latency for the coin workflows
// (task escrow, submissions, withdrawals, coin purchases).
type WorkflowMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_duration_seconds",
		Help:    "Duration of coin workflow operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"workflow"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_outcomes_total",
		Help: "Coin workflow operations by outcome.",
	}, []string{"workflow", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &WorkflowMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records how long the named workflow took.
func (w *WorkflowMetrics) ObserveDuration(workflow string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(workflow)).Observe(duration.Seconds())
}

// IncSuccess increments the success outcome for the named workflow.
func (w *WorkflowMetrics) IncSuccess(workflow string) {
	w.inc(workflow, "success")
}

// IncFailure increments the failure outcome for the named workflow.
func (w *WorkflowMetrics) IncFailure(workflow string) {
	w.inc(workflow, "failure")
}

// IncRejected increments the rejected outcome, used when a guard condition
// (insufficient funds, no slots, duplicate) stops a workflow.
func (w *WorkflowMetrics) IncRejected(workflow string) {
	w.inc(workflow, "rejected")
}

func (w *WorkflowMetrics) inc(workflow, outcome string) {
	if w == nil || w.outcomes == nil {
		return
	}
	w.outcomes.WithLabelValues(normalizeLabel(workflow), outcome).Inc()
}

func normalizeLabel(workflow string) string {
	if workflow == "" {
		return "unknown"
	}
	return workflow
}
