package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics counts transition outcomes per entity type. A nil receiver
// is safe so services can run without a registry wired (tests, tooling).
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow counters on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Committed workflow state transitions.",
	}, []string{"entity", "to_state"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transition_rejections_total",
		Help: "Workflow commands rejected before any state change.",
	}, []string{"entity", "reason"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_version_conflicts_total",
		Help: "Compare-and-swap failures from concurrent actors.",
	}, []string{"entity"})
	reg.MustRegister(transitions, rejections, conflicts)
	return &WorkflowMetrics{
		transitions: transitions,
		rejections:  rejections,
		conflicts:   conflicts,
	}
}

// IncTransition records a committed transition.
func (w *WorkflowMetrics) IncTransition(entity, toState string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(toState)).Inc()
}

// IncRejection records a command refused by workflow rules.
func (w *WorkflowMetrics) IncRejection(entity, reason string) {
	if w == nil || w.rejections == nil {
		return
	}
	w.rejections.WithLabelValues(normalizeLabel(entity), normalizeLabel(reason)).Inc()
}

// IncConflict records a stale-version write.
func (w *WorkflowMetrics) IncConflict(entity string) {
	if w == nil || w.conflicts == nil {
		return
	}
	w.conflicts.WithLabelValues(normalizeLabel(entity)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
