package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkflowMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.IncTransition("request", "CHECKED")
	m.IncTransition("request", "CHECKED")
	m.IncConflict("request")
	m.IncRejection("stock_replenishment", "OUT_OF_ORDER")

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("request", "CHECKED")); got != 2 {
		t.Fatalf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.conflicts.WithLabelValues("request")); got != 1 {
		t.Fatalf("conflicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("stock_replenishment", "OUT_OF_ORDER")); got != 1 {
		t.Fatalf("rejections = %v, want 1", got)
	}
}

func TestWorkflowMetricsNilSafe(t *testing.T) {
	var m *WorkflowMetrics
	m.IncTransition("request", "CHECKED")
	m.IncRejection("request", "STAGE_MISMATCH")
	m.IncConflict("request")

	unregistered := NewWorkflowMetrics(nil)
	unregistered.IncTransition("request", "CHECKED")
}
