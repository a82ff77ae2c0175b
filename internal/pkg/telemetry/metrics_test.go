package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCheck("hit")
	m.ObserveCheck("hit")
	m.ObserveRemediation("emoji", "passive", nil)
	m.ObserveRemediation("emoji", "passive", errors.New("boom"))
	m.ObserveDecision("block")
	m.ObserveMerge(nil)
	m.ObserveLoad(nil)

	if got := testutil.ToFloat64(m.CheckTotal.WithLabelValues("hit")); got != 2 {
		t.Errorf("check hit = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.RemediationTotal.WithLabelValues("emoji", "passive", "error")); got != 1 {
		t.Errorf("remediation error = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.DecisionTotal.WithLabelValues("block")); got != 1 {
		t.Errorf("decision block = %v; want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	// none of these may panic
	m.ObserveCheck("miss")
	m.ObserveRemediation("icon", "confirmed", nil)
	m.ObserveDecision("keep")
	m.ObserveMerge(nil)
	m.ObserveLoad(errors.New("down"))
}
