package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the image blocklist.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CheckTotal       *prometheus.CounterVec
	RemediationTotal *prometheus.CounterVec
	DecisionTotal    *prometheus.CounterVec
	BlocklistMerges  *prometheus.CounterVec
	BlocklistLoads   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildguard_image_check_total",
			Help: "Images checked against a guild blocklist.",
		}, []string{"result"}),

		RemediationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildguard_remediation_total",
			Help: "Remediations performed, by source kind and trigger.",
		}, []string{"kind", "trigger", "status"}),

		DecisionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildguard_confirmation_decision_total",
			Help: "Moderator decisions collected by the confirmation workflow.",
		}, []string{"decision"}),

		BlocklistMerges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildguard_blocklist_merge_total",
			Help: "Blocklist merges, by outcome.",
		}, []string{"status"}),

		BlocklistLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guildguard_blocklist_load_total",
			Help: "Blocklist loads from storage, by outcome.",
		}, []string{"status"}),
	}
}

// ObserveCheck records one blocklist membership check.
func (m *Metrics) ObserveCheck(result string) {
	if m == nil {
		return
	}
	m.CheckTotal.WithLabelValues(result).Inc()
}

// ObserveRemediation records one remediation attempt.
func (m *Metrics) ObserveRemediation(kind, trigger string, err error) {
	if m == nil {
		return
	}
	m.RemediationTotal.WithLabelValues(kind, trigger, status(err)).Inc()
}

// ObserveDecision records one moderator decision.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.DecisionTotal.WithLabelValues(decision).Inc()
}

// ObserveMerge records one merge attempt.
func (m *Metrics) ObserveMerge(err error) {
	if m == nil {
		return
	}
	m.BlocklistMerges.WithLabelValues(status(err)).Inc()
}

// ObserveLoad records one storage load.
func (m *Metrics) ObserveLoad(err error) {
	if m == nil {
		return
	}
	m.BlocklistLoads.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
