package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks decision engine outcomes. Outcome is one of applied,
// missing_reason, illegal_transition, stale_state.
type Metrics struct {
	decisions      *prometheus.CounterVec
	staleConflicts prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fiu_portal_decisions_total",
			Help: "Decisions submitted to the workflow engine, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		staleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fiu_portal_decision_stale_conflicts_total",
			Help: "Decisions rejected because the report state changed after read.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.staleConflicts)
	}
	return m
}

func (m *Metrics) ObserveDecision(kind, outcome string) {
	m.decisions.WithLabelValues(kind, outcome).Inc()
	if outcome == "stale_state" {
		m.staleConflicts.Inc()
	}
}
