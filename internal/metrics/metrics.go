// Package metrics mirrors provider calls, stage outcomes and guardrail
// drops into Prometheus counters.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/enrich-cli/internal/model"
)

const namespace = "enrich"

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	reg *prometheus.Registry

	ProviderCalls    *prometheus.CounterVec
	StageOutcomes    *prometheus.CounterVec
	FieldsChanged    *prometheus.CounterVec
	GuardrailDrops   *prometheus.CounterVec
	EntitiesEmitted  *prometheus.CounterVec
	EntitiesRejected *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ProviderCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "External provider call attempts by outcome.",
		}, []string{"provider", "call_type", "outcome"}),
		StageOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      "Pipeline stage results per entity.",
		}, []string{"stage", "status"}),
		FieldsChanged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_fields_changed_total",
			Help:      "Fields populated by each stage.",
		}, []string{"stage"}),
		GuardrailDrops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guardrail_failures_total",
			Help:      "Guardrail rule failures.",
		}, []string{"rule"}),
		EntitiesEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_passed_total",
			Help:      "Entities that passed every guardrail.",
		}, []string{"kind"}),
		EntitiesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_filtered_total",
			Help:      "Entities dropped by the guardrails.",
		}, []string{"kind"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveCall counts count attempts. Its signature matches cost.Observer so
// it can be attached to the cost tracker.
func (m *Metrics) ObserveCall(provider, callType string, count int, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.ProviderCalls.WithLabelValues(provider, callType, outcome).Add(float64(count))
}

// Record counts one stage event. Metrics is usable as a pipeline event sink.
func (m *Metrics) Record(_ context.Context, ev model.StageEvent) {
	m.StageOutcomes.WithLabelValues(ev.Stage, stageStatus(ev)).Inc()
	if n := len(ev.FieldsChanged); n > 0 {
		m.FieldsChanged.WithLabelValues(ev.Stage).Add(float64(n))
	}
}

// ObserveValidation records the guardrail outcome of one batch.
func (m *Metrics) ObserveValidation(kind model.RunKind, stats model.ValidationStats) {
	m.EntitiesEmitted.WithLabelValues(string(kind)).Add(float64(stats.Passed))
	m.EntitiesRejected.WithLabelValues(string(kind)).Add(float64(stats.Filtered))
	for rule, n := range stats.RulesFailed {
		m.GuardrailDrops.WithLabelValues(rule).Add(float64(n))
	}
}

func stageStatus(ev model.StageEvent) string {
	switch {
	case ev.Skipped:
		return string(model.StageStatusSkipped)
	case ev.Success:
		return string(model.StageStatusComplete)
	default:
		return string(model.StageStatusFailed)
	}
}
