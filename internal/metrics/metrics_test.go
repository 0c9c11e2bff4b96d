package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestObserveCall(t *testing.T) {
	m := New()
	m.ObserveCall("apollo", "company_search", 1, true)
	m.ObserveCall("apollo", "company_search", 2, false)
	m.ObserveCall("apollo", "company_search", 1, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("apollo", "company_search", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("apollo", "company_search", "failure")))
}

func TestRecordStageEvents(t *testing.T) {
	m := New()
	ctx := context.Background()
	m.Record(ctx, model.StageEvent{Stage: "apollo", Success: true, FieldsChanged: []string{"name", "domain"}})
	m.Record(ctx, model.StageEvent{Stage: "enrichlayer", Skipped: true})
	m.Record(ctx, model.StageEvent{Stage: "hunter", Error: "boom"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageOutcomes.WithLabelValues("apollo", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageOutcomes.WithLabelValues("enrichlayer", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageOutcomes.WithLabelValues("hunter", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FieldsChanged.WithLabelValues("apollo")))
}

func TestObserveValidation(t *testing.T) {
	m := New()
	m.ObserveValidation(model.RunKindLeads, model.ValidationStats{
		Total: 3, Passed: 2, Filtered: 1,
		RulesFailed: map[string]int{"required_name_fields": 1},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntitiesEmitted.WithLabelValues("leads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesRejected.WithLabelValues("leads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardrailDrops.WithLabelValues("required_name_fields")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCall("serper", "search", 1, true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `enrich_provider_calls_total{call_type="search",outcome="success",provider="serper"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveCall("hunter", "domain_search", 1, true)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ProviderCalls.WithLabelValues("hunter", "domain_search", "success")))
}
