package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/internal/guardrail"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	apollomocks "github.com/sells-group/enrich-cli/pkg/apollo/mocks"
	huntermocks "github.com/sells-group/enrich-cli/pkg/hunter/mocks"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "batch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestBatchCompanies_NoIdentity(t *testing.T) {
	b := NewBatch(NewEnricher(Clients{}), nil)

	_, err := b.Companies(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = b.Companies(context.Background(), []model.Company{{Industry: "Software"}})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestBatchCompanies_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hm := huntermocks.NewMockClient(t)
	hm.On("DomainSearch", mock.Anything, mock.Anything).
		Return(nil, &apierr.HTTPError{Provider: "hunter", StatusCode: 500})

	tracker := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
	clients := Clients{Hunter: hm}.Instrument(fastCalls(tracker))

	var observed []model.ValidationStats
	b := NewBatch(NewEnricher(clients), nil,
		WithStore(s),
		WithTracker(tracker),
		WithConcurrency(2),
		WithSink(NewMultiSink(NewZapSink(zap.NewNop()), store.NewEventSink(s, 100))),
		WithValidationObserver(func(kind model.RunKind, stats model.ValidationStats) {
			assert.Equal(t, model.RunKindCompanies, kind)
			observed = append(observed, stats)
		}),
	)

	res, err := b.Companies(ctx, []model.Company{
		{Name: "Acme", Domain: "acme.com"},
		{Name: "Acme Duplicate", Domain: "ACME.com"},
		{Domain: "noname.io"},
		{Industry: "no identity"},
	})
	require.NoError(t, err)

	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Acme", res.Entities[0].Name)
	assert.NotEmpty(t, res.Entities[0].ID)

	assert.Equal(t, 2, res.Stats.Total, "duplicates are removed before validation")
	assert.Equal(t, 1, res.Stats.Passed)
	assert.Equal(t, 1, res.Stats.Filtered)
	assert.Equal(t, 1, res.Stats.RulesFailed[guardrail.RuleRequiredCompanyName])
	require.Len(t, observed, 1)
	assert.Equal(t, res.Stats, observed[0])

	require.Len(t, res.Errors, 4)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "company 3: no identity")
	assert.Contains(t, joined, "Acme: hunter: ")
	assert.Contains(t, joined, "Acme Duplicate: hunter: ")
	assert.Contains(t, joined, "entity 2: hunter: ")

	run, err := s.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 4, run.Input)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 1, run.Summary.Stats.Passed)
	assert.Equal(t, 3, run.Summary.Calls["hunter"])
	assert.Len(t, run.Summary.Errors, 4)

	events, err := s.ListStageEvents(ctx, res.RunID)
	require.NoError(t, err)
	assert.Len(t, events, 3*8, "every stage of every enriched company is recorded")
}

func TestBatchCompanies_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch(NewEnricher(Clients{}), nil)
	res, err := b.Companies(ctx, []model.Company{{Name: "Acme"}, {Name: "Beta"}})
	require.NoError(t, err)

	assert.Empty(t, res.Entities)
	assert.ElementsMatch(t, []string{"Acme: context canceled", "Beta: context canceled"}, res.Errors)
}

func TestBatchLeads_RequiresFinder(t *testing.T) {
	b := NewBatch(NewEnricher(Clients{}), nil)
	_, err := b.Leads(context.Background(), []model.Company{{Name: "Acme"}}, nil)
	assert.Error(t, err)
}

func TestBatchLeads_DedupesAndValidates(t *testing.T) {
	orgIs := func(id string) any {
		return mock.MatchedBy(func(req apollo.PeopleSearchRequest) bool {
			return len(req.OrganizationIDs) == 1 && req.OrganizationIDs[0] == id
		})
	}
	jane := apollo.Person{ID: "p1", FirstName: "Jane", LastName: "Doe", Email: "jane@acme.com", Title: "CTO"}

	am := apollomocks.NewMockClient(t)
	am.On("SearchPeople", mock.Anything, orgIs("org-a")).Return(&apollo.PeopleSearchResponse{People: []apollo.Person{
		jane,
		{ID: "p2", FirstName: "Solo", Email: "solo@acme.com"},
	}}, nil).Once()
	am.On("SearchPeople", mock.Anything, orgIs("org-b")).Return(&apollo.PeopleSearchResponse{People: []apollo.Person{
		jane,
	}}, nil).Once()

	var kinds []model.RunKind
	finder := NewLeadFinder(Clients{Apollo: am})
	b := NewBatch(NewEnricher(Clients{}), finder, WithValidationObserver(func(kind model.RunKind, _ model.ValidationStats) {
		kinds = append(kinds, kind)
	}))

	res, err := b.Leads(context.Background(), []model.Company{
		{OrganizationID: "org-a", Name: "Acme", Domain: "acme.com"},
		{OrganizationID: "org-b", Name: "Acme Holdings", Domain: "acme-holdings.com"},
	}, []model.Persona{{Name: "Exec", TitleRegex: []string{"cto|ceo"}}})
	require.NoError(t, err)

	require.Len(t, res.Entities, 1)
	lead := res.Entities[0]
	assert.Equal(t, "jane@acme.com", lead.Email)
	assert.Equal(t, "Exec", lead.MatchedPersona)
	assert.NotEmpty(t, lead.ID)

	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Filtered)
	assert.Equal(t, 1, res.Stats.RulesFailed[guardrail.RuleRequiredNameFields])
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []model.RunKind{model.RunKindLeads}, kinds)
}
