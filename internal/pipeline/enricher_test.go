package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
	csmocks "github.com/sells-group/enrich-cli/pkg/coresignal/mocks"
	"github.com/sells-group/enrich-cli/pkg/enrichlayer"
	elmocks "github.com/sells-group/enrich-cli/pkg/enrichlayer/mocks"
	"github.com/sells-group/enrich-cli/pkg/hunter"
	huntermocks "github.com/sells-group/enrich-cli/pkg/hunter/mocks"
	"github.com/sells-group/enrich-cli/pkg/serper"
	serpermocks "github.com/sells-group/enrich-cli/pkg/serper/mocks"
)

func stageStatuses(stages []model.StageResult) map[string]model.StageStatus {
	out := make(map[string]model.StageStatus, len(stages))
	for _, s := range stages {
		out[s.Name] = s.Status
	}
	return out
}

func findStage(t *testing.T, stages []model.StageResult, name string) model.StageResult {
	t.Helper()
	for _, s := range stages {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("stage %s not run", name)
	return model.StageResult{}
}

func TestEnrich_FullFlow(t *testing.T) {
	const profile = "https://www.linkedin.com/company/acme-labs"

	var input model.Company
	input.SetField(model.FieldName, "Acme Labs", model.SourceApollo)
	input.SetField(model.FieldCompanyLinkedInURL, profile, model.SourceApollo)
	input.SetField(model.FieldIndustry, "Software", model.SourceApollo)

	el := elmocks.NewMockClient(t)
	el.On("Company", mock.Anything, profile).Return(&enrichlayer.CompanyProfile{
		Name:        "Acme Labs Inc",
		Description: "Warehouse robots",
		Industry:    "Robotics",
		FoundedYear: 2015,
	}, nil).Once()

	cs := csmocks.NewMockClient(t)
	cs.On("CollectBySlug", mock.Anything, "acme-labs").
		Return(&coresignal.Company{WebsitesMain: "https://www.acme-labs.com/about"}, nil).Once()
	cs.On("EnrichByDomain", mock.Anything, "www.acme-labs.com").Return(&coresignal.Company{
		EmployeesCount: float64(120),
		HQAddress:      "1 Main St, Austin, TX",
	}, nil).Once()

	hm := huntermocks.NewMockClient(t)
	hm.On("DomainSearch", mock.Anything, "www.acme-labs.com").Return(&hunter.DomainSearchResult{
		Pattern: "{first}.{last}",
		Emails:  []hunter.Email{{Value: "jane.doe@acme-labs.com", Confidence: 96, FirstName: "Jane", LastName: "Doe"}},
	}, nil).Once()

	sm := serpermocks.NewMockClient(t)
	sm.On("Search", mock.Anything, "Acme Labs Inc").Return(&serper.SearchResponse{Organic: []serper.Result{
		{Title: "Acme Labs Inc", Link: "https://www.acme-labs.com"},
		{Title: "Acme Labs | LinkedIn", Link: "https://www.linkedin.com/company/acme-labs"},
		{Title: "Acme Labs (@acmelabs)", Link: "https://twitter.com/acmelabs"},
	}}, nil).Once()
	sm.On("News", mock.Anything, "Acme Labs Inc").
		Return(&serper.NewsResponse{News: []serper.NewsItem{{Title: "Acme raises Series B"}}}, nil).Once()
	sm.On("Location", mock.Anything, "Acme Labs Inc").
		Return(&serper.LocationResponse{Locations: []serper.Location{{FormattedAddress: "1 Main St, Austin, TX 78701"}}}, nil).Once()
	sm.On("Search", mock.Anything, "site:facebook.com Acme Labs Inc").Return(&serper.SearchResponse{}, nil).Once()
	sm.On("Search", mock.Anything, "site:youtube.com Acme Labs Inc").Return(&serper.SearchResponse{}, nil).Once()
	sm.On("Search", mock.Anything, "site:github.com Acme Labs Inc").Return(&serper.SearchResponse{Organic: []serper.Result{
		{Link: "https://github.com/acme-labs"},
	}}, nil).Once()

	e := NewEnricher(Clients{EnrichLayer: el, CoreSignal: cs, Hunter: hm, Serper: sm})
	sink := &recordingSink{}
	res := e.Enrich(context.Background(), newTestRunContext(sink), input)
	c := res.Company

	require.NotNil(t, res.Discovery)
	assert.Equal(t, "www.acme-labs.com", res.Discovery.Key)
	assert.Equal(t, discovery.StrategySlugLookup, res.Discovery.StrategyName)

	assert.Equal(t, "www.acme-labs.com", c.Domain)
	assert.Equal(t, model.SourceDiscovery, c.Provenance.Source(model.FieldDomain))
	assert.Equal(t, "Acme Labs Inc", c.Name)
	assert.Equal(t, "Robotics", c.Industry)
	assert.Equal(t, model.SourceEnrichLayer, c.Provenance.Source(model.FieldIndustry))
	assert.Equal(t, 2015, c.FoundedYear)
	assert.Equal(t, 120, c.EmployeeCount)
	assert.Equal(t, model.SourceCoreSignal, c.Provenance.Source(model.FieldEmployeeCount))
	assert.Equal(t, "1 Main St, Austin, TX", c.Headquarters)
	assert.Equal(t, profile, c.CompanyLinkedInURL)
	assert.Equal(t, model.SourceApollo, c.Provenance.Source(model.FieldCompanyLinkedInURL))

	require.Len(t, c.Contacts, 1)
	assert.Equal(t, "{first}.{last}", c.EmailPattern)
	assert.Equal(t, model.SourceHunter, c.Provenance.Source(model.FieldContacts))

	assert.Equal(t, "https://twitter.com/acmelabs", c.TwitterURL)
	assert.Equal(t, "https://www.linkedin.com/company/acme-labs", c.LinkedInURL)
	assert.Equal(t, []string{"Acme raises Series B"}, c.RecentNews)
	assert.Equal(t, "1 Main St, Austin, TX 78701", c.Location)
	assert.Equal(t, "https://github.com/acme-labs", c.GitHubURL)
	for _, f := range []string{model.FieldTwitterURL, model.FieldLinkedInURL, model.FieldRecentNews, model.FieldLocation, model.FieldGitHubURL} {
		assert.Equal(t, model.SourceSerper, c.Provenance.Source(f), f)
	}
	assert.Empty(t, c.FacebookURL)

	require.Len(t, res.Stages, 8)
	for _, s := range res.Stages {
		assert.Equal(t, model.StageStatusComplete, s.Status, "stage %s: %s", s.Name, s.Error)
	}
	assert.Equal(t, []string{model.FieldLinkedInURL, model.FieldLocation, model.FieldRecentNews, model.FieldTwitterURL},
		findStage(t, res.Stages, StageSerperFields).FieldsChanged)
	assert.Len(t, sink.Events(), 8)
	require.NotNil(t, res.Resolution)
	assert.Positive(t, res.Resolution.FieldsResolved)
}

func TestEnrich_UnparseableProviderValuesFallThrough(t *testing.T) {
	var input model.Company
	input.SetField(model.FieldName, "Acme", model.SourceApollo)
	input.SetField(model.FieldDomain, "acme.com", model.SourceApollo)
	input.SetField(model.FieldFoundedYear, 1999, model.SourceApollo)
	input.SetField(model.FieldEmployeeCount, 120, model.SourceApollo)

	cs := csmocks.NewMockClient(t)
	cs.On("EnrichByDomain", mock.Anything, "acme.com").Return(&coresignal.Company{
		Founded:   "unknown",
		SizeRange: "Myself only",
		Industry:  "Manufacturing",
	}, nil).Once()

	e := NewEnricher(Clients{CoreSignal: cs})
	res := e.Enrich(context.Background(), newTestRunContext(nil), input)
	c := res.Company

	assert.Equal(t, 1999, c.FoundedYear)
	assert.Equal(t, 120, c.EmployeeCount)
	assert.Equal(t, model.SourceApollo, c.Provenance.Source(model.FieldFoundedYear))
	assert.Equal(t, model.SourceApollo, c.Provenance.Source(model.FieldEmployeeCount))
	assert.Equal(t, "Manufacturing", c.Industry)
	assert.Equal(t, model.SourceCoreSignal, c.Provenance.Source(model.FieldIndustry))

	require.NotNil(t, res.Resolution)
	founded := res.Resolution.Resolutions[model.FieldFoundedYear]
	require.NotNil(t, founded.Winner)
	assert.Equal(t, model.SourceApollo, founded.Winner.Source)
}

func TestEnrich_NoProvidersConfigured(t *testing.T) {
	e := NewEnricher(Clients{})
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme", Domain: "acme.com"})

	assert.Equal(t, map[string]model.StageStatus{
		StageApollo:          model.StageStatusComplete,
		StageEnrichLayer:     model.StageStatusSkipped,
		StageDomainDiscovery: model.StageStatusSkipped,
		StageCoreSignal:      model.StageStatusSkipped,
		StageHunter:          model.StageStatusSkipped,
		StageResolve:         model.StageStatusComplete,
		StageSerperFields:    model.StageStatusSkipped,
		StageSerperSocial:    model.StageStatusSkipped,
	}, stageStatuses(res.Stages))
	assert.Equal(t, "not configured", findStage(t, res.Stages, StageHunter).Reason)
	assert.Equal(t, "domain already known", findStage(t, res.Stages, StageDomainDiscovery).Reason)
	assert.Equal(t, "Acme", res.Company.Name)
	assert.Equal(t, "acme.com", res.Company.Domain)
	assert.Nil(t, res.Discovery)
}

func TestEnrich_NoIdentitySkipsEverything(t *testing.T) {
	e := NewEnricher(Clients{})
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Industry: "Software"})

	apolloStage := findStage(t, res.Stages, StageApollo)
	assert.Equal(t, model.StageStatusSkipped, apolloStage.Status)
	assert.Equal(t, "no identity", apolloStage.Reason)
	assert.Equal(t, "no profile or web URL", findStage(t, res.Stages, StageEnrichLayer).Reason)
}

func TestEnrich_StageFailureDoesNotAbort(t *testing.T) {
	el := elmocks.NewMockClient(t)
	el.On("Company", mock.Anything, "https://acme.com").
		Return(nil, &apierr.HTTPError{Provider: "enrichlayer", StatusCode: 500}).Once()

	hm := huntermocks.NewMockClient(t)
	hm.On("DomainSearch", mock.Anything, "acme.com").Return(&hunter.DomainSearchResult{
		Emails: []hunter.Email{{Value: "sales@acme.com", Confidence: 80}},
	}, nil).Once()

	e := NewEnricher(Clients{EnrichLayer: el, Hunter: hm})
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme", Domain: "acme.com"})

	failed := findStage(t, res.Stages, StageEnrichLayer)
	assert.Equal(t, model.StageStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "500")
	assert.Equal(t, model.StageStatusComplete, findStage(t, res.Stages, StageHunter).Status)
	require.Len(t, res.Company.Contacts, 1)
	assert.Equal(t, "sales@acme.com", res.Company.Contacts[0].Email)
}

func TestEnrich_DomainNeverOverwritten(t *testing.T) {
	var input model.Company
	input.SetField(model.FieldName, "Acme", model.SourceApollo)
	input.SetField(model.FieldDomain, "acme.com", model.SourceApollo)

	el := elmocks.NewMockClient(t)
	el.On("Company", mock.Anything, "https://acme.com").Return(&enrichlayer.CompanyProfile{
		Name:    "Acme Corporation",
		Website: "https://other.com",
	}, nil).Once()

	e := NewEnricher(Clients{EnrichLayer: el})
	res := e.Enrich(context.Background(), newTestRunContext(nil), input)

	assert.Equal(t, "acme.com", res.Company.Domain)
	assert.Equal(t, model.SourceApollo, res.Company.Provenance.Source(model.FieldDomain))
	assert.Equal(t, "Acme Corporation", res.Company.Name, "other fields still follow priority")
	assert.NotContains(t, findStage(t, res.Stages, StageResolve).FieldsChanged, model.FieldDomain)
}

func TestEnrich_DomainFromEnrichLayerSkipsDiscovery(t *testing.T) {
	const profile = "https://www.linkedin.com/company/acme"

	el := elmocks.NewMockClient(t)
	el.On("Company", mock.Anything, profile).
		Return(&enrichlayer.CompanyProfile{Website: "https://acme.io/"}, nil).Once()

	// No CollectBySlug expectation: discovery must not run.
	cs := csmocks.NewMockClient(t)
	cs.On("EnrichByDomain", mock.Anything, "acme.io").
		Return(&coresignal.Company{WebsitesMain: "https://different.com"}, nil).Once()

	e := NewEnricher(Clients{EnrichLayer: el, CoreSignal: cs})
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme", CompanyLinkedInURL: profile})

	assert.Equal(t, "acme.io", res.Company.Domain)
	assert.Equal(t, model.SourceEnrichLayer, res.Company.Provenance.Source(model.FieldDomain))
	assert.Nil(t, res.Discovery)
	assert.Equal(t, "domain already known", findStage(t, res.Stages, StageDomainDiscovery).Reason)
}

func TestEnrich_PanicInProviderIsIsolated(t *testing.T) {
	hm := huntermocks.NewMockClient(t)
	hm.On("DomainSearch", mock.Anything, "acme.com").
		Run(func(mock.Arguments) { panic("boom") }).
		Return(nil, nil).Once()

	e := NewEnricher(Clients{Hunter: hm})
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme", Domain: "acme.com"})

	hunterStage := findStage(t, res.Stages, StageHunter)
	assert.Equal(t, model.StageStatusFailed, hunterStage.Status)
	assert.Equal(t, "panic: boom", hunterStage.Error)
	assert.Equal(t, model.StageStatusComplete, findStage(t, res.Stages, StageResolve).Status)
	assert.Len(t, res.Stages, 8)
}

func TestEnrich_DiscoveryExhausted(t *testing.T) {
	e := NewEnricher(Clients{}, WithDiscoveryChain(discovery.NewChain(nil)))
	res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Nameless Co"})

	disc := findStage(t, res.Stages, StageDomainDiscovery)
	assert.Equal(t, model.StageStatusFailed, disc.Status)
	assert.Equal(t, "discovery: no strategy found a domain", disc.Error)
	assert.Equal(t, "no domain", findStage(t, res.Stages, StageCoreSignal).Reason)
	assert.Equal(t, "no domain", findStage(t, res.Stages, StageHunter).Reason)
	assert.Empty(t, res.Company.Domain)
}

func TestEnrich_SearchEndpointFailures(t *testing.T) {
	t.Run("partial failure keeps what was found", func(t *testing.T) {
		sm := serpermocks.NewMockClient(t)
		sm.On("Search", mock.Anything, "Acme").Return(&serper.SearchResponse{Organic: []serper.Result{
			{Title: "Acme", Link: "https://acme.com", Snippet: "We make anvils"},
		}}, nil).Once()
		sm.On("News", mock.Anything, "Acme").Return(nil, errors.New("connection reset")).Once()
		sm.On("Location", mock.Anything, "Acme").Return(&serper.LocationResponse{}, nil).Once()
		sm.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool { return q != "Acme" })).
			Return(&serper.SearchResponse{}, nil)

		e := NewEnricher(Clients{Serper: sm})
		res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme"})

		fields := findStage(t, res.Stages, StageSerperFields)
		assert.Equal(t, model.StageStatusComplete, fields.Status)
		assert.Equal(t, "We make anvils", res.Company.Description)
		assert.Equal(t, "acme.com", res.Company.Domain)
		assert.Equal(t, model.SourceSerper, res.Company.Provenance.Source(model.FieldDomain))
	})

	t.Run("every endpoint failing fails the stage", func(t *testing.T) {
		sm := serpermocks.NewMockClient(t)
		boom := &apierr.HTTPError{Provider: "serper", StatusCode: 503}
		sm.On("Search", mock.Anything, mock.Anything).Return(nil, boom)
		sm.On("News", mock.Anything, "Acme").Return(nil, boom).Once()
		sm.On("Location", mock.Anything, "Acme").Return(nil, boom).Once()

		e := NewEnricher(Clients{Serper: sm})
		res := e.Enrich(context.Background(), newTestRunContext(nil), model.Company{Name: "Acme"})

		assert.Equal(t, model.StageStatusFailed, findStage(t, res.Stages, StageSerperFields).Status)
		assert.Equal(t, model.StageStatusFailed, findStage(t, res.Stages, StageSerperSocial).Status)
		assert.Empty(t, res.Company.Domain)
	})
}
