package pipeline

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/waterfall"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
	"github.com/sells-group/enrich-cli/pkg/enrichlayer"
	"github.com/sells-group/enrich-cli/pkg/hunter"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// Clients holds the provider clients shared by the company and lead
// pipelines. A nil client makes its stages silent configuration skips.
type Clients struct {
	Apollo      apollo.Client
	EnrichLayer enrichlayer.Client
	CoreSignal  coresignal.Client
	Hunter      hunter.Client
	Serper      serper.Client
}

// Instrument wraps every client with calls.
func (c Clients) Instrument(calls Calls) Clients {
	return Clients{
		Apollo:      calls.Apollo(c.Apollo),
		EnrichLayer: calls.EnrichLayer(c.EnrichLayer),
		CoreSignal:  calls.CoreSignal(c.CoreSignal),
		Hunter:      calls.Hunter(c.Hunter),
		Serper:      calls.Serper(c.Serper),
	}
}

// CompanyResult is the outcome of enriching one company.
type CompanyResult struct {
	Company    model.Company                `json:"company"`
	Discovery  *model.DomainDiscoveryResult `json:"discovery,omitempty"`
	Resolution *waterfall.Result            `json:"resolution,omitempty"`
	Stages     []model.StageResult          `json:"stages"`
}

// Enricher drives one company through every provider stage in fixed order.
type Enricher struct {
	clients  Clients
	chain    *discovery.Chain
	resolver *waterfall.Resolver
	research bool
	now      func() time.Time
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithDiscoveryChain overrides the default CoreSignal discovery chain.
func WithDiscoveryChain(ch *discovery.Chain) EnricherOption {
	return func(e *Enricher) { e.chain = ch }
}

// WithResolver sets the field resolver.
func WithResolver(r *waterfall.Resolver) EnricherOption {
	return func(e *Enricher) { e.resolver = r }
}

// WithResearch enables the serper_research stage, which estimates buying
// signals from search results once every provider has answered.
func WithResearch(on bool) EnricherOption {
	return func(e *Enricher) { e.research = on }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) EnricherOption {
	return func(e *Enricher) { e.now = now }
}

// NewEnricher creates an Enricher. Without an explicit chain, discovery uses
// the default CoreSignal strategies when CoreSignal is configured.
func NewEnricher(clients Clients, opts ...EnricherOption) *Enricher {
	e := &Enricher{clients: clients, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	if e.resolver == nil {
		e.resolver = waterfall.NewResolver(nil)
	}
	if e.chain == nil && clients.CoreSignal != nil {
		e.chain = discovery.NewChain(discovery.DefaultStrategies(clients.CoreSignal, discovery.Confidences{}))
	}
	return e
}

// Enrich runs the full company pipeline. It never fails: stage errors are
// recorded in the stage log and the company is returned as far as it got.
func (e *Enricher) Enrich(ctx context.Context, rc *RunContext, input model.Company) *CompanyResult {
	start := time.Now()
	company := input
	company.Provenance = maps.Clone(input.Provenance)
	res := &CompanyResult{}

	runStage(ctx, rc, StageApollo, func(_ context.Context, rc *RunContext) ([]string, error) {
		if !company.HasIdentity() {
			return nil, skip("no identity")
		}
		var fields []string
		for _, rec := range primaryRecord(&company, e.now()) {
			rc.AddRecord(rec)
			fields = append(fields, recordFields(rec)...)
		}
		slices.Sort(fields)
		return fields, nil
	})

	runStage(ctx, rc, StageEnrichLayer, func(ctx context.Context, rc *RunContext) ([]string, error) {
		target := company.ProfileURL()
		if target == "" && company.Domain != "" {
			target = "https://" + company.Domain
		}
		if target == "" {
			return nil, skip("no profile or web URL")
		}
		if e.clients.EnrichLayer == nil {
			return nil, apierr.NotConfigured(model.SourceEnrichLayer)
		}
		profile, err := e.clients.EnrichLayer.Company(ctx, target)
		if err != nil {
			return nil, err
		}
		rec := enrichLayerRecord(profile, e.now())
		rc.AddRecord(rec)
		return recordFields(rec), nil
	})

	e.settleKey(rc, &company)

	runStage(ctx, rc, StageDomainDiscovery, func(ctx context.Context, rc *RunContext) ([]string, error) {
		if company.Domain != "" {
			return nil, skip("domain already known")
		}
		if e.chain == nil {
			return nil, apierr.NotConfigured(model.SourceCoreSignal)
		}
		found, _ := e.chain.Discover(ctx, &company)
		if found == nil {
			return nil, eris.New("discovery: no strategy found a domain")
		}
		res.Discovery = found
		rc.AddRecord(model.NewSourceRecord(model.SourceDiscovery, map[string]any{model.FieldDomain: found.Key}, e.now()))
		company.SetField(model.FieldDomain, found.Key, model.SourceDiscovery)
		rc.Lock(model.FieldDomain)
		return []string{model.FieldDomain}, nil
	})

	runStage(ctx, rc, StageCoreSignal, func(ctx context.Context, rc *RunContext) ([]string, error) {
		if company.Domain == "" {
			return nil, skip("no domain")
		}
		if e.clients.CoreSignal == nil {
			return nil, apierr.NotConfigured(model.SourceCoreSignal)
		}
		cs, err := e.clients.CoreSignal.EnrichByDomain(ctx, company.Domain)
		if err != nil {
			return nil, err
		}
		rec := coreSignalRecord(cs, e.now())
		rc.AddRecord(rec)
		return recordFields(rec), nil
	})

	runStage(ctx, rc, StageHunter, func(ctx context.Context, rc *RunContext) ([]string, error) {
		if company.Domain == "" {
			return nil, skip("no domain")
		}
		if e.clients.Hunter == nil {
			return nil, apierr.NotConfigured(model.SourceHunter)
		}
		hr, err := e.clients.Hunter.DomainSearch(ctx, company.Domain)
		if err != nil {
			return nil, err
		}
		rec := hunterRecord(hr, e.now())
		rc.AddRecord(rec)
		return recordFields(rec), nil
	})

	runStage(ctx, rc, StageResolve, func(_ context.Context, rc *RunContext) ([]string, error) {
		before := company.Snapshot()
		res.Resolution = e.resolver.Resolve(&company, rc.Records(), rc.Locked())
		return diffFields(before, company.Snapshot()), nil
	})

	runStage(ctx, rc, StageSerperFields, func(ctx context.Context, rc *RunContext) ([]string, error) {
		return e.searchMissing(ctx, rc, &company)
	})

	runStage(ctx, rc, StageSerperSocial, func(ctx context.Context, rc *RunContext) ([]string, error) {
		return e.searchSocial(ctx, rc, &company)
	})

	if e.research {
		runStage(ctx, rc, StageSerperResearch, func(ctx context.Context, rc *RunContext) ([]string, error) {
			return e.researchSignals(ctx, rc, &company)
		})
	}

	res.Company = company
	res.Stages = rc.Stages()
	rc.Log.Info("pipeline: company enriched",
		zap.String("company", company.Name),
		zap.String("domain", company.Domain),
		zap.Int("fields", len(company.Snapshot())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// settleKey applies the best domain gathered so far and locks it. Once a
// company has a domain no later stage may replace it.
func (e *Enricher) settleKey(rc *RunContext, c *model.Company) {
	if c.Domain == "" {
		e.resolveFields(rc, c, []string{model.FieldDomain})
	}
	if c.Domain != "" {
		rc.Lock(model.FieldDomain)
	}
}

// resolveFields re-runs the waterfall for the named fields only.
func (e *Enricher) resolveFields(rc *RunContext, c *model.Company, fields []string) []string {
	locked := rc.Locked()
	var changed []string
	for _, field := range fields {
		if locked[field] {
			continue
		}
		before := c.Field(field)
		if waterfall.Apply(c, field, e.resolver.Candidates(field, rc.Records())) == nil {
			continue
		}
		if !reflect.DeepEqual(before, c.Field(field)) {
			changed = append(changed, field)
		}
	}
	if slices.Contains(changed, model.FieldDomain) {
		rc.Lock(model.FieldDomain)
	}
	return changed
}

func recordFields(rec model.SourceRecord) []string {
	return slices.Sorted(maps.Keys(rec.Fields))
}

func diffFields(before, after map[string]any) []string {
	var out []string
	for key, v := range after {
		if !reflect.DeepEqual(before[key], v) {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}
