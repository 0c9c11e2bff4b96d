package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/guardrail"
	"github.com/sells-group/enrich-cli/internal/metrics"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/pipeline"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/social"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/waterfall"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
	"github.com/sells-group/enrich-cli/pkg/enrichlayer"
	"github.com/sells-group/enrich-cli/pkg/hunter"
	"github.com/sells-group/enrich-cli/pkg/mistral"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// pipelineEnv holds the store, instrumented clients and batch runner needed
// by the enrich and leads commands.
type pipelineEnv struct {
	Store    store.Store
	Events   *store.EventSink
	Tracker  *cost.Tracker
	Metrics  *metrics.Metrics
	Clients  pipeline.Clients
	Enricher *pipeline.Enricher
	Batch    *pipeline.Batch

	closers []func()
}

// Close flushes buffered stage events and releases resources.
func (pe *pipelineEnv) Close() {
	if pe.Events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pe.Events.Flush(ctx); err != nil {
			zap.L().Warn("flush stage events", zap.Error(err))
		}
		cancel()
	}
	for i := len(pe.closers) - 1; i >= 0; i-- {
		pe.closers[i]()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens the store and builds the
// batch runner. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &pipelineEnv{Store: st}

	env.Tracker = cost.NewTracker(cost.NewCalculator(pricingRates()))
	if cfg.Metrics.Enabled {
		env.Metrics = metrics.New()
		env.Tracker.Observe(env.Metrics.ObserveCall)
	}

	env.Clients = providerClients().Instrument(pipeline.Calls{
		Retry:    retryPolicy(),
		Recorder: env.Tracker,
	})

	resolver, err := fieldResolver()
	if err != nil {
		env.Close()
		return nil, err
	}

	env.Enricher = pipeline.NewEnricher(env.Clients,
		pipeline.WithResolver(resolver),
		pipeline.WithDiscoveryChain(discoveryChain(env.Clients.CoreSignal)),
		pipeline.WithResearch(cfg.Waterfall.Research),
	)

	cache, closeCache, err := initSocialCache(ctx, st)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.closers = append(env.closers, closeCache)

	leads := pipeline.NewLeadFinder(env.Clients,
		pipeline.WithMaxLeads(cfg.Batch.MaxLeadsPerCompany),
		pipeline.WithSocialResolver(social.NewResolver(
			social.WithApollo(env.Clients.Apollo),
			social.WithHunter(env.Clients.Hunter),
			social.WithSerper(env.Clients.Serper),
			social.WithCache(cache),
			social.WithScoring(socialScoring()),
		)),
	)

	companyRules, leadRules, err := validators()
	if err != nil {
		env.Close()
		return nil, err
	}

	env.Events = store.NewEventSink(st, cfg.Batch.EventBuffer)
	sinks := []pipeline.EventSink{pipeline.NewZapSink(zap.L()), env.Events}
	opts := []pipeline.BatchOption{
		pipeline.WithStore(st),
		pipeline.WithTracker(env.Tracker),
		pipeline.WithConcurrency(cfg.Batch.MaxConcurrentCompanies),
		pipeline.WithCompanyValidator(companyRules),
		pipeline.WithLeadValidator(leadRules),
	}
	if env.Metrics != nil {
		sinks = append(sinks, env.Metrics)
		opts = append(opts, pipeline.WithValidationObserver(env.Metrics.ObserveValidation))
		env.closers = append(env.closers, serveMetrics(env.Metrics))
	}
	opts = append(opts, pipeline.WithSink(pipeline.NewMultiSink(sinks...)))

	env.Batch = pipeline.NewBatch(env.Enricher, leads, opts...)
	return env, nil
}

// providerClients builds one client per data provider. Clients without a
// key report ErrNotConfigured and their stages are skipped.
func providerClients() pipeline.Clients {
	var (
		apolloOpts      []apollo.Option
		enrichLayerOpts []enrichlayer.Option
		coreSignalOpts  []coresignal.Option
		hunterOpts      []hunter.Option
		serperOpts      []serper.Option
	)
	if u := cfg.Apollo.BaseURL; u != "" {
		apolloOpts = append(apolloOpts, apollo.WithBaseURL(u))
	}
	if u := cfg.EnrichLayer.BaseURL; u != "" {
		enrichLayerOpts = append(enrichLayerOpts, enrichlayer.WithBaseURL(u))
	}
	if u := cfg.CoreSignal.BaseURL; u != "" {
		coreSignalOpts = append(coreSignalOpts, coresignal.WithBaseURL(u))
	}
	if u := cfg.Hunter.BaseURL; u != "" {
		hunterOpts = append(hunterOpts, hunter.WithBaseURL(u))
	}
	if u := cfg.Serper.BaseURL; u != "" {
		serperOpts = append(serperOpts, serper.WithBaseURL(u))
	}

	return pipeline.Clients{
		Apollo:      apollo.NewClient(cfg.Apollo.Key, apolloOpts...),
		EnrichLayer: enrichlayer.NewClient(cfg.EnrichLayer.Key, enrichLayerOpts...),
		CoreSignal:  coresignal.NewClient(cfg.CoreSignal.Key, coreSignalOpts...),
		Hunter:      hunter.NewClient(cfg.Hunter.Key, hunterOpts...),
		Serper:      serper.NewClient(cfg.Serper.Key, serperOpts...),
	}
}

// mistralClient builds the chat completion client used by criteria parsing.
func mistralClient() mistral.Client {
	opts := []mistral.Option{mistral.WithRetry(retryPolicy())}
	if u := cfg.Mistral.BaseURL; u != "" {
		opts = append(opts, mistral.WithBaseURL(u))
	}
	if m := cfg.Mistral.Model; m != "" {
		opts = append(opts, mistral.WithModel(m))
	}
	if ms := cfg.Mistral.MinIntervalMs; ms > 0 {
		opts = append(opts, mistral.WithMinInterval(time.Duration(ms)*time.Millisecond))
	}
	return mistral.NewClient(cfg.Mistral.Key, opts...)
}

// retryPolicy converts the configured tiers into a retry config.
func retryPolicy() resilience.RetryConfig {
	r := cfg.Retry
	return resilience.FromRetryConfig(r.MaxAttempts, r.DelaysMs, r.InitialBackoffMs, r.MaxBackoffMs)
}

// pricingRates layers configured prices over the defaults.
func pricingRates() cost.Rates {
	rates := cost.DefaultRates()
	for provider, usd := range cfg.Pricing.PerCall {
		rates.PerCall[provider] = usd
	}
	for m, p := range cfg.Pricing.Models {
		rates.Models[m] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return rates
}

func fieldResolver() (*waterfall.Resolver, error) {
	if cfg.Waterfall.Path == "" {
		return waterfall.NewResolver(waterfall.DefaultConfig()), nil
	}
	wcfg, err := waterfall.LoadConfig(cfg.Waterfall.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load waterfall config")
	}
	return waterfall.NewResolver(wcfg), nil
}

func discoveryChain(cs coresignal.Client) *discovery.Chain {
	strategies := discovery.DefaultStrategies(cs, discovery.Confidences{
		SlugLookup:       cfg.Discovery.SlugConfidence,
		ProfileURLSearch: cfg.Discovery.ProfileConfidence,
		NameSearch:       cfg.Discovery.NameConfidence,
	})
	return discovery.NewChain(strategies, discovery.WithBlocklist(cfg.Discovery.Blocklist))
}

// socialScoring applies non-zero overrides to the default weights.
func socialScoring() social.Scoring {
	s := social.DefaultScoring()
	o := cfg.Social.Scoring
	setF := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setI := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setF(&s.NameTokensAll, o.NameTokensAll)
	setF(&s.NameTokensOne, o.NameTokensOne)
	setF(&s.CompanyMatch, o.CompanyMatch)
	setF(&s.ShortPathBonus, o.ShortPathBonus)
	setI(&s.ShortPathMaxLen, o.ShortPathMaxLen)
	setF(&s.PeopleSearchEmailMatch, o.PeopleSearchEmailMatch)
	setF(&s.PeopleSearchBase, o.PeopleSearchBase)
	setF(&s.TwitterSearch, o.TwitterSearch)
	setF(&s.TwitterProfileBonus, o.TwitterProfileBonus)
	setF(&s.GitHubSearch, o.GitHubSearch)
	setF(&s.GitHubBonus, o.GitHubBonus)
	setF(&s.ContentLink, o.ContentLink)
	setF(&s.VerifiedEmailBaseline, o.VerifiedEmailBaseline)
	setF(&s.EmailBoostFloor, o.EmailBoostFloor)
	setF(&s.CrossNetworkFloor, o.CrossNetworkFloor)
	setF(&s.EarlyStop, o.EarlyStop)
	setI(&s.NetworkResultLimit, o.NetworkResultLimit)
	setI(&s.ContentResultLimit, o.ContentResultLimit)
	return s
}

// validators assembles the company and lead guardrails from the enabled
// built-in rules plus any configured expressions. required_name_fields is
// always kept.
func validators() (*guardrail.Validator[model.Company], *guardrail.Validator[model.Lead], error) {
	enabled := make(map[string]bool, len(cfg.Guardrails.Enabled))
	for _, name := range cfg.Guardrails.Enabled {
		enabled[name] = true
	}

	companies := guardrail.New[model.Company]()
	if enabled[guardrail.RuleRequiredCompanyName] {
		companies.Add(guardrail.RequiredCompanyName())
	}
	leads := guardrail.New(guardrail.RequiredNameFields())
	if cfg.Guardrails.Strict || enabled[guardrail.RuleValidEmail] {
		leads.Add(guardrail.ValidEmail())
	}

	var leadExprs, companyExprs []guardrail.ExprRule
	for _, r := range cfg.Guardrails.Rules {
		rule := guardrail.ExprRule{Name: r.Name, Expr: r.Expr}
		if r.Target == "company" {
			companyExprs = append(companyExprs, rule)
		} else {
			leadExprs = append(leadExprs, rule)
		}
	}
	lr, err := guardrail.LeadRules(leadExprs)
	if err != nil {
		return nil, nil, err
	}
	cr, err := guardrail.CompanyRules(companyExprs)
	if err != nil {
		return nil, nil, err
	}
	leads.Add(lr...)
	companies.Add(cr...)
	return companies, leads, nil
}

// personas converts the configured personas.
func personas() []model.Persona {
	out := make([]model.Persona, 0, len(cfg.Personas))
	for _, p := range cfg.Personas {
		out = append(out, model.Persona{Name: p.Name, TitleRegex: p.TitleRegex})
	}
	return out
}

// serveMetrics exposes the registry on the configured address until the
// returned func is called.
func serveMetrics(m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zap.L().Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Error("metrics server", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
