package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/internal/dedupe"
	"github.com/sells-group/enrich-cli/internal/guardrail"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

const defaultConcurrency = 4

// ErrNoIdentity is returned when no input carries anything to search on.
var ErrNoIdentity = eris.New("pipeline: no input has identity information")

// ValidationObserver is told the guardrail outcome of every batch.
type ValidationObserver func(kind model.RunKind, stats model.ValidationStats)

// Batch runs the company and lead pipelines over many entities with bounded
// parallelism. One entity's failure never affects another.
type Batch struct {
	enricher     *Enricher
	leads        *LeadFinder
	store        store.Store
	sink         EventSink
	tracker      *cost.Tracker
	companyRules *guardrail.Validator[model.Company]
	leadRules    *guardrail.Validator[model.Lead]
	observe      ValidationObserver
	concurrency  int
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithStore persists runs and surviving entities.
func WithStore(s store.Store) BatchOption {
	return func(b *Batch) { b.store = s }
}

// WithSink sets the stage event sink. The default logs through zap.
func WithSink(s EventSink) BatchOption {
	return func(b *Batch) { b.sink = s }
}

// WithTracker attaches the cost tracker whose ledger is stored on the run.
func WithTracker(t *cost.Tracker) BatchOption {
	return func(b *Batch) { b.tracker = t }
}

// WithConcurrency bounds how many entities are processed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithCompanyValidator replaces the company guardrails.
func WithCompanyValidator(v *guardrail.Validator[model.Company]) BatchOption {
	return func(b *Batch) { b.companyRules = v }
}

// WithLeadValidator replaces the lead guardrails.
func WithLeadValidator(v *guardrail.Validator[model.Lead]) BatchOption {
	return func(b *Batch) { b.leadRules = v }
}

// WithValidationObserver registers a callback for guardrail statistics.
func WithValidationObserver(fn ValidationObserver) BatchOption {
	return func(b *Batch) { b.observe = fn }
}

// NewBatch creates a Batch. The lead finder may be nil for company-only use.
func NewBatch(enricher *Enricher, leads *LeadFinder, opts ...BatchOption) *Batch {
	b := &Batch{
		enricher:     enricher,
		leads:        leads,
		concurrency:  defaultConcurrency,
		companyRules: guardrail.DefaultCompanyValidator(),
		leadRules:    guardrail.DefaultLeadValidator(false),
	}
	for _, o := range opts {
		o(b)
	}
	if b.sink == nil {
		b.sink = NewZapSink(nil)
	}
	return b
}

// errorCollector gathers per-entity errors from concurrent workers.
type errorCollector struct {
	mu   sync.Mutex
	errs []string
}

func (c *errorCollector) add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.mu.Lock()
	c.errs = append(c.errs, msg)
	c.mu.Unlock()
}

func (c *errorCollector) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errs...)
}

// stageErrors records every failed stage of one entity.
func (c *errorCollector) stageErrors(label string, stages []model.StageResult) {
	for _, s := range stages {
		if s.Status == model.StageStatusFailed {
			c.add("%s: %s: %s", label, s.Name, s.Error)
		}
	}
}

// Companies enriches every input company, then deduplicates, validates and
// saves the result. It fails only when no input has any identity.
func (b *Batch) Companies(ctx context.Context, inputs []model.Company) (*model.CompanyBatchResult, error) {
	if !anyIdentity(inputs) {
		return nil, ErrNoIdentity
	}
	start := time.Now()
	runID := b.startRun(ctx, model.RunKindCompanies, len(inputs))
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: company batch starting", zap.Int("companies", len(inputs)))

	var errs errorCollector
	results := make([]*CompanyResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i := range inputs {
		c := inputs[i]
		if !c.HasIdentity() {
			errs.add("company %d: no identity", i)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				errs.add("%s: %v", label(c.Name, i), ctx.Err())
				return nil
			}
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			rc := NewRunContext(runID, c.ID, log.With(zap.String("company", c.Name)), b.sink)
			res := b.enricher.Enrich(ctx, rc, c)
			errs.stageErrors(label(c.Name, i), res.Stages)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var enriched []model.Company
	for _, r := range results {
		if r != nil {
			enriched = append(enriched, r.Company)
		}
	}

	passed, stats := b.companyRules.Validate(dedupe.Companies(enriched))
	if b.observe != nil {
		b.observe(model.RunKindCompanies, stats)
	}
	for i := range passed {
		id, err := b.saveCompany(ctx, runID, passed[i])
		if err != nil {
			errs.add("%s: save: %v", label(passed[i].Name, i), err)
			continue
		}
		passed[i].ID = id
	}

	out := &model.CompanyBatchResult{RunID: runID, Entities: passed, Stats: stats, Errors: errs.list()}
	b.finishRun(ctx, runID, stats, out.Errors, start)
	log.Info("pipeline: company batch complete",
		zap.Int("passed", stats.Passed),
		zap.Int("filtered", stats.Filtered),
		zap.Int("errors", len(out.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// Leads finds and enriches leads for every company, then deduplicates,
// validates and saves them. It fails only when no company has any identity.
func (b *Batch) Leads(ctx context.Context, companies []model.Company, personas []model.Persona) (*model.LeadBatchResult, error) {
	if b.leads == nil {
		return nil, eris.New("pipeline: lead finder not configured")
	}
	if !anyIdentity(companies) {
		return nil, ErrNoIdentity
	}
	start := time.Now()
	runID := b.startRun(ctx, model.RunKindLeads, len(companies))
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: lead batch starting",
		zap.Int("companies", len(companies)),
		zap.Int("personas", len(personas)),
	)

	var errs errorCollector
	perCompany := make([][]model.Lead, len(companies))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i := range companies {
		c := companies[i]
		if !c.HasIdentity() {
			errs.add("company %d: no identity", i)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				errs.add("%s: %v", label(c.Name, i), ctx.Err())
				return nil
			}
			entityID := c.ID
			if entityID == "" {
				entityID = uuid.NewString()
			}
			clog := log.With(zap.String("company", c.Name))
			rc := NewRunContext(runID, entityID, clog, b.sink)
			found := b.leads.Find(ctx, rc, c)
			errs.stageErrors(label(c.Name, i), rc.Stages())

			out := make([]model.Lead, 0, len(found))
			for _, l := range found {
				lrc := NewRunContext(runID, l.ID, clog, b.sink)
				enriched := b.leads.Enrich(ctx, lrc, l, personas)
				errs.stageErrors(label(l.FullName(), i), lrc.Stages())
				out = append(out, enriched)
			}
			perCompany[i] = out
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Lead
	for _, ls := range perCompany {
		all = append(all, ls...)
	}

	passed, stats := b.leadRules.Validate(dedupe.Leads(all))
	if b.observe != nil {
		b.observe(model.RunKindLeads, stats)
	}
	for i := range passed {
		id, err := b.saveLead(ctx, runID, passed[i])
		if err != nil {
			errs.add("%s: save: %v", label(passed[i].FullName(), i), err)
			continue
		}
		passed[i].ID = id
	}

	out := &model.LeadBatchResult{RunID: runID, Entities: passed, Stats: stats, Errors: errs.list()}
	b.finishRun(ctx, runID, stats, out.Errors, start)
	log.Info("pipeline: lead batch complete",
		zap.Int("found", len(all)),
		zap.Int("passed", stats.Passed),
		zap.Int("filtered", stats.Filtered),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// startRun creates the run record. Persistence problems never stop a batch;
// the run simply goes unrecorded.
func (b *Batch) startRun(ctx context.Context, kind model.RunKind, n int) string {
	if b.store == nil {
		return uuid.NewString()
	}
	run, err := b.store.CreateRun(ctx, kind, n)
	if err != nil {
		zap.L().Warn("pipeline: failed to create run", zap.Error(err))
		return uuid.NewString()
	}
	return run.ID
}

func (b *Batch) finishRun(ctx context.Context, runID string, stats model.ValidationStats, errs []string, start time.Time) {
	if f, ok := b.sink.(flusher); ok {
		if err := f.Flush(ctx); err != nil {
			zap.L().Warn("pipeline: failed to flush stage events", zap.Error(err))
		}
	}
	if b.store == nil {
		return
	}

	summary := &model.RunSummary{
		Stats:    stats,
		Errors:   errs,
		Duration: time.Since(start).Milliseconds(),
	}
	if b.tracker != nil {
		summary.Cost = make(map[string]float64)
		summary.Calls = make(map[string]int)
		for _, e := range b.tracker.Ledger() {
			summary.Cost[e.Provider] += e.USD
			summary.Calls[e.Provider] += e.Calls
		}
	}
	if err := b.store.CompleteRun(ctx, runID, model.RunStatusComplete, summary); err != nil {
		zap.L().Warn("pipeline: failed to complete run", zap.String("run_id", runID), zap.Error(err))
	}
}

func (b *Batch) saveCompany(ctx context.Context, runID string, c model.Company) (string, error) {
	if b.store == nil {
		return c.ID, nil
	}
	return b.store.SaveCompany(ctx, runID, c)
}

func (b *Batch) saveLead(ctx context.Context, runID string, l model.Lead) (string, error) {
	if b.store == nil {
		return l.ID, nil
	}
	return b.store.SaveLead(ctx, runID, l)
}

func anyIdentity(companies []model.Company) bool {
	for i := range companies {
		if companies[i].HasIdentity() {
			return true
		}
	}
	return false
}

func label(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("entity %d", i)
	}
	return name
}
