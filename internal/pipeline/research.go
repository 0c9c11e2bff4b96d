package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/waterfall"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// researchOrder fixes the order signal fields are researched in. Later
// researchers read what earlier ones found.
var researchOrder = []string{
	model.FieldJobOpenings,
	model.FieldAIHiringSignals,
	model.FieldGrowthSignals,
	model.FieldAIOrgSignals,
	model.FieldAITechSignals,
	model.FieldSignalEvidence,
	model.FieldTechSpend,
	model.FieldITBudget,
}

// researcher estimates one field for c. It returns nil when nothing was found.
type researcher func(ctx context.Context, s serper.Client, c *model.Company) (any, error)

var researchers = map[string]researcher{
	model.FieldJobOpenings:     researchJobOpenings,
	model.FieldAIHiringSignals: researchAIHiring,
	model.FieldGrowthSignals:   researchGrowth,
	model.FieldAIOrgSignals:    researchAIOrg,
	model.FieldAITechSignals:   researchAITech,
	model.FieldSignalEvidence:  researchEvidence,
	model.FieldTechSpend:       researchTechSpend,
	model.FieldITBudget:        researchITBudget,
}

// researchSignals fills still-empty signal fields from search results and
// size-based estimates, then resolves them with the search source added.
func (e *Enricher) researchSignals(ctx context.Context, rc *RunContext, c *model.Company) ([]string, error) {
	todo := e.resolver.Missing(c)[waterfall.EndpointResearch]
	if len(todo) == 0 {
		return nil, skip("no missing signal fields")
	}
	if c.Name == "" {
		return nil, skip("no company name")
	}
	if e.clients.Serper == nil {
		return nil, apierr.NotConfigured(model.SourceSerper)
	}

	view := *c
	view.Provenance = maps.Clone(c.Provenance)
	found := make(map[string]any)
	var errs []error
	for _, field := range researchOrder {
		if !slices.Contains(todo, field) {
			continue
		}
		v, err := researchers[field](ctx, e.clients.Serper, &view)
		if err != nil {
			errs = append(errs, err)
		}
		if model.IsNull(v) {
			continue
		}
		if view.SetField(field, v, model.SourceSerper) {
			found[field] = v
		}
	}
	if len(found) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(errs) > 0 {
		rc.Log.Debug("pipeline: some research queries failed", zap.Errors("errors", errs))
	}

	rec := model.NewSourceRecord(model.SourceSerper, found, e.now())
	rc.AddRecord(rec)
	return e.resolveFields(rc, c, recordFields(rec)), nil
}

var jobCountPattern = regexp.MustCompile(`(?i)(\d+)\s+(?:open\s+)?(?:positions|jobs|openings)`)

func researchJobOpenings(ctx context.Context, s serper.Client, c *model.Company) (any, error) {
	if c.ProfileURL() != "" {
		resp, err := s.Search(ctx, "site:linkedin.com/jobs "+c.Name)
		if err != nil {
			return nil, err
		}
		if n := len(resp.Organic); n > 0 {
			return n, nil
		}
	}
	if c.Domain == "" {
		return nil, nil
	}
	resp, err := s.Search(ctx, c.Name+" careers OR jobs hiring")
	if err != nil {
		return nil, err
	}
	for _, r := range head(resp.Organic, 3) {
		if m := jobCountPattern.FindStringSubmatch(r.Snippet); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, nil
			}
		}
	}
	return nil, nil
}

var aiHiringKeywords = []string{"AI", "ML", "Machine Learning"}

func researchAIHiring(ctx context.Context, s serper.Client, c *model.Company) (any, error) {
	var signals []string
	var lastErr error
	for _, kw := range aiHiringKeywords {
		resp, err := s.Search(ctx, "site:linkedin.com/jobs "+c.Name+" "+kw)
		if err != nil {
			lastErr = err
			continue
		}
		if n := len(resp.Organic); n > 0 {
			signals = append(signals, fmt.Sprintf("Hiring %d %s roles", n, kw))
		}
	}
	return signalsOrErr(signals, lastErr)
}

var fundingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)raised\s+\$[\d.]+[MBK](?:illion)?`),
	regexp.MustCompile(`(?i)Series\s+[A-Z]\+?\s+(?:funding|round)`),
	regexp.MustCompile(`(?i)secured\s+\$[\d.]+[MBK](?:illion)?`),
	regexp.MustCompile(`(?i)\$[\d.]+[MBK](?:illion)?\s+(?:in\s+)?funding`),
	regexp.MustCompile(`(?i)seed\s+round\s+of\s+\$[\d.]+[MBK]`),
	regexp.MustCompile(`(?i)(?:led|participated)\s+(?:in\s+)?\$[\d.]+[MBK]\s+round`),
}

var (
	launchKeywords = []string{"launched", "announces", "unveils", "releases", "expands", "opens"}
	awardKeywords  = []string{"award", "ranked", "named", "best", "top"}
)

const maxGrowthSignals = 8

func researchGrowth(ctx context.Context, s serper.Client, c *model.Company) (any, error) {
	var signals []string
	var lastErr error
	add := func(sig string) {
		if !slices.Contains(signals, sig) {
			signals = append(signals, sig)
		}
	}

	resp, err := s.Search(ctx, `"`+c.Name+`" (raised OR funding OR investment OR Series A OR Series B OR Series C OR seed)`)
	if err != nil {
		lastErr = err
	} else {
		for _, r := range head(resp.Organic, 5) {
			text := r.Snippet + " " + r.Title
			for _, p := range fundingPatterns {
				if m := p.FindString(text); m != "" {
					add("Funding: " + m)
					break
				}
			}
		}
	}

	switch {
	case c.JobOpenings >= 20:
		add(fmt.Sprintf("High hiring velocity: %d+ open positions", c.JobOpenings))
	case c.JobOpenings >= 10:
		add(fmt.Sprintf("Active hiring: %d open positions", c.JobOpenings))
	}

	resp, err = s.Search(ctx, `"`+c.Name+`" (launched OR announces OR unveils OR releases OR expands OR new product)`)
	if err != nil {
		lastErr = err
	} else {
		for _, r := range head(resp.Organic, 3) {
			title, snippet := strings.ToLower(r.Title), strings.ToLower(r.Snippet)
			for _, kw := range launchKeywords {
				if strings.Contains(title, kw) {
					add(strings.TrimSpace(truncate(r.Title, 100)))
					break
				}
				if strings.Contains(snippet, kw) {
					add(strings.TrimSpace(truncate(r.Snippet, 100)))
					break
				}
			}
		}
	}

	switch {
	case c.EmployeeCount >= 500:
		add(fmt.Sprintf("Established scale: %d+ employees", c.EmployeeCount))
	case c.EmployeeCount >= 100:
		add(fmt.Sprintf("Growing team: %d+ employees", c.EmployeeCount))
	}

	resp, err = s.Search(ctx, `"`+c.Name+`" (award OR recognition OR ranked OR named OR best)`)
	if err != nil {
		lastErr = err
	} else {
		for _, r := range head(resp.Organic, 2) {
			if containsAny(strings.ToLower(r.Title), awardKeywords) {
				add(truncate(r.Title, 80))
				break
			}
		}
	}

	return signalsOrErr(head(signals, maxGrowthSignals), lastErr)
}

var aiUsageIndicators = []string{"using ai", "ai-powered", "implemented ai", "ai platform"}

func researchAIOrg(ctx context.Context, s serper.Client, c *model.Company) (any, error) {
	var signals []string
	resp, err := s.Search(ctx, c.Name+" using AI OR AI implementation OR adopted AI")
	if err == nil {
		if sig := firstIndicated(resp, aiUsageIndicators); sig != "" {
			signals = append(signals, sig)
		}
	}
	if n := len(c.AIHiringSignals); n > 0 {
		signals = append(signals, fmt.Sprintf("Building AI team (%d AI roles)", n))
	}
	return signalsOrErr(signals, err)
}

var (
	aiProductIndicators = []string{"ai product", "ai-powered", "ml platform", "ai feature"}
	aiDescription       = regexp.MustCompile(`(?i)\b(?:ai|ml)\b|artificial intelligence|machine learning`)
)

func researchAITech(ctx context.Context, s serper.Client, c *model.Company) (any, error) {
	var signals []string
	resp, err := s.Search(ctx, c.Name+" AI product OR AI platform OR AI feature OR machine learning")
	if err == nil {
		if sig := firstIndicated(resp, aiProductIndicators); sig != "" {
			signals = append(signals, sig)
		}
	}
	if aiDescription.MatchString(c.Description) {
		signals = append(signals, "AI mentioned in company description")
	}
	return signalsOrErr(signals, err)
}

var newsIntentKeywords = []string{"raised", "launched", "expanded", "acquired", "partnership"}

// researchEvidence compiles intent evidence from signals already gathered.
func researchEvidence(_ context.Context, _ serper.Client, c *model.Company) (any, error) {
	evidence := slices.Clone(head(c.GrowthSignals, 3))
	if c.JobOpenings >= 10 {
		evidence = append(evidence, fmt.Sprintf("High hiring velocity: %d open positions indicates budget/growth", c.JobOpenings))
	}
	if n := len(c.AIHiringSignals); n > 0 {
		evidence = append(evidence, fmt.Sprintf("AI investment: %d AI roles open", n))
	}
	for _, item := range head(c.RecentNews, 3) {
		if containsAny(strings.ToLower(item), newsIntentKeywords) {
			evidence = append(evidence, "Recent activity: "+truncate(item, 100))
			break
		}
	}
	return signalsOrErr(evidence, nil)
}

// spendBand labels an estimate below a dollar ceiling. A zero ceiling is
// the open top band.
type spendBand struct {
	below int
	label string
}

var techSpendBands = []spendBand{
	{100_000, "Estimated $50K-$100K annually"},
	{500_000, "Estimated $100K-$500K annually"},
	{1_000_000, "Estimated $500K-$1M annually"},
	{5_000_000, "Estimated $1M-$5M annually"},
	{0, "Estimated $5M+ annually"},
}

var itBudgetBands = []spendBand{
	{150_000, "Estimated $100K-$200K annually"},
	{750_000, "Estimated $200K-$750K annually"},
	{1_500_000, "Estimated $750K-$1.5M annually"},
	{7_500_000, "Estimated $1.5M-$7.5M annually"},
	{0, "Estimated $7.5M+ annually"},
}

// Per-employee spend used for the size-based estimates.
const (
	techSpendPerEmployee = 1200
	itBudgetPerEmployee  = 1800
)

func bandFor(bands []spendBand, amount int) string {
	for _, b := range bands {
		if b.below == 0 || amount < b.below {
			return b.label
		}
	}
	return ""
}

func researchTechSpend(_ context.Context, _ serper.Client, c *model.Company) (any, error) {
	if c.EmployeeCount > 0 {
		return bandFor(techSpendBands, c.EmployeeCount*techSpendPerEmployee), nil
	}
	if strings.Contains(c.Industry, "SaaS") {
		return "Estimated 6-8% of revenue (SaaS standard)", nil
	}
	return nil, nil
}

func researchITBudget(_ context.Context, _ serper.Client, c *model.Company) (any, error) {
	if c.EmployeeCount > 0 {
		return bandFor(itBudgetBands, c.EmployeeCount*itBudgetPerEmployee), nil
	}
	return nil, nil
}

// firstIndicated returns the truncated snippet of the first of the top three
// results mentioning any indicator.
func firstIndicated(resp *serper.SearchResponse, indicators []string) string {
	for _, r := range head(resp.Organic, 3) {
		if containsAny(strings.ToLower(r.Snippet+" "+r.Title), indicators) {
			return truncate(r.Snippet, 150)
		}
	}
	return ""
}

// signalsOrErr returns the signals found, or err when there are none.
func signalsOrErr(signals []string, err error) (any, error) {
	if len(signals) > 0 {
		return signals, nil
	}
	return nil, err
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
