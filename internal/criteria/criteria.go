// Package criteria turns a free-text description of target companies into
// an Apollo company search.
package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/mistral"
)

const (
	provider       = "mistral"
	callType       = "criteria"
	defaultPerPage = 10
	maxTokens      = 800
)

const systemPrompt = `You convert a description of target companies into search filters.
Reply with one JSON object and nothing else, using only these keys:
  "company_name": string
  "industries": [string]
  "employee_count": {"min": number, "max": number}
  "arr_usd": {"min": number, "max": number}
  "total_funding": {"min": number, "max": number}
  "locations": [string]     countries, states or regions
  "cities": [string]
  "technologies": [string]  products the companies use
Omit any key the description does not mention. Dollar amounts are plain
numbers in USD: "$5M" is 5000000.`

// Bounds is an inclusive numeric range. Either end may be open.
type Bounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (b *Bounds) empty() bool {
	return b == nil || (b.Min == nil && b.Max == nil)
}

// Filters is the structured form of a company description.
type Filters struct {
	CompanyName   string   `json:"company_name,omitempty"`
	Industries    []string `json:"industries,omitempty"`
	EmployeeCount *Bounds  `json:"employee_count,omitempty"`
	RevenueUSD    *Bounds  `json:"arr_usd,omitempty"`
	TotalFunding  *Bounds  `json:"total_funding,omitempty"`
	Locations     []string `json:"locations,omitempty"`
	Cities        []string `json:"cities,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
}

// Empty reports whether no filter was extracted.
func (f *Filters) Empty() bool {
	return f.CompanyName == "" && len(f.Industries) == 0 && f.EmployeeCount.empty() &&
		f.RevenueUSD.empty() && f.TotalFunding.empty() && len(f.Locations) == 0 &&
		len(f.Cities) == 0 && len(f.Technologies) == 0
}

// TokenRecorder receives chat completion token usage.
type TokenRecorder interface {
	RecordTokens(provider, callType, model string, input, output int)
}

type options struct {
	perPage  int
	recorder TokenRecorder
}

// Option configures Parse.
type Option func(*options)

// WithPerPage sets the page size of the resulting search.
func WithPerPage(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.perPage = n
		}
	}
}

// WithRecorder reports token usage for cost accounting.
func WithRecorder(r TokenRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// Parse asks the model to extract filters from text and maps them onto a
// company search request.
func Parse(ctx context.Context, client mistral.Client, text string, opts ...Option) (*apollo.CompanySearchRequest, error) {
	o := options{perPage: defaultPerPage}
	for _, fn := range opts {
		fn(&o)
	}

	f, err := Extract(ctx, client, text, o.recorder)
	if err != nil {
		return nil, err
	}
	if f.Empty() {
		return nil, eris.Errorf("criteria: no filters found in %q", truncate(text, 80))
	}
	req := f.SearchRequest(o.perPage)
	return &req, nil
}

// Extract runs the model and decodes its filter object.
func Extract(ctx context.Context, client mistral.Client, text string, rec TokenRecorder) (*Filters, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, eris.New("criteria: description is empty")
	}
	if client == nil {
		return nil, apierr.NotConfigured(provider)
	}

	tokens := maxTokens
	resp, err := client.ChatCompletion(ctx, mistral.ChatCompletionRequest{
		Messages: []mistral.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:      &tokens,
		ResponseFormat: &mistral.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	if rec != nil {
		rec.RecordTokens(provider, callType, resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	var f Filters
	if err := decodeObject(resp.Content(), &f); err != nil {
		return nil, apierr.NewParseError(provider, err)
	}
	zap.L().Debug("criteria: filters extracted",
		zap.Strings("industries", f.Industries),
		zap.Strings("locations", f.Locations),
		zap.Strings("technologies", f.Technologies),
	)
	return &f, nil
}

// SearchRequest maps the filters onto the first page of a company search.
func (f *Filters) SearchRequest(perPage int) apollo.CompanySearchRequest {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	req := apollo.CompanySearchRequest{
		Page:             1,
		PerPage:          perPage,
		OrganizationName: strings.TrimSpace(f.CompanyName),
		KeywordTags:      clean(f.Industries),
		RevenueRange:     toRange(f.RevenueUSD),
		FundingRange:     toRange(f.TotalFunding),
	}
	if b := f.EmployeeCount; b != nil && b.Min != nil && b.Max != nil {
		req.EmployeeRanges = []string{fmt.Sprintf("%d,%d", int64(*b.Min), int64(*b.Max))}
	}
	if cities := clean(f.Cities); len(cities) > 0 {
		req.Locations = cities
	} else {
		req.Locations = clean(f.Locations)
	}
	for _, tech := range clean(f.Technologies) {
		req.TechnologyUIDs = append(req.TechnologyUIDs, TechnologyUID(tech))
	}
	return req
}

// TechnologyUID converts a product name to Apollo's technology identifier.
func TechnologyUID(name string) string {
	r := strings.NewReplacer(" ", "_", ".", "_")
	return r.Replace(strings.ToLower(strings.TrimSpace(name)))
}

func toRange(b *Bounds) *apollo.Range {
	if b.empty() {
		return nil
	}
	var r apollo.Range
	if b.Min != nil && *b.Min > 0 {
		v := int64(math.Round(*b.Min))
		r.Min = &v
	}
	if b.Max != nil && *b.Max > 0 {
		v := int64(math.Round(*b.Max))
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return nil
	}
	return &r
}

func clean(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeObject reads the first JSON object in s, tolerating markdown fences
// and surrounding prose.
func decodeObject(s string, v any) error {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return eris.Errorf("no JSON object in response %q", truncate(s, 120))
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
