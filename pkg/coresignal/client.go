// Package coresignal is a client for the CoreSignal company data API.
package coresignal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

const (
	provider       = "coresignal"
	defaultBaseURL = "https://api.coresignal.com/cdapi/v2"
)

// Client looks up company records. Search methods return (nil, nil) when
// nothing matched.
type Client interface {
	EnrichByDomain(ctx context.Context, domain string) (*Company, error)
	CollectBySlug(ctx context.Context, slug string) (*Company, error)
	SearchByProfileURL(ctx context.Context, profileURL string) (*Company, error)
	SearchByName(ctx context.Context, name, location string) (*Company, error)
}

// Website field names, in the order they are trusted.
const (
	FieldWebsitesMain     = "websites_main"
	FieldWebsitesResolved = "websites_resolved"
	FieldUniqueWebsite    = "unique_website"
	FieldUniqueDomain     = "unique_domain"
	FieldWebsite          = "website"
)

// Company is a CoreSignal company record. Attributes whose JSON type
// varies between datasets are left loosely typed.
type Company struct {
	Name                string `json:"name"`
	Website             string `json:"website"`
	WebsitesMain        string `json:"websites_main"`
	WebsitesResolved    string `json:"websites_resolved"`
	UniqueWebsite       string `json:"unique_website"`
	UniqueDomain        string `json:"unique_domain"`
	ProfessionalNetwork string `json:"websites_professional_network"`
	Industry            string `json:"industry"`
	Founded             any    `json:"founded"`
	FoundedYear         any    `json:"founded_year"`
	Description         string `json:"description"`
	DescriptionEnriched string `json:"description_enriched"`
	TechnologiesUsed    any    `json:"technologies_used"`
	SizeRange           any    `json:"size_range"`
	EmployeesCount      any    `json:"employees_count"`
	HQAddress           string `json:"location_hq_raw_address"`
	Location            string `json:"location"`
	City                string `json:"city"`
	Country             string `json:"country"`
	RevenuePrinted      string `json:"organization_revenue_printed"`
	Revenue             any    `json:"revenue"`
	TwitterURL          string `json:"twitter_url"`
	FacebookURL         string `json:"facebook_url"`
	InstagramURL        string `json:"instagram_url"`
	YouTubeURL          string `json:"youtube_url"`
	GitHubURL           string `json:"github_url"`
}

// WebsiteField returns a website attribute by name.
func (c *Company) WebsiteField(name string) string {
	switch name {
	case FieldWebsitesMain:
		return c.WebsitesMain
	case FieldWebsitesResolved:
		return c.WebsitesResolved
	case FieldUniqueWebsite:
		return c.UniqueWebsite
	case FieldUniqueDomain:
		return c.UniqueDomain
	case FieldWebsite:
		return c.Website
	}
	return ""
}

// FoundedValue returns whichever founding attribute is set.
func (c *Company) FoundedValue() any {
	if c.FoundedYear != nil {
		return c.FoundedYear
	}
	return c.Founded
}

// HQ returns the raw headquarters address, falling back to city and country.
func (c *Company) HQ() string {
	if c.HQAddress != "" {
		return c.HQAddress
	}
	var parts []string
	for _, p := range []string{c.City, c.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return c.Location
}

// TechnologyNames flattens technologies_used, a list of names or of
// {"technology": name} objects.
func (c *Company) TechnologyNames() []string {
	items, ok := c.TechnologiesUsed.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if name, ok := v["technology"].(string); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64 `json:"_score"`
			Source Company `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a CoreSignal API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) EnrichByDomain(ctx context.Context, domain string) (*Company, error) {
	domain = strings.Trim(strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://"), "/")
	if domain == "" {
		return nil, eris.New("coresignal: domain is required")
	}
	var out Company
	if err := c.do(ctx, http.MethodGet, "/company_multi_source/enrich?website="+url.QueryEscape(domain), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CollectBySlug(ctx context.Context, slug string) (*Company, error) {
	if slug == "" {
		return nil, eris.New("coresignal: slug is required")
	}
	var out Company
	if err := c.do(ctx, http.MethodGet, "/company_base/collect/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) SearchByProfileURL(ctx context.Context, profileURL string) (*Company, error) {
	if profileURL == "" {
		return nil, eris.New("coresignal: profile url is required")
	}
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"websites_professional_network": profileURL},
		},
		"size":    1,
		"_source": []string{"name", "website", "location", "location_hq_raw_address", "websites_professional_network"},
	}
	return c.search(ctx, "/company_multi_source/search/es_dsl", query)
}

func (c *httpClient) SearchByName(ctx context.Context, name, location string) (*Company, error) {
	if name == "" {
		return nil, eris.New("coresignal: name is required")
	}
	var q map[string]any
	if location == "" {
		q = map[string]any{"match": map[string]any{"name": name}}
	} else {
		q = map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"match": map[string]any{"name": name}},
					map[string]any{"multi_match": map[string]any{
						"query":  location,
						"fields": []string{"location", "location_hq_raw_address", "city", "country"},
					}},
				},
			},
		}
	}
	query := map[string]any{
		"query":   q,
		"size":    1,
		"_source": []string{"name", "website", "location", "location_hq_raw_address"},
	}
	return c.search(ctx, "/company_base/search/es_dsl", query)
}

func (c *httpClient) search(ctx context.Context, path string, query any) (*Company, error) {
	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, path, query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, nil
	}
	top := resp.Hits.Hits[0].Source
	return &top, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload, out any) error {
	if c.apiKey == "" {
		return apierr.NotConfigured(provider)
	}

	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "coresignal: marshal request")
		}
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return eris.Wrap(err, "coresignal: create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "coresignal: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "coresignal: read response")
	}
	if err := apierr.FromResponse(provider, resp, respBody); err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apierr.NewParseError(provider, err)
	}
	return nil
}
