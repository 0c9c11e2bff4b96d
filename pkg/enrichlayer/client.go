// Package enrichlayer is a client for the EnrichLayer company profile API.
package enrichlayer

import (
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
	provider       = "enrichlayer"
	defaultBaseURL = "https://enrichlayer.com"
)

// Client fetches company profiles by professional-network URL.
type Client interface {
	Company(ctx context.Context, profileURL string) (*CompanyProfile, error)
}

// CompanyProfile is the response from GET /api/v2/company.
type CompanyProfile struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Website       string     `json:"website"`
	Industry      string     `json:"industry"`
	FoundedYear   int        `json:"founded_year"`
	HQ            *HQ        `json:"hq"`
	SizeOnProfile int        `json:"company_size_on_linkedin"`
	Specialities  StringList `json:"specialities"`
	Revenue       string     `json:"revenue"`
	RevenueRange  string     `json:"revenue_range"`
	Technologies  StringList `json:"technologies"`
	TechSpend     string     `json:"tech_spend"`
	ITBudget      string     `json:"it_budget"`
	RecentNews    StringList `json:"recent_news"`
	TwitterURL    string     `json:"twitter_url"`
	Twitter       string     `json:"twitter"`
	FacebookURL   string     `json:"facebook_url"`
	Facebook      string     `json:"facebook"`
	InstagramURL  string     `json:"instagram_url"`
	Instagram     string     `json:"instagram"`
	YouTubeURL    string     `json:"youtube_url"`
	YouTube       string     `json:"youtube"`
	GitHubURL     string     `json:"github_url"`
	GitHub        string     `json:"github"`

	JobOpenings     int        `json:"job_openings"`
	GrowthSignals   StringList `json:"growth_signals"`
	AIOrgSignals    StringList `json:"ai_org_signals"`
	AITechSignals   StringList `json:"ai_tech_signals"`
	AIHiringSignals StringList `json:"ai_hiring_signals"`
	IntentScore     float64    `json:"intent_score"`
	IntentHorizon   string     `json:"intent_horizon"`
	SignalEvidence  StringList `json:"signal_evidence"`

	// Success is false when the API answered 200 with an error payload.
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HQ is the headquarters address block.
type HQ struct {
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Line1      string `json:"line_1"`
}

// Social returns the URL for a network, preferring the *_url attribute.
func (p *CompanyProfile) Social(network string) string {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	switch network {
	case "twitter":
		return pick(p.TwitterURL, p.Twitter)
	case "facebook":
		return pick(p.FacebookURL, p.Facebook)
	case "instagram":
		return pick(p.InstagramURL, p.Instagram)
	case "youtube":
		return pick(p.YouTubeURL, p.YouTube)
	case "github":
		return pick(p.GitHubURL, p.GitHub)
	}
	return ""
}

// City returns the headquarters city, or "".
func (p *CompanyProfile) City() string {
	if p.HQ == nil {
		return ""
	}
	return p.HQ.City
}

// StringList decodes either a JSON list of strings or a comma-separated
// string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := list[:0]
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*s = out
		return nil
	}
	var str *string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = nil
	if str == nil {
		return nil
	}
	for _, v := range strings.Split(*str, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*s = append(*s, v)
		}
	}
	return nil
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

// NewClient creates an EnrichLayer API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Company(ctx context.Context, profileURL string) (*CompanyProfile, error) {
	if c.apiKey == "" {
		return nil, apierr.NotConfigured(provider)
	}
	if profileURL == "" {
		return nil, eris.New("enrichlayer: profile url is required")
	}

	params := url.Values{}
	params.Set("url", profileURL)
	params.Set("categories", "include")
	params.Set("funding_data", "include")
	params.Set("extra", "include")
	params.Set("use_cache", "if-present")
	params.Set("fallback_to_cache", "on-error")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/company?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "enrichlayer: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "enrichlayer: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "enrichlayer: read response")
	}
	if err := apierr.FromResponse(provider, resp, body); err != nil {
		return nil, err
	}

	var profile CompanyProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, apierr.NewParseError(provider, err)
	}
	if profile.Success != nil && !*profile.Success {
		return nil, apierr.NewParseError(provider, eris.Errorf("unsuccessful payload: %s", profile.Error))
	}
	return &profile, nil
}
