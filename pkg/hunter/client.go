// Package hunter is a client for the Hunter email discovery API.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

const (
	provider       = "hunter"
	defaultBaseURL = "https://api.hunter.io/v2"
)

// Client performs Hunter domain search, email lookup and verification.
type Client interface {
	DomainSearch(ctx context.Context, domain string) (*DomainSearchResult, error)
	FindEmail(ctx context.Context, domain, firstName, lastName string) (*EmailFinderResult, error)
	VerifyEmail(ctx context.Context, email string) (*VerifyResult, error)
}

// DomainSearchResult is the data block of GET /domain-search.
type DomainSearchResult struct {
	Domain       string  `json:"domain"`
	Organization string  `json:"organization"`
	Pattern      string  `json:"pattern"`
	Emails       []Email `json:"emails"`
}

// Email is one address found for a domain.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	LinkedIn   string `json:"linkedin"`
	Twitter    string `json:"twitter"`
	Phone      string `json:"phone_number"`
}

// EmailFinderResult is the data block of GET /email-finder.
type EmailFinderResult struct {
	Email    string `json:"email"`
	Score    int    `json:"score"`
	Position string `json:"position"`
	LinkedIn string `json:"linkedin_url"`
	Twitter  string `json:"twitter"`
}

// VerifyResult is the data block of GET /email-verifier.
type VerifyResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

// Deliverable reports whether the address verified as deliverable.
func (v *VerifyResult) Deliverable() bool {
	return v != nil && v.Result == "deliverable"
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

// NewClient creates a Hunter API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) (*DomainSearchResult, error) {
	if domain == "" {
		return nil, eris.New("hunter: domain is required")
	}
	var out DomainSearchResult
	if err := c.get(ctx, "/domain-search", url.Values{"domain": {domain}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) FindEmail(ctx context.Context, domain, firstName, lastName string) (*EmailFinderResult, error) {
	if domain == "" || firstName == "" || lastName == "" {
		return nil, eris.New("hunter: domain, first and last name are required")
	}
	params := url.Values{
		"domain":     {domain},
		"first_name": {firstName},
		"last_name":  {lastName},
	}
	var out EmailFinderResult
	if err := c.get(ctx, "/email-finder", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*VerifyResult, error) {
	if email == "" {
		return nil, eris.New("hunter: email is required")
	}
	var out VerifyResult
	if err := c.get(ctx, "/email-verifier", url.Values{"email": {email}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get issues a GET and decodes the response's "data" envelope into out.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return apierr.NotConfigured(provider)
	}
	params.Set("api_key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "hunter: read response")
	}
	if err := apierr.FromResponse(provider, resp, body); err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apierr.NewParseError(provider, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return apierr.NewParseError(provider, eris.New("missing data block"))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apierr.NewParseError(provider, err)
	}
	return nil
}
