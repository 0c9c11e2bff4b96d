// Package apollo is a client for the Apollo company and people search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

const (
	provider       = "apollo"
	defaultBaseURL = "https://api.apollo.io/api/v1"
)

// Client searches Apollo for companies and people.
type Client interface {
	SearchCompanies(ctx context.Context, req CompanySearchRequest) (*CompanySearchResponse, error)
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
}

// Range is a min/max filter.
type Range struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// CompanySearchRequest is the body for POST /mixed_companies/search.
type CompanySearchRequest struct {
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
	EmployeeRanges      []string `json:"organization_num_employees_ranges,omitempty"`
	Locations           []string `json:"organization_locations,omitempty"`
	KeywordTags         []string `json:"q_organization_keyword_tags,omitempty"`
	TechnologyUIDs      []string `json:"currently_using_any_of_technology_uids,omitempty"`
	RevenueRange        *Range   `json:"revenue_range,omitempty"`
	FundingRange        *Range   `json:"total_funding_range,omitempty"`
	OrganizationName    string   `json:"q_organization_name,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains,omitempty"`
}

// CompanySearchResponse is the response from POST /mixed_companies/search.
// Depending on plan the rows arrive under either key.
type CompanySearchResponse struct {
	Companies     []Organization `json:"companies"`
	Organizations []Organization `json:"organizations"`
	Pagination    Pagination     `json:"pagination"`
}

// Rows returns whichever result list is populated.
func (r *CompanySearchResponse) Rows() []Organization {
	if len(r.Companies) > 0 {
		return r.Companies
	}
	return r.Organizations
}

// Pagination describes the result page.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// Organization is one company row. Several attributes arrive as either
// numbers or strings, so they are left loosely typed.
type Organization struct {
	ID                    string   `json:"id"`
	OrganizationID        string   `json:"organization_id"`
	Name                  string   `json:"name"`
	Domain                string   `json:"domain"`
	PrimaryDomain         string   `json:"primary_domain"`
	WebsiteURL            string   `json:"website_url"`
	Industry              string   `json:"industry"`
	FoundedYear           any      `json:"founded_year"`
	City                  string   `json:"city"`
	State                 string   `json:"state"`
	Country               string   `json:"country"`
	Headquarters          string   `json:"headquarters"`
	Description           string   `json:"short_description"`
	LinkedInURL           string   `json:"linkedin_url"`
	TwitterURL            string   `json:"twitter_url"`
	FacebookURL           string   `json:"facebook_url"`
	EstimatedNumEmployees any      `json:"estimated_num_employees"`
	RevenuePrinted        string   `json:"organization_revenue_printed"`
	RevenueRange          string   `json:"revenue_range"`
	Technologies          any      `json:"technologies"`
	Keywords              []string `json:"keywords"`
}

// Location joins city, state and country.
func (o Organization) Location() string {
	var parts []string
	for _, p := range []string{o.City, o.State, o.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Website returns the best available domain field.
func (o Organization) Website() string {
	switch {
	case o.Domain != "":
		return o.Domain
	case o.PrimaryDomain != "":
		return o.PrimaryDomain
	}
	return o.WebsiteURL
}

// TechnologyNames flattens the technologies attribute, which is either a
// list of names, a list of {"technology": name} objects, or a comma list.
func (o Organization) TechnologyNames() []string {
	var out []string
	switch t := o.Technologies.(type) {
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			switch v := item.(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			case map[string]any:
				if name, ok := v["technology"].(string); ok && name != "" {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// PeopleSearchRequest is the body for POST /mixed_people/search.
type PeopleSearchRequest struct {
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
	OrganizationIDs     []string `json:"organization_ids,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains,omitempty"`
	PersonTitles        []string `json:"person_titles,omitempty"`
	PersonSeniorities   []string `json:"person_seniorities,omitempty"`
	SortByField         string   `json:"sort_by_field,omitempty"`
	SortAscending       bool     `json:"sort_ascending"`
}

// PeopleSearchResponse is the response from POST /mixed_people/search.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Person is one contact row.
type Person struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Email        string        `json:"email"`
	EmailStatus  string        `json:"email_status"`
	LinkedInURL  string        `json:"linkedin_url"`
	TwitterURL   string        `json:"twitter_url"`
	GitHubURL    string        `json:"github_url"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Country      string        `json:"country"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	Organization *Organization `json:"organization"`
}

// PhoneNumber is a contact phone.
type PhoneNumber struct {
	RawNumber       string `json:"raw_number"`
	SanitizedNumber string `json:"sanitized_number"`
}

// Phone returns the first usable phone number.
func (p Person) Phone() string {
	for _, n := range p.PhoneNumbers {
		if n.SanitizedNumber != "" {
			return n.SanitizedNumber
		}
		if n.RawNumber != "" {
			return n.RawNumber
		}
	}
	return ""
}

// Location joins city, state and country.
func (p Person) Location() string {
	return Organization{City: p.City, State: p.State, Country: p.Country}.Location()
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

// NewClient creates an Apollo API client. An empty apiKey yields a client
// whose calls fail with apierr.ErrNotConfigured.
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

func (c *httpClient) SearchCompanies(ctx context.Context, req CompanySearchRequest) (*CompanySearchResponse, error) {
	var result CompanySearchResponse
	if err := c.post(ctx, "/mixed_companies/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	var result PeopleSearchResponse
	if err := c.post(ctx, "/mixed_people/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	if c.apiKey == "" {
		return apierr.NotConfigured(provider)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "apollo: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}
	if err := apierr.FromResponse(provider, resp, respBody); err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apierr.NewParseError(provider, err)
	}
	return nil
}
