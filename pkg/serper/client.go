// Package serper is a client for the Serper web search API.
package serper

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
	provider       = "serper"
	defaultBaseURL = "https://google.serper.dev"
)

// Client runs web, news and location searches.
type Client interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
	News(ctx context.Context, query string) (*NewsResponse, error)
	Location(ctx context.Context, query string) (*LocationResponse, error)
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Organic []Result `json:"organic"`
}

// Result is one organic search hit.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// FirstLink returns the first organic link containing substr (case
// insensitive). An empty substr matches any link.
func (r *SearchResponse) FirstLink(substr string) string {
	if r == nil {
		return ""
	}
	substr = strings.ToLower(substr)
	for _, res := range r.Organic {
		if res.Link == "" {
			continue
		}
		if substr == "" || strings.Contains(strings.ToLower(res.Link), substr) {
			return res.Link
		}
	}
	return ""
}

// NewsResponse is the response from POST /news.
type NewsResponse struct {
	News []NewsItem `json:"news"`
}

// NewsItem is one news hit.
type NewsItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Titles returns the non-empty news titles in order.
func (r *NewsResponse) Titles() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, n := range r.News {
		if n.Title != "" {
			out = append(out, n.Title)
		}
	}
	return out
}

// LocationResponse is the response from POST /location.
type LocationResponse struct {
	Locations []Location `json:"locations"`
}

// Location is one place hit.
type Location struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formattedAddress"`
}

// FirstAddress returns the first location's formatted address.
func (r *LocationResponse) FirstAddress() string {
	if r == nil || len(r.Locations) == 0 {
		return ""
	}
	return r.Locations[0].FormattedAddress
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

// NewClient creates a Serper API client.
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

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, "/search", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) News(ctx context.Context, query string) (*NewsResponse, error) {
	var out NewsResponse
	if err := c.post(ctx, "/news", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Location(ctx context.Context, query string) (*LocationResponse, error) {
	var out LocationResponse
	if err := c.post(ctx, "/location", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) post(ctx context.Context, path, query string, out any) error {
	if c.apiKey == "" {
		return apierr.NotConfigured(provider)
	}
	if strings.TrimSpace(query) == "" {
		return eris.New("serper: query is required")
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return eris.Wrap(err, "serper: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "serper: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "serper: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "serper: read response")
	}
	if err := apierr.FromResponse(provider, resp, respBody); err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apierr.NewParseError(provider, err)
	}
	return nil
}
