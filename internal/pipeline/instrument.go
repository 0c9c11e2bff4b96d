package pipeline

import (
	"context"

	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
	"github.com/sells-group/enrich-cli/pkg/enrichlayer"
	"github.com/sells-group/enrich-cli/pkg/hunter"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// CallRecorder receives one call per external request attempt.
// cost.Tracker satisfies it.
type CallRecorder interface {
	RecordCall(provider, callType string, count int, success bool)
}

// Calls wraps provider clients so every request runs under the retry policy
// and every attempt is reported to the recorder.
type Calls struct {
	Retry    resilience.RetryConfig
	Recorder CallRecorder
}

// do runs fn under the retry policy. Attempts that fail with a missing
// credential never reached the provider and are not recorded.
func do[T any](ctx context.Context, c Calls, provider, callType string, fn func(context.Context) (T, error)) (T, error) {
	cfg := c.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(provider, callType)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if c.Recorder != nil && !apierr.IsNotConfigured(err) {
			c.Recorder.RecordCall(provider, callType, 1, err == nil)
		}
		return v, err
	})
}

// Apollo wraps an Apollo client. A nil client stays nil.
func (c Calls) Apollo(cl apollo.Client) apollo.Client {
	if cl == nil {
		return nil
	}
	return &apolloCalls{inner: cl, calls: c}
}

// EnrichLayer wraps an EnrichLayer client. A nil client stays nil.
func (c Calls) EnrichLayer(cl enrichlayer.Client) enrichlayer.Client {
	if cl == nil {
		return nil
	}
	return &enrichLayerCalls{inner: cl, calls: c}
}

// CoreSignal wraps a CoreSignal client. A nil client stays nil.
func (c Calls) CoreSignal(cl coresignal.Client) coresignal.Client {
	if cl == nil {
		return nil
	}
	return &coreSignalCalls{inner: cl, calls: c}
}

// Hunter wraps a Hunter client. A nil client stays nil.
func (c Calls) Hunter(cl hunter.Client) hunter.Client {
	if cl == nil {
		return nil
	}
	return &hunterCalls{inner: cl, calls: c}
}

// Serper wraps a Serper client. A nil client stays nil.
func (c Calls) Serper(cl serper.Client) serper.Client {
	if cl == nil {
		return nil
	}
	return &serperCalls{inner: cl, calls: c}
}

type apolloCalls struct {
	inner apollo.Client
	calls Calls
}

func (a *apolloCalls) SearchCompanies(ctx context.Context, req apollo.CompanySearchRequest) (*apollo.CompanySearchResponse, error) {
	return do(ctx, a.calls, "apollo", "company_search", func(ctx context.Context) (*apollo.CompanySearchResponse, error) {
		return a.inner.SearchCompanies(ctx, req)
	})
}

func (a *apolloCalls) SearchPeople(ctx context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	return do(ctx, a.calls, "apollo", "people_search", func(ctx context.Context) (*apollo.PeopleSearchResponse, error) {
		return a.inner.SearchPeople(ctx, req)
	})
}

type enrichLayerCalls struct {
	inner enrichlayer.Client
	calls Calls
}

func (e *enrichLayerCalls) Company(ctx context.Context, profileURL string) (*enrichlayer.CompanyProfile, error) {
	return do(ctx, e.calls, "enrichlayer", "company", func(ctx context.Context) (*enrichlayer.CompanyProfile, error) {
		return e.inner.Company(ctx, profileURL)
	})
}

type coreSignalCalls struct {
	inner coresignal.Client
	calls Calls
}

func (c *coreSignalCalls) EnrichByDomain(ctx context.Context, domain string) (*coresignal.Company, error) {
	return do(ctx, c.calls, "coresignal", "enrich", func(ctx context.Context) (*coresignal.Company, error) {
		return c.inner.EnrichByDomain(ctx, domain)
	})
}

func (c *coreSignalCalls) CollectBySlug(ctx context.Context, slug string) (*coresignal.Company, error) {
	return do(ctx, c.calls, "coresignal", "slug_lookup", func(ctx context.Context) (*coresignal.Company, error) {
		return c.inner.CollectBySlug(ctx, slug)
	})
}

func (c *coreSignalCalls) SearchByProfileURL(ctx context.Context, profileURL string) (*coresignal.Company, error) {
	return do(ctx, c.calls, "coresignal", "profile_search", func(ctx context.Context) (*coresignal.Company, error) {
		return c.inner.SearchByProfileURL(ctx, profileURL)
	})
}

func (c *coreSignalCalls) SearchByName(ctx context.Context, name, location string) (*coresignal.Company, error) {
	return do(ctx, c.calls, "coresignal", "name_search", func(ctx context.Context) (*coresignal.Company, error) {
		return c.inner.SearchByName(ctx, name, location)
	})
}

type hunterCalls struct {
	inner hunter.Client
	calls Calls
}

func (h *hunterCalls) DomainSearch(ctx context.Context, domain string) (*hunter.DomainSearchResult, error) {
	return do(ctx, h.calls, "hunter", "domain_search", func(ctx context.Context) (*hunter.DomainSearchResult, error) {
		return h.inner.DomainSearch(ctx, domain)
	})
}

func (h *hunterCalls) FindEmail(ctx context.Context, domain, firstName, lastName string) (*hunter.EmailFinderResult, error) {
	return do(ctx, h.calls, "hunter", "email_finder", func(ctx context.Context) (*hunter.EmailFinderResult, error) {
		return h.inner.FindEmail(ctx, domain, firstName, lastName)
	})
}

func (h *hunterCalls) VerifyEmail(ctx context.Context, email string) (*hunter.VerifyResult, error) {
	return do(ctx, h.calls, "hunter", "email_verify", func(ctx context.Context) (*hunter.VerifyResult, error) {
		return h.inner.VerifyEmail(ctx, email)
	})
}

type serperCalls struct {
	inner serper.Client
	calls Calls
}

func (s *serperCalls) Search(ctx context.Context, query string) (*serper.SearchResponse, error) {
	return do(ctx, s.calls, "serper", "search", func(ctx context.Context) (*serper.SearchResponse, error) {
		return s.inner.Search(ctx, query)
	})
}

func (s *serperCalls) News(ctx context.Context, query string) (*serper.NewsResponse, error) {
	return do(ctx, s.calls, "serper", "news", func(ctx context.Context) (*serper.NewsResponse, error) {
		return s.inner.News(ctx, query)
	})
}

func (s *serperCalls) Location(ctx context.Context, query string) (*serper.LocationResponse, error) {
	return do(ctx, s.calls, "serper", "location", func(ctx context.Context) (*serper.LocationResponse, error) {
		return s.inner.Location(ctx, query)
	})
}
