package pipeline

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/waterfall"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// endpointOrder fixes the order last-resort endpoints are queried in.
var endpointOrder = []string{waterfall.EndpointSearch, waterfall.EndpointNews, waterfall.EndpointLocation}

// networkHosts maps URL fields to the host a search hit must be on.
var networkHosts = map[string]string{
	model.FieldTwitterURL:   "twitter.com",
	model.FieldFacebookURL:  "facebook.com",
	model.FieldInstagramURL: "instagram.com",
	model.FieldYouTubeURL:   "youtube.com",
	model.FieldGitHubURL:    "github.com",
}

// socialSearchFields are looked up with a site-scoped query when still empty
// after everything else.
var socialSearchFields = []string{model.FieldFacebookURL, model.FieldYouTubeURL, model.FieldGitHubURL}

// searchMissing issues one query per endpoint for the fields still empty
// after resolution and resolves them again with search results added.
func (e *Enricher) searchMissing(ctx context.Context, rc *RunContext, c *model.Company) ([]string, error) {
	missing := e.resolver.Missing(c)
	delete(missing, waterfall.EndpointResearch)
	if len(missing) == 0 {
		return nil, skip("no missing searchable fields")
	}
	if c.Name == "" {
		return nil, skip("no company name")
	}
	if e.clients.Serper == nil {
		return nil, apierr.NotConfigured(model.SourceSerper)
	}

	found := make(map[string]any)
	var errs []error
	for _, endpoint := range endpointOrder {
		fields := missing[endpoint]
		if len(fields) == 0 {
			continue
		}
		values, err := e.searchEndpoint(ctx, endpoint, c.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range fields {
			if v, ok := values[f]; ok {
				found[f] = v
			}
		}
	}
	if len(found) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(errs) > 0 {
		rc.Log.Debug("pipeline: some search endpoints failed", zap.Errors("errors", errs))
	}

	rec := model.NewSourceRecord(model.SourceSerper, found, e.now())
	rc.AddRecord(rec)
	return e.resolveFields(rc, c, recordFields(rec)), nil
}

// searchEndpoint runs one query and extracts every field the endpoint can
// supply.
func (e *Enricher) searchEndpoint(ctx context.Context, endpoint, query string) (map[string]any, error) {
	switch endpoint {
	case waterfall.EndpointSearch:
		resp, err := e.clients.Serper.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		return organicFields(resp), nil
	case waterfall.EndpointNews:
		resp, err := e.clients.Serper.News(ctx, query)
		if err != nil {
			return nil, err
		}
		return map[string]any{model.FieldRecentNews: resp.Titles()}, nil
	case waterfall.EndpointLocation:
		resp, err := e.clients.Serper.Location(ctx, query)
		if err != nil {
			return nil, err
		}
		addr := resp.FirstAddress()
		return map[string]any{model.FieldHeadquarters: addr, model.FieldLocation: addr}, nil
	}
	return nil, nil
}

// organicFields applies the extraction rules for a web search result.
func organicFields(resp *serper.SearchResponse) map[string]any {
	out := map[string]any{
		model.FieldDomain:             discovery.NormalizeDomain(resp.FirstLink("")),
		model.FieldCompanyLinkedInURL: resp.FirstLink("linkedin.com/company"),
		model.FieldLinkedInURL:        resp.FirstLink("linkedin.com/company"),
	}
	if len(resp.Organic) > 0 {
		out[model.FieldName] = resp.Organic[0].Title
		out[model.FieldDescription] = resp.Organic[0].Snippet
	}
	for field, host := range networkHosts {
		out[field] = resp.FirstLink(host)
	}
	if out[model.FieldTwitterURL] == "" {
		out[model.FieldTwitterURL] = resp.FirstLink("://x.com/")
	}
	return out
}

// searchSocial looks up still-empty network URLs with site-scoped queries.
func (e *Enricher) searchSocial(ctx context.Context, rc *RunContext, c *model.Company) ([]string, error) {
	var todo []string
	for _, f := range socialSearchFields {
		if model.IsNull(c.Field(f)) {
			todo = append(todo, f)
		}
	}
	if len(todo) == 0 {
		return nil, skip("social URLs already known")
	}
	if c.Name == "" {
		return nil, skip("no company name")
	}
	if e.clients.Serper == nil {
		return nil, apierr.NotConfigured(model.SourceSerper)
	}

	found := make(map[string]any)
	var errs []error
	for _, f := range todo {
		host := networkHosts[f]
		resp, err := e.clients.Serper.Search(ctx, "site:"+host+" "+c.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if link := resp.FirstLink(host); link != "" {
			found[f] = link
		}
	}
	if len(found) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	rec := model.NewSourceRecord(model.SourceSerper, found, e.now())
	rc.AddRecord(rec)
	return e.resolveFields(rc, c, slices.Sorted(maps.Keys(found))), nil
}
