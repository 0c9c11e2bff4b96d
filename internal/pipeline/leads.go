package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/social"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

const (
	defaultMaxLeads = 5

	// minContactConfidence is the Hunter confidence a contact must exceed
	// to become a lead.
	minContactConfidence = 90

	sourceSocial = "social"
)

// Company-level lead stages.
const (
	StagePeopleSearch   = "people_search"
	StageHunterContacts = "hunter_contacts"
)

// LeadFinder turns enriched companies into enriched leads.
type LeadFinder struct {
	clients  Clients
	social   *social.Resolver
	maxLeads int
}

// LeadOption configures a LeadFinder.
type LeadOption func(*LeadFinder)

// WithSocialResolver enables social profile discovery for leads.
func WithSocialResolver(r *social.Resolver) LeadOption {
	return func(f *LeadFinder) { f.social = r }
}

// WithMaxLeads caps the people-search results taken per company.
func WithMaxLeads(n int) LeadOption {
	return func(f *LeadFinder) {
		if n > 0 {
			f.maxLeads = n
		}
	}
}

// NewLeadFinder creates a LeadFinder.
func NewLeadFinder(clients Clients, opts ...LeadOption) *LeadFinder {
	f := &LeadFinder{clients: clients, maxLeads: defaultMaxLeads}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find collects raw leads for one company: the people-search results first,
// then every known contact above the confidence threshold.
func (f *LeadFinder) Find(ctx context.Context, rc *RunContext, c model.Company) []model.Lead {
	var leads []model.Lead

	runStage(ctx, rc, StagePeopleSearch, func(ctx context.Context, rc *RunContext) ([]string, error) {
		found, err := f.peopleSearch(ctx, rc, &c)
		if err != nil {
			return nil, err
		}
		leads = append(leads, found...)
		return nil, nil
	})

	runStage(ctx, rc, StageHunterContacts, func(ctx context.Context, _ *RunContext) ([]string, error) {
		contacts := c.Contacts
		if len(contacts) == 0 {
			if c.Domain == "" {
				return nil, skip("no domain")
			}
			if f.clients.Hunter == nil {
				return nil, apierr.NotConfigured(model.SourceHunter)
			}
			res, err := f.clients.Hunter.DomainSearch(ctx, c.Domain)
			if err != nil {
				return nil, err
			}
			contacts, _ = hunterRecord(res, rc.now()).Value(model.FieldContacts).([]model.Contact)
		}
		for _, ct := range contacts {
			if ct.Confidence > minContactConfidence && ct.Email != "" {
				leads = append(leads, LeadFromContact(ct, &c))
			}
		}
		return nil, nil
	})

	for i := range leads {
		if leads[i].ID == "" {
			leads[i].ID = uuid.NewString()
		}
	}
	return leads
}

func (f *LeadFinder) peopleSearch(ctx context.Context, rc *RunContext, c *model.Company) ([]model.Lead, error) {
	if c.Domain == "" {
		return nil, skip("no domain")
	}
	if f.clients.Apollo == nil {
		return nil, apierr.NotConfigured(model.SourceApollo)
	}

	req := apollo.PeopleSearchRequest{
		Page:          1,
		PerPage:       f.maxLeads,
		SortByField:   "recommendations_score",
		SortAscending: false,
	}
	orgID := c.OrganizationID
	if orgID == "" {
		orgID = f.findOrganizationID(ctx, rc, c)
	}
	if orgID != "" {
		req.OrganizationIDs = []string{orgID}
	} else {
		rc.Log.Warn("pipeline: no organization id, searching people by domain", zap.String("domain", c.Domain))
		req.OrganizationDomains = []string{c.Domain}
	}

	resp, err := f.clients.Apollo.SearchPeople(ctx, req)
	if err != nil {
		return nil, err
	}
	people := resp.People
	if len(people) > f.maxLeads {
		people = people[:f.maxLeads]
	}
	out := make([]model.Lead, 0, len(people))
	for _, p := range people {
		out = append(out, LeadFromPerson(p, c))
	}
	return out, nil
}

// findOrganizationID looks the company up by name and domain so the people
// search can be scoped to it. Failures just return "".
func (f *LeadFinder) findOrganizationID(ctx context.Context, rc *RunContext, c *model.Company) string {
	if c.Name == "" {
		return ""
	}
	resp, err := f.clients.Apollo.SearchCompanies(ctx, apollo.CompanySearchRequest{
		Page:                1,
		PerPage:             5,
		OrganizationName:    c.Name,
		OrganizationDomains: []string{c.Domain},
	})
	if err != nil {
		rc.Log.Debug("pipeline: organization lookup failed", zap.Error(err))
		return ""
	}
	for _, o := range resp.Rows() {
		if discovery.NormalizeDomain(o.Website()) != c.Domain {
			continue
		}
		if o.OrganizationID != "" {
			return o.OrganizationID
		}
		return o.ID
	}
	return ""
}

// Enrich runs the per-lead stages: email verification, profile search,
// social discovery and persona matching.
func (f *LeadFinder) Enrich(ctx context.Context, rc *RunContext, lead model.Lead, personas []model.Persona) model.Lead {
	if lead.Provenance == nil {
		lead.Provenance = make(model.Provenance)
	}

	runStage(ctx, rc, StageLeadVerify, func(ctx context.Context, _ *RunContext) ([]string, error) {
		if lead.Email == "" {
			return nil, skip("no email")
		}
		if lead.EmailVerified {
			return nil, skip("already verified")
		}
		if f.clients.Hunter == nil {
			return nil, apierr.NotConfigured(model.SourceHunter)
		}
		res, err := f.clients.Hunter.VerifyEmail(ctx, lead.Email)
		if err != nil {
			return nil, err
		}
		if !res.Deliverable() {
			return nil, nil
		}
		lead.EmailVerified = true
		lead.Provenance["email_verified"] = model.SourceHunter
		return []string{"email_verified"}, nil
	})

	runStage(ctx, rc, StageLeadSearch, func(ctx context.Context, _ *RunContext) ([]string, error) {
		return f.searchProfiles(ctx, &lead)
	})

	runStage(ctx, rc, StageLeadSocial, func(ctx context.Context, _ *RunContext) ([]string, error) {
		if f.social == nil {
			return nil, skip("social discovery disabled")
		}
		p := f.social.Resolve(ctx, social.Identity{
			Email:         lead.Email,
			FirstName:     lead.FirstName,
			LastName:      lead.LastName,
			Company:       lead.Company,
			CompanyDomain: lead.CompanyDomain,
		})
		if p == nil {
			return nil, nil
		}
		lead.Social = p
		return applySocial(&lead, p), nil
	})

	runStage(ctx, rc, StageLeadPersona, func(context.Context, *RunContext) ([]string, error) {
		if len(personas) == 0 {
			return nil, skip("no personas")
		}
		if !applyPersona(&lead, personas) {
			return nil, nil
		}
		return []string{"matched_persona"}, nil
	})

	return lead
}

// searchProfiles fills a missing professional-network or Twitter URL from
// web search.
func (f *LeadFinder) searchProfiles(ctx context.Context, l *model.Lead) ([]string, error) {
	if l.FirstName == "" || l.LastName == "" || l.Company == "" {
		return nil, skip("incomplete identity")
	}
	if l.LinkedInURL != "" && l.TwitterURL != "" {
		return nil, skip("profiles already known")
	}
	if f.clients.Serper == nil {
		return nil, apierr.NotConfigured(model.SourceSerper)
	}

	subject := strings.Join([]string{l.FirstName, l.LastName, l.Company}, " ")
	var changed []string
	var errs []error
	lookup := func(field, suffix, host string, target *string) {
		if *target != "" {
			return
		}
		resp, err := f.clients.Serper.Search(ctx, subject+" "+suffix)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if link := resp.FirstLink(host); link != "" {
			*target = link
			l.Provenance[field] = model.SourceSerper
			changed = append(changed, field)
		}
	}
	lookup("linkedin_url", "linkedin", "linkedin.com/in/", &l.LinkedInURL)
	lookup("twitter_url", "twitter", "twitter.com", &l.TwitterURL)

	if len(changed) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return changed, nil
}

// applySocial copies discovered URLs onto the lead without replacing
// anything already known.
func applySocial(l *model.Lead, p *model.SocialPayload) []string {
	var changed []string
	set := func(field string, target *string, v string) {
		if *target != "" || v == "" {
			return
		}
		*target = v
		l.Provenance[field] = sourceSocial
		changed = append(changed, field)
	}
	set("twitter_url", &l.TwitterURL, p.Twitter)
	set("github_url", &l.GitHubURL, p.GitHub)
	set("medium_url", &l.MediumURL, p.Medium)
	set("published_content", &l.PublishedContent, strings.Join(p.PublishedContent, ", "))
	if p.EmailVerified && !l.EmailVerified {
		l.EmailVerified = true
		l.Provenance["email_verified"] = sourceSocial
		changed = append(changed, "email_verified")
	}
	return changed
}
