package pipeline

import (
	"strings"
	"time"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
	"github.com/sells-group/enrich-cli/pkg/enrichlayer"
	"github.com/sells-group/enrich-cli/pkg/hunter"
)

// CompanyFromOrganization builds the primary company record from an Apollo
// search row.
func CompanyFromOrganization(o apollo.Organization) model.Company {
	var c model.Company
	c.OrganizationID = o.OrganizationID
	if c.OrganizationID == "" {
		c.OrganizationID = o.ID
	}
	for key, v := range organizationFields(o) {
		if !model.IsNull(v) {
			c.SetField(key, v, model.SourceApollo)
		}
	}
	return c
}

func organizationFields(o apollo.Organization) map[string]any {
	hq := o.Headquarters
	if hq == "" {
		hq = o.Location()
	}
	return map[string]any{
		model.FieldName:               o.Name,
		model.FieldDomain:             discovery.NormalizeDomain(o.Website()),
		model.FieldIndustry:           o.Industry,
		model.FieldFoundedYear:        o.FoundedYear,
		model.FieldHeadquarters:       hq,
		model.FieldLocation:           o.Location(),
		model.FieldDescription:        o.Description,
		model.FieldCompanyLinkedInURL: o.LinkedInURL,
		model.FieldTwitterURL:         o.TwitterURL,
		model.FieldFacebookURL:        o.FacebookURL,
		model.FieldEmployeeCount:      o.EstimatedNumEmployees,
		model.FieldRevenue:            o.RevenuePrinted,
		model.FieldRevenueRange:       o.RevenueRange,
		model.FieldTechnologies:       o.TechnologyNames(),
		model.FieldSpecialities:       o.Keywords,
	}
}

// primaryRecord turns the input company into the lowest-priority source
// record. Fields keep the source that supplied them when known.
func primaryRecord(c *model.Company, at time.Time) []model.SourceRecord {
	bySource := make(map[string]map[string]any)
	var order []string
	for key, v := range c.Snapshot() {
		src := c.Provenance.Source(key)
		if src == "" {
			src = model.SourceApollo
		}
		if bySource[src] == nil {
			bySource[src] = make(map[string]any)
			order = append(order, src)
		}
		bySource[src][key] = v
	}
	out := make([]model.SourceRecord, 0, len(order))
	for _, src := range order {
		out = append(out, model.NewSourceRecord(src, bySource[src], at))
	}
	return out
}

func enrichLayerRecord(p *enrichlayer.CompanyProfile, at time.Time) model.SourceRecord {
	var hq string
	if p.HQ != nil {
		hq = joinNonEmpty(p.HQ.Line1, p.HQ.City, p.HQ.State, p.HQ.Country)
	}
	return model.NewSourceRecord(model.SourceEnrichLayer, map[string]any{
		model.FieldName:          p.Name,
		model.FieldDescription:   p.Description,
		model.FieldDomain:        discovery.NormalizeDomain(p.Website),
		model.FieldIndustry:      p.Industry,
		model.FieldFoundedYear:   p.FoundedYear,
		model.FieldHeadquarters:  hq,
		model.FieldLocation:      p.City(),
		model.FieldEmployeeCount: p.SizeOnProfile,
		model.FieldSpecialities:  []string(p.Specialities),
		model.FieldRevenue:       p.Revenue,
		model.FieldRevenueRange:  p.RevenueRange,
		model.FieldTechnologies:  []string(p.Technologies),
		model.FieldTechSpend:     p.TechSpend,
		model.FieldITBudget:      p.ITBudget,
		model.FieldRecentNews:    []string(p.RecentNews),
		model.FieldTwitterURL:    p.Social("twitter"),
		model.FieldFacebookURL:   p.Social("facebook"),
		model.FieldInstagramURL:  p.Social("instagram"),
		model.FieldYouTubeURL:    p.Social("youtube"),
		model.FieldGitHubURL:     p.Social("github"),

		model.FieldJobOpenings:     p.JobOpenings,
		model.FieldGrowthSignals:   []string(p.GrowthSignals),
		model.FieldAIOrgSignals:    []string(p.AIOrgSignals),
		model.FieldAITechSignals:   []string(p.AITechSignals),
		model.FieldAIHiringSignals: []string(p.AIHiringSignals),
		model.FieldIntentScore:     p.IntentScore,
		model.FieldIntentHorizon:   p.IntentHorizon,
		model.FieldSignalEvidence:  []string(p.SignalEvidence),
	}, at)
}

// coreSignalWebsiteOrder is the trust order for CoreSignal website fields.
var coreSignalWebsiteOrder = []string{
	coresignal.FieldWebsitesMain,
	coresignal.FieldWebsitesResolved,
	coresignal.FieldUniqueWebsite,
	coresignal.FieldUniqueDomain,
	coresignal.FieldWebsite,
}

func coreSignalRecord(c *coresignal.Company, at time.Time) model.SourceRecord {
	var domain string
	for _, f := range coreSignalWebsiteOrder {
		if domain = discovery.NormalizeDomain(c.WebsiteField(f)); domain != "" {
			break
		}
	}
	description := c.DescriptionEnriched
	if description == "" {
		description = c.Description
	}
	location := c.Location
	if location == "" {
		location = c.City
	}
	var revenue any = c.RevenuePrinted
	if c.RevenuePrinted == "" {
		revenue = c.Revenue
	}
	employees := c.EmployeesCount
	if model.IsNull(employees) {
		employees = c.SizeRange
	}
	return model.NewSourceRecord(model.SourceCoreSignal, map[string]any{
		model.FieldName:               c.Name,
		model.FieldDomain:             domain,
		model.FieldIndustry:           c.Industry,
		model.FieldFoundedYear:        c.FoundedValue(),
		model.FieldDescription:        description,
		model.FieldTechnologies:       c.TechnologyNames(),
		model.FieldEmployeeCount:      employees,
		model.FieldHeadquarters:       c.HQ(),
		model.FieldLocation:           location,
		model.FieldRevenue:            revenue,
		model.FieldCompanyLinkedInURL: c.ProfessionalNetwork,
		model.FieldTwitterURL:         c.TwitterURL,
		model.FieldFacebookURL:        c.FacebookURL,
		model.FieldInstagramURL:       c.InstagramURL,
		model.FieldYouTubeURL:         c.YouTubeURL,
		model.FieldGitHubURL:          c.GitHubURL,
	}, at)
}

func hunterRecord(res *hunter.DomainSearchResult, at time.Time) model.SourceRecord {
	contacts := make([]model.Contact, 0, len(res.Emails))
	for _, e := range res.Emails {
		if e.Value == "" {
			continue
		}
		contacts = append(contacts, model.Contact{
			Email:      e.Value,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			JobTitle:   e.Position,
			Type:       e.Type,
			Confidence: e.Confidence,
			Pattern:    res.Pattern,
		})
	}
	return model.NewSourceRecord(model.SourceHunter, map[string]any{
		model.FieldContacts:     contacts,
		model.FieldEmailPattern: res.Pattern,
	}, at)
}

// LeadFromPerson maps an Apollo people row onto a lead.
func LeadFromPerson(p apollo.Person, company *model.Company) model.Lead {
	l := model.Lead{
		FirstName:     strings.TrimSpace(p.FirstName),
		LastName:      strings.TrimSpace(p.LastName),
		Title:         p.Title,
		Email:         p.Email,
		EmailVerified: p.EmailStatus == "verified",
		Phone:         p.Phone(),
		LinkedInURL:   p.LinkedInURL,
		TwitterURL:    p.TwitterURL,
		GitHubURL:     p.GitHubURL,
		Location:      p.Location(),
		ProviderID:    p.ID,
	}
	if l.FirstName == "" && l.LastName == "" && p.Name != "" {
		l.FirstName, l.LastName, _ = strings.Cut(strings.TrimSpace(p.Name), " ")
	}
	if company != nil {
		l.Company = company.Name
		l.CompanyDomain = company.Domain
	}
	if p.Organization != nil {
		if l.Company == "" {
			l.Company = p.Organization.Name
		}
		if l.CompanyDomain == "" {
			l.CompanyDomain = discovery.NormalizeDomain(p.Organization.Website())
		}
	}
	l.Provenance = leadProvenance(&l, model.SourceApollo)
	return l
}

// LeadFromContact maps a Hunter domain-search contact onto a lead.
func LeadFromContact(ct model.Contact, company *model.Company) model.Lead {
	l := model.Lead{
		FirstName: ct.FirstName,
		LastName:  ct.LastName,
		Title:     ct.JobTitle,
		Email:     ct.Email,
	}
	if company != nil {
		l.Company = company.Name
		l.CompanyDomain = company.Domain
	}
	l.Provenance = leadProvenance(&l, model.SourceHunter)
	return l
}

func leadProvenance(l *model.Lead, source string) model.Provenance {
	p := make(model.Provenance)
	for key, v := range l.Fields() {
		if !model.IsNull(v) {
			if b, ok := v.(bool); ok && !b {
				continue
			}
			p[key] = source
		}
	}
	return p
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
