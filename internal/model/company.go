package model

// Field keys for Company. The keys double as the names used in the
// waterfall priority table and in provenance records.
const (
	FieldName               = "name"
	FieldDomain             = "domain"
	FieldIndustry           = "industry"
	FieldFoundedYear        = "founded_year"
	FieldHeadquarters       = "headquarters"
	FieldDescription        = "description"
	FieldCompanyLinkedInURL = "company_linkedin_url"
	FieldLinkedInURL        = "linkedin_url"
	FieldLocation           = "location"
	FieldEmployeeCount      = "employee_count"
	FieldRevenue            = "revenue"
	FieldRevenueRange       = "revenue_range"
	FieldTechSpend          = "tech_spend"
	FieldITBudget           = "it_budget"
	FieldTechnologies       = "technologies"
	FieldSpecialities       = "specialities"
	FieldRecentNews         = "recent_news"
	FieldJobOpenings        = "job_openings"
	FieldGrowthSignals      = "growth_signals"
	FieldAIOrgSignals       = "ai_org_signals"
	FieldAITechSignals      = "ai_tech_signals"
	FieldAIHiringSignals    = "ai_hiring_signals"
	FieldIntentScore        = "intent_score"
	FieldIntentHorizon      = "intent_horizon"
	FieldSignalEvidence     = "signal_evidence"
	FieldTwitterURL         = "twitter_url"
	FieldFacebookURL        = "facebook_url"
	FieldInstagramURL       = "instagram_url"
	FieldYouTubeURL         = "youtube_url"
	FieldGitHubURL          = "github_url"
	FieldContacts           = "contacts"
	FieldEmailPattern       = "email_pattern"
)

// CompanyFields lists every resolvable Company field in output order.
var CompanyFields = []string{
	FieldName, FieldDomain, FieldIndustry, FieldFoundedYear, FieldHeadquarters,
	FieldDescription, FieldCompanyLinkedInURL, FieldLinkedInURL, FieldLocation,
	FieldEmployeeCount, FieldRevenue, FieldRevenueRange, FieldTechSpend, FieldITBudget,
	FieldTechnologies, FieldSpecialities, FieldRecentNews, FieldJobOpenings,
	FieldGrowthSignals, FieldAIOrgSignals, FieldAITechSignals, FieldAIHiringSignals,
	FieldIntentScore, FieldIntentHorizon, FieldSignalEvidence,
	FieldTwitterURL, FieldFacebookURL, FieldInstagramURL, FieldYouTubeURL, FieldGitHubURL,
	FieldContacts, FieldEmailPattern,
}

// Company is the canonical company record. Every populated field has an
// entry in Provenance naming the source that supplied it.
type Company struct {
	ID             string `json:"id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`

	Name               string `json:"name"`
	Domain             string `json:"domain,omitempty"`
	Industry           string `json:"industry,omitempty"`
	FoundedYear        int    `json:"founded_year,omitempty"`
	Headquarters       string `json:"headquarters,omitempty"`
	Description        string `json:"description,omitempty"`
	CompanyLinkedInURL string `json:"company_linkedin_url,omitempty"`
	LinkedInURL        string `json:"linkedin_url,omitempty"`
	Location           string `json:"location,omitempty"`

	EmployeeCount int    `json:"employee_count,omitempty"`
	Revenue       string `json:"revenue,omitempty"`
	RevenueRange  string `json:"revenue_range,omitempty"`
	TechSpend     string `json:"tech_spend,omitempty"`
	ITBudget      string `json:"it_budget,omitempty"`

	Technologies    []string `json:"technologies,omitempty"`
	Specialities    []string `json:"specialities,omitempty"`
	RecentNews      []string `json:"recent_news,omitempty"`
	JobOpenings     int      `json:"job_openings,omitempty"`
	GrowthSignals   []string `json:"growth_signals,omitempty"`
	AIOrgSignals    []string `json:"ai_org_signals,omitempty"`
	AITechSignals   []string `json:"ai_tech_signals,omitempty"`
	AIHiringSignals []string `json:"ai_hiring_signals,omitempty"`
	IntentScore     float64  `json:"intent_score,omitempty"`
	IntentHorizon   string   `json:"intent_horizon,omitempty"`
	SignalEvidence  []string `json:"signal_evidence,omitempty"`

	TwitterURL   string `json:"twitter_url,omitempty"`
	FacebookURL  string `json:"facebook_url,omitempty"`
	InstagramURL string `json:"instagram_url,omitempty"`
	YouTubeURL   string `json:"youtube_url,omitempty"`
	GitHubURL    string `json:"github_url,omitempty"`

	Contacts     []Contact `json:"contacts,omitempty"`
	EmailPattern string    `json:"email_pattern,omitempty"`

	Provenance Provenance `json:"provenance,omitempty"`
}

// Contact is a person found at a company by a domain search.
type Contact struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`
	Type       string `json:"type,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
}

// HasIdentity reports whether the company carries anything a provider can
// search on.
func (c *Company) HasIdentity() bool {
	return c.Name != "" || c.Domain != "" || c.CompanyLinkedInURL != "" || c.LinkedInURL != ""
}

// ProfileURL returns the professional-network company URL, preferring the
// dedicated company field.
func (c *Company) ProfileURL() string {
	if c.CompanyLinkedInURL != "" {
		return c.CompanyLinkedInURL
	}
	return c.LinkedInURL
}

// Field returns the current value of a field by key, or nil for an unknown key.
func (c *Company) Field(key string) any {
	switch key {
	case FieldName:
		return c.Name
	case FieldDomain:
		return c.Domain
	case FieldIndustry:
		return c.Industry
	case FieldFoundedYear:
		return c.FoundedYear
	case FieldHeadquarters:
		return c.Headquarters
	case FieldDescription:
		return c.Description
	case FieldCompanyLinkedInURL:
		return c.CompanyLinkedInURL
	case FieldLinkedInURL:
		return c.LinkedInURL
	case FieldLocation:
		return c.Location
	case FieldEmployeeCount:
		return c.EmployeeCount
	case FieldRevenue:
		return c.Revenue
	case FieldRevenueRange:
		return c.RevenueRange
	case FieldTechSpend:
		return c.TechSpend
	case FieldITBudget:
		return c.ITBudget
	case FieldTechnologies:
		return c.Technologies
	case FieldSpecialities:
		return c.Specialities
	case FieldRecentNews:
		return c.RecentNews
	case FieldJobOpenings:
		return c.JobOpenings
	case FieldGrowthSignals:
		return c.GrowthSignals
	case FieldAIOrgSignals:
		return c.AIOrgSignals
	case FieldAITechSignals:
		return c.AITechSignals
	case FieldAIHiringSignals:
		return c.AIHiringSignals
	case FieldIntentScore:
		return c.IntentScore
	case FieldIntentHorizon:
		return c.IntentHorizon
	case FieldSignalEvidence:
		return c.SignalEvidence
	case FieldTwitterURL:
		return c.TwitterURL
	case FieldFacebookURL:
		return c.FacebookURL
	case FieldInstagramURL:
		return c.InstagramURL
	case FieldYouTubeURL:
		return c.YouTubeURL
	case FieldGitHubURL:
		return c.GitHubURL
	case FieldContacts:
		return c.Contacts
	case FieldEmailPattern:
		return c.EmailPattern
	}
	return nil
}

// SetField assigns v to the field named key and records source as its
// provenance. It reports false when the key is unknown or v cannot be
// converted to the field's type; the field and its provenance are then
// left as they were.
func (c *Company) SetField(key string, v any, source string) bool {
	ok := true
	switch key {
	case FieldName:
		ok = assign(&c.Name, v, AsString)
	case FieldDomain:
		ok = assign(&c.Domain, v, AsString)
	case FieldIndustry:
		ok = assign(&c.Industry, v, AsString)
	case FieldFoundedYear:
		ok = assign(&c.FoundedYear, v, AsInt)
	case FieldHeadquarters:
		ok = assign(&c.Headquarters, v, AsString)
	case FieldDescription:
		ok = assign(&c.Description, v, AsString)
	case FieldCompanyLinkedInURL:
		ok = assign(&c.CompanyLinkedInURL, v, AsString)
	case FieldLinkedInURL:
		ok = assign(&c.LinkedInURL, v, AsString)
	case FieldLocation:
		ok = assign(&c.Location, v, AsString)
	case FieldEmployeeCount:
		ok = assign(&c.EmployeeCount, v, AsInt)
	case FieldRevenue:
		ok = assign(&c.Revenue, v, AsString)
	case FieldRevenueRange:
		ok = assign(&c.RevenueRange, v, AsString)
	case FieldTechSpend:
		ok = assign(&c.TechSpend, v, AsString)
	case FieldITBudget:
		ok = assign(&c.ITBudget, v, AsString)
	case FieldTechnologies:
		ok = assign(&c.Technologies, v, AsStrings)
	case FieldSpecialities:
		ok = assign(&c.Specialities, v, AsStrings)
	case FieldRecentNews:
		ok = assign(&c.RecentNews, v, AsStrings)
	case FieldJobOpenings:
		ok = assign(&c.JobOpenings, v, AsInt)
	case FieldGrowthSignals:
		ok = assign(&c.GrowthSignals, v, AsStrings)
	case FieldAIOrgSignals:
		ok = assign(&c.AIOrgSignals, v, AsStrings)
	case FieldAITechSignals:
		ok = assign(&c.AITechSignals, v, AsStrings)
	case FieldAIHiringSignals:
		ok = assign(&c.AIHiringSignals, v, AsStrings)
	case FieldIntentScore:
		ok = assign(&c.IntentScore, v, AsFloat)
	case FieldIntentHorizon:
		ok = assign(&c.IntentHorizon, v, AsString)
	case FieldSignalEvidence:
		ok = assign(&c.SignalEvidence, v, AsStrings)
	case FieldTwitterURL:
		ok = assign(&c.TwitterURL, v, AsString)
	case FieldFacebookURL:
		ok = assign(&c.FacebookURL, v, AsString)
	case FieldInstagramURL:
		ok = assign(&c.InstagramURL, v, AsString)
	case FieldYouTubeURL:
		ok = assign(&c.YouTubeURL, v, AsString)
	case FieldGitHubURL:
		ok = assign(&c.GitHubURL, v, AsString)
	case FieldContacts:
		ok = assign(&c.Contacts, v, asContacts)
	case FieldEmailPattern:
		ok = assign(&c.EmailPattern, v, AsString)
	default:
		return false
	}
	if !ok {
		return false
	}
	if c.Provenance == nil {
		c.Provenance = make(Provenance)
	}
	c.Provenance[key] = source
	return true
}

// assign converts v and stores it in dst only when the conversion succeeds.
func assign[T any](dst *T, v any, conv func(any) (T, bool)) bool {
	out, ok := conv(v)
	if ok {
		*dst = out
	}
	return ok
}

func asContacts(v any) ([]Contact, bool) {
	out, ok := v.([]Contact)
	return out, ok
}

// Snapshot returns the non-empty fields of the company keyed by field name.
func (c *Company) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, key := range CompanyFields {
		if v := c.Field(key); !IsNull(v) {
			out[key] = v
		}
	}
	return out
}
