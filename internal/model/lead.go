package model

import "strings"

// Lead is the canonical contact record produced by the lead pipeline.
type Lead struct {
	ID                string   `json:"id,omitempty"`
	FirstName         string   `json:"contact_first_name"`
	LastName          string   `json:"contact_last_name"`
	Title             string   `json:"contact_title,omitempty"`
	Company           string   `json:"contact_company,omitempty"`
	CompanyDomain     string   `json:"contact_company_domain,omitempty"`
	Email             string   `json:"contact_email,omitempty"`
	EmailVerified     bool     `json:"contact_email_verified,omitempty"`
	Phone             string   `json:"contact_phone,omitempty"`
	LinkedInURL       string   `json:"contact_linkedin_url,omitempty"`
	TwitterURL        string   `json:"contact_twitter,omitempty"`
	GitHubURL         string   `json:"contact_github,omitempty"`
	MediumURL         string   `json:"contact_medium,omitempty"`
	Location          string   `json:"contact_location,omitempty"`
	RecentActivity    string   `json:"contact_recent_activity,omitempty"`
	PublishedContent  string   `json:"contact_published_content,omitempty"`
	MatchedPersona    string   `json:"matched_persona,omitempty"`
	PersonaConfidence *float64 `json:"persona_confidence,omitempty"`
	ProviderID        string   `json:"apollo_id,omitempty"`

	Social     *SocialPayload `json:"social,omitempty"`
	Provenance Provenance     `json:"provenance,omitempty"`
}

// FullName joins first and last name with a single space.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Fields exposes the lead as a flat map keyed by its JSON names. Guardrail
// expressions evaluate against this view.
func (l *Lead) Fields() map[string]any {
	return map[string]any{
		"first_name":        l.FirstName,
		"last_name":         l.LastName,
		"title":             l.Title,
		"company":           l.Company,
		"company_domain":    l.CompanyDomain,
		"email":             l.Email,
		"email_verified":    l.EmailVerified,
		"phone":             l.Phone,
		"linkedin_url":      l.LinkedInURL,
		"twitter_url":       l.TwitterURL,
		"github_url":        l.GitHubURL,
		"location":          l.Location,
		"matched_persona":   l.MatchedPersona,
		"provider_id":       l.ProviderID,
		"published_content": l.PublishedContent,
	}
}

// Persona describes a target buyer profile matched against job titles.
type Persona struct {
	Name       string   `json:"name" yaml:"name" mapstructure:"name"`
	TitleRegex []string `json:"title_regex" yaml:"title_regex" mapstructure:"title_regex"`
}
