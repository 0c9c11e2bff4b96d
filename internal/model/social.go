package model

// Social payload field names.
const (
	SocialTwitter       = "twitter"
	SocialGitHub        = "github"
	SocialMedium        = "medium"
	SocialEmailVerified = "email_verified"
)

// Evidence is one observation supporting a social profile URL.
type Evidence struct {
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet,omitempty"`
}

// SocialPayload holds discovered social profile URLs with per-field
// evidence and confidence in [0,100].
type SocialPayload struct {
	Twitter          string                `json:"twitter,omitempty"`
	GitHub           string                `json:"github,omitempty"`
	Medium           string                `json:"medium,omitempty"`
	PublishedContent []string              `json:"published_content,omitempty"`
	Evidence         map[string][]Evidence `json:"evidence"`
	Confidences      map[string]int        `json:"confidences"`
	Sources          []string              `json:"sources"`
	EmailVerified    bool                  `json:"email_verified"`
}

// NewSocialPayload returns an empty payload with initialized maps.
func NewSocialPayload() *SocialPayload {
	return &SocialPayload{
		Evidence:    make(map[string][]Evidence),
		Confidences: make(map[string]int),
	}
}

// URL returns the profile URL stored for a field.
func (p *SocialPayload) URL(field string) string {
	switch field {
	case SocialTwitter:
		return p.Twitter
	case SocialGitHub:
		return p.GitHub
	case SocialMedium:
		return p.Medium
	}
	return ""
}

// SetURL stores a profile URL for a field.
func (p *SocialPayload) SetURL(field, url string) {
	switch field {
	case SocialTwitter:
		p.Twitter = url
	case SocialGitHub:
		p.GitHub = url
	case SocialMedium:
		p.Medium = url
	}
}

// AddSource appends a source name once.
func (p *SocialPayload) AddSource(source string) {
	for _, s := range p.Sources {
		if s == source {
			return
		}
	}
	p.Sources = append(p.Sources, source)
}

// Populated reports whether any profile URL or content link was found.
func (p *SocialPayload) Populated() bool {
	return p.Twitter != "" || p.GitHub != "" || p.Medium != "" || len(p.PublishedContent) > 0
}
