package social

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scoring holds every weight and threshold used to rate discovered profile
// URLs. Heuristic weights are on a 0-1 scale; floors and thresholds are on
// the 0-100 confidence scale.
type Scoring struct {
	NameTokensAll   float64 // two or more name tokens in the URL path
	NameTokensOne   float64 // exactly one name token
	CompanyMatch    float64 // company token in path or snippet
	ShortPathBonus  float64
	ShortPathMaxLen int

	PeopleSearchEmailMatch float64
	PeopleSearchBase       float64
	TwitterSearch          float64
	TwitterProfileBonus    float64
	GitHubSearch           float64
	GitHubBonus            float64
	ContentLink            float64 // flat, 0-100

	VerifiedEmailBaseline float64
	EmailBoostFloor       float64
	CrossNetworkFloor     float64
	EarlyStop             float64

	NetworkResultLimit int
	ContentResultLimit int
}

// DefaultScoring returns the standard weights.
func DefaultScoring() Scoring {
	return Scoring{
		NameTokensAll:   0.45,
		NameTokensOne:   0.25,
		CompanyMatch:    0.25,
		ShortPathBonus:  0.05,
		ShortPathMaxLen: 60,

		PeopleSearchEmailMatch: 0.9,
		PeopleSearchBase:       0.8,
		TwitterSearch:          0.7,
		TwitterProfileBonus:    0.1,
		GitHubSearch:           0.65,
		GitHubBonus:            0.1,
		ContentLink:            60,

		VerifiedEmailBaseline: 60,
		EmailBoostFloor:       90,
		CrossNetworkFloor:     92,
		EarlyStop:             85,

		NetworkResultLimit: 4,
		ContentResultLimit: 6,
	}
}

// Heuristic scores how well a URL (and its search snippet) matches a person,
// clamped to [0,1].
func (s Scoring) Heuristic(rawURL, snippet, first, last, company string) float64 {
	path := fold(urlPath(rawURL))

	matches := 0
	for _, tok := range []string{first, last} {
		tok = fold(strings.TrimSpace(tok))
		if tok != "" && strings.Contains(path, tok) {
			matches++
		}
	}

	var score float64
	switch {
	case matches >= 2:
		score += s.NameTokensAll
	case matches == 1:
		score += s.NameTokensOne
	}

	if company = fold(strings.TrimSpace(company)); company != "" {
		if strings.Contains(path, strings.ReplaceAll(company, " ", "")) ||
			strings.Contains(fold(snippet), company) {
			score += s.CompanyMatch
		}
	}

	if strings.Contains(path, "/") && len(strings.Trim(path, "/")) < s.ShortPathMaxLen {
		score += s.ShortPathBonus
	}
	return clamp(score, 0, 1)
}

// urlPath returns the lowercased path of a URL, or the whole string when it
// does not parse.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Path)
}

// Username returns the first path segment of a profile URL, lowercased.
func Username(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	path := strings.Trim(urlPath(rawURL), "/")
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[:i]
	}
	return path
}

// fold lowercases s and strips diacritics so "José" matches "jose".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// toPercent converts a 0-1 weight product to a clamped 0-100 confidence.
func toPercent(v float64) int {
	return int(clamp(v*100, 0, 100) + 0.5)
}
