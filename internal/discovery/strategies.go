package discovery

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/coresignal"
)

// Strategy names, recorded as DomainDiscoveryResult.StrategyName.
const (
	StrategySlugLookup       = "slug_lookup"
	StrategyProfileURLSearch = "profile_url_search"
	StrategyNameSearch       = "name_search"
)

// Default confidences on the 0-100 scale.
const (
	DefaultSlugConfidence    = 90
	DefaultProfileConfidence = 80
	DefaultNameConfidence    = 60

	MaxConfidence = 100
)

var slugPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?linkedin\.com/company/([^/?]+)`)

// ExtractSlug returns the company slug from a professional-network company
// URL, or "" when the URL does not match.
func ExtractSlug(profileURL string) string {
	m := slugPattern.FindStringSubmatch(profileURL)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// slugWebsiteFields is the order in which website fields are read from a
// slug lookup result.
var slugWebsiteFields = []string{
	coresignal.FieldWebsitesMain,
	coresignal.FieldWebsitesResolved,
	coresignal.FieldUniqueWebsite,
	coresignal.FieldUniqueDomain,
}

type slugLookup struct {
	client     coresignal.Client
	confidence int
}

// NewSlugLookup returns a strategy that extracts the slug from the company's
// profile URL and resolves it with a direct lookup call. A non-positive
// confidence selects the default.
func NewSlugLookup(client coresignal.Client, confidence int) Strategy {
	return &slugLookup{client: client, confidence: orDefault(confidence, DefaultSlugConfidence)}
}

func (s *slugLookup) Name() string    { return StrategySlugLookup }
func (s *slugLookup) Confidence() int { return s.confidence }

func (s *slugLookup) Discover(ctx context.Context, c *model.Company) (string, error) {
	slug := ExtractSlug(c.ProfileURL())
	if slug == "" {
		return "", nil
	}
	res, err := s.client.CollectBySlug(ctx, slug)
	if err != nil || res == nil {
		return "", err
	}
	for _, f := range slugWebsiteFields {
		if w := res.WebsiteField(f); w != "" {
			return w, nil
		}
	}
	return "", nil
}

type profileURLSearch struct {
	client     coresignal.Client
	confidence int
}

// NewProfileURLSearch returns a strategy that reverse-searches by the full
// profile URL.
func NewProfileURLSearch(client coresignal.Client, confidence int) Strategy {
	return &profileURLSearch{client: client, confidence: orDefault(confidence, DefaultProfileConfidence)}
}

func (s *profileURLSearch) Name() string    { return StrategyProfileURLSearch }
func (s *profileURLSearch) Confidence() int { return s.confidence }

func (s *profileURLSearch) Discover(ctx context.Context, c *model.Company) (string, error) {
	u := c.ProfileURL()
	if u == "" {
		return "", nil
	}
	res, err := s.client.SearchByProfileURL(ctx, u)
	if err != nil || res == nil {
		return "", err
	}
	return res.WebsiteField(coresignal.FieldWebsite), nil
}

type nameSearch struct {
	client     coresignal.Client
	confidence int
}

// NewNameSearch returns a strategy that searches by company name, narrowed
// by location when one is known.
func NewNameSearch(client coresignal.Client, confidence int) Strategy {
	return &nameSearch{client: client, confidence: orDefault(confidence, DefaultNameConfidence)}
}

func (s *nameSearch) Name() string    { return StrategyNameSearch }
func (s *nameSearch) Confidence() int { return s.confidence }

func (s *nameSearch) Discover(ctx context.Context, c *model.Company) (string, error) {
	if strings.TrimSpace(c.Name) == "" {
		return "", nil
	}
	location := c.Location
	if location == "" {
		location = c.Headquarters
	}
	res, err := s.client.SearchByName(ctx, c.Name, location)
	if err != nil || res == nil {
		return "", err
	}
	return res.WebsiteField(coresignal.FieldWebsite), nil
}

// Confidences overrides the per-strategy confidence. Zero keeps the default.
type Confidences struct {
	SlugLookup       int
	ProfileURLSearch int
	NameSearch       int
}

// DefaultStrategies returns slug lookup, profile URL search and name search
// in that order, all backed by client.
func DefaultStrategies(client coresignal.Client, conf Confidences) []Strategy {
	return []Strategy{
		NewSlugLookup(client, conf.SlugLookup),
		NewProfileURLSearch(client, conf.ProfileURLSearch),
		NewNameSearch(client, conf.NameSearch),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return clampConfidence(v)
}

// clampConfidence bounds a confidence to [0, MaxConfidence].
func clampConfidence(v int) int {
	return max(0, min(v, MaxConfidence))
}
