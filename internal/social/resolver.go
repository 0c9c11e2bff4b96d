// Package social discovers a contact's social profile URLs and rates each
// one with a 0-100 confidence.
package social

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/hunter"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// Evidence sources.
const (
	SourceEmailVerify  = "hunter_email_verify"
	SourcePeopleSearch = "apollo"
	SourceWebSearch    = "serper"
)

var contentHosts = []string{"medium.com", "youtube.com", "blog", "speakerdeck.com"}

// Identity is what the resolver knows about a person.
type Identity struct {
	Email         string
	FirstName     string
	LastName      string
	Company       string
	CompanyDomain string
}

// FullName joins the trimmed first and last names.
func (id Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(id.FirstName) + " " + strings.TrimSpace(id.LastName))
}

// CacheKey keys on the lowercased email when present, otherwise on the
// lowercased name and company.
func (id Identity) CacheKey() string {
	if e := strings.TrimSpace(id.Email); e != "" {
		return "social|email:" + strings.ToLower(e)
	}
	return "social|name:" + strings.ToLower(id.FullName()) + "|company:" + strings.ToLower(strings.TrimSpace(id.Company))
}

func (id Identity) emailLocal() string {
	local, _, _ := strings.Cut(strings.TrimSpace(id.Email), "@")
	return strings.ToLower(local)
}

// searchSubject is the quoted term used in web queries: the full name, or
// the email local part when no name is known.
func (id Identity) searchSubject() string {
	if n := id.FullName(); n != "" {
		return n
	}
	return id.emailLocal()
}

// Recorder receives one entry per provider call.
type Recorder interface {
	RecordCall(provider, callType string, count int, success bool)
}

// Resolver runs the social discovery strategies. Every client is optional;
// a nil client skips its strategy.
type Resolver struct {
	apollo   apollo.Client
	hunter   hunter.Client
	serper   serper.Client
	cache    Cache
	scoring  Scoring
	recorder Recorder
	group    singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithApollo enables the people-search strategy.
func WithApollo(c apollo.Client) Option { return func(r *Resolver) { r.apollo = c } }

// WithHunter enables the email deliverability check.
func WithHunter(c hunter.Client) Option { return func(r *Resolver) { r.hunter = c } }

// WithSerper enables the web search strategies.
func WithSerper(c serper.Client) Option { return func(r *Resolver) { r.serper = c } }

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option { return func(r *Resolver) { r.cache = c } }

// WithScoring replaces the default weights.
func WithScoring(s Scoring) Option { return func(r *Resolver) { r.scoring = s } }

// WithRecorder reports provider calls for cost accounting.
func WithRecorder(rec Recorder) Option { return func(r *Resolver) { r.recorder = rec } }

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{scoring: DefaultScoring()}
	for _, o := range opts {
		o(r)
	}
	if r.cache == nil {
		r.cache = NewMemoryCache(DefaultTTL, nil)
	}
	return r
}

// Resolve returns the social payload for id, or nil when nothing was found.
// Fresh cache hits are returned without any provider calls. Concurrent
// calls for the same identity share one lookup.
func (r *Resolver) Resolve(ctx context.Context, id Identity) *model.SocialPayload {
	if id.FullName() == "" && strings.TrimSpace(id.Email) == "" {
		return nil
	}
	key := id.CacheKey()
	log := zap.L().With(zap.String("key", key))

	if p, err := r.cache.Get(ctx, key); err != nil {
		log.Warn("social: cache read failed", zap.Error(err))
	} else if p != nil {
		log.Debug("social: cache hit")
		return p
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		if p, err := r.cache.Get(ctx, key); err == nil && p != nil {
			return p, nil
		}
		p := r.discover(ctx, id)
		if p == nil {
			return (*model.SocialPayload)(nil), nil
		}
		if err := r.cache.Set(ctx, key, p); err != nil {
			log.Warn("social: cache write failed", zap.Error(err))
		}
		return p, nil
	})
	return v.(*model.SocialPayload)
}

func (r *Resolver) discover(ctx context.Context, id Identity) *model.SocialPayload {
	p := model.NewSocialPayload()

	r.verifyEmail(ctx, id, p)
	r.peopleSearch(ctx, id, p)
	r.networkSearch(ctx, id, p, model.SocialTwitter)
	r.networkSearch(ctx, id, p, model.SocialGitHub)
	r.contentSearch(ctx, id, p)

	r.applyBoosts(id, p)

	if !p.Populated() {
		return nil
	}
	return p
}

func (r *Resolver) verifyEmail(ctx context.Context, id Identity, p *model.SocialPayload) {
	if r.hunter == nil || strings.TrimSpace(id.Email) == "" {
		return
	}
	res, err := r.hunter.VerifyEmail(ctx, id.Email)
	r.record("hunter", "email_verify", err)
	if err != nil {
		logStrategyError("email_verify", err)
		return
	}
	if res.Deliverable() {
		p.EmailVerified = true
		p.Confidences[model.SocialEmailVerified] = toPercent(r.scoring.VerifiedEmailBaseline / 100)
		p.AddSource(SourceEmailVerify)
	}
}

func (r *Resolver) peopleSearch(ctx context.Context, id Identity, p *model.SocialPayload) {
	if r.apollo == nil || id.CompanyDomain == "" {
		return
	}
	resp, err := r.apollo.SearchPeople(ctx, apollo.PeopleSearchRequest{
		PerPage:             5,
		OrganizationDomains: []string{id.CompanyDomain},
	})
	r.record("apollo", "people_search", err)
	if err != nil {
		logStrategyError("people_search", err)
		return
	}
	if resp == nil {
		return
	}

	for _, person := range resp.People {
		emailMatch := id.Email != "" && strings.EqualFold(person.Email, id.Email)
		nameMatch := id.FullName() != "" &&
			strings.EqualFold(person.FirstName, id.FirstName) &&
			strings.EqualFold(person.LastName, id.LastName)
		if !emailMatch && !nameMatch {
			continue
		}

		weight := r.scoring.PeopleSearchBase
		if emailMatch {
			weight = r.scoring.PeopleSearchEmailMatch
		}
		snippet := truncate(fmt.Sprintf("%s %s, %s", person.FirstName, person.LastName, person.Title), 300)
		if person.TwitterURL != "" {
			addCandidate(p, model.SocialTwitter, person.TwitterURL, SourcePeopleSearch, snippet, toPercent(weight))
		}
		if person.GitHubURL != "" {
			addCandidate(p, model.SocialGitHub, person.GitHubURL, SourcePeopleSearch, snippet, toPercent(weight))
		}
	}
}

func (r *Resolver) networkSearch(ctx context.Context, id Identity, p *model.SocialPayload, field string) {
	if r.serper == nil {
		return
	}
	subject := id.searchSubject()
	if subject == "" {
		return
	}

	host := "twitter.com"
	if field == model.SocialGitHub {
		host = "github.com"
	}
	q := strings.TrimSpace(fmt.Sprintf(`site:%s "%s" %s`, host, subject, id.Company))

	resp, err := r.serper.Search(ctx, q)
	r.record("serper", field+"_search", err)
	if err != nil {
		logStrategyError(field+"_search", err)
		return
	}
	if resp == nil {
		return
	}

	for i, item := range resp.Organic {
		if i >= r.scoring.NetworkResultLimit {
			break
		}
		link := item.Link
		if link == "" || !strings.Contains(strings.ToLower(link), host) {
			continue
		}
		if field == model.SocialTwitter && strings.Contains(link, "/status/") {
			continue
		}

		snippet := item.Snippet + " " + item.Title
		h := r.scoring.Heuristic(link, snippet, id.FirstName, id.LastName, id.Company)

		var conf float64
		switch field {
		case model.SocialTwitter:
			conf = r.scoring.TwitterSearch * h
			if strings.Contains(strings.ToLower(link), "profile") {
				conf += r.scoring.TwitterProfileBonus
			}
		case model.SocialGitHub:
			conf = r.scoring.GitHubSearch*h + r.scoring.GitHubBonus
		}
		addCandidate(p, field, link, SourceWebSearch, truncate(snippet, 400), toPercent(conf))

		if float64(p.Confidences[field]) >= r.scoring.EarlyStop {
			break
		}
	}
}

func (r *Resolver) contentSearch(ctx context.Context, id Identity, p *model.SocialPayload) {
	if r.serper == nil {
		return
	}
	subject := id.searchSubject()
	if subject == "" {
		return
	}
	q := fmt.Sprintf(`"%s" %s (article OR blog OR talk OR medium.com OR youtube.com)`, subject, id.Company)
	q = strings.Join(strings.Fields(q), " ")

	resp, err := r.serper.Search(ctx, q)
	r.record("serper", "content_search", err)
	if err != nil {
		logStrategyError("content_search", err)
		return
	}
	if resp == nil {
		return
	}

	var titles []string
	for i, item := range resp.Organic {
		if i >= r.scoring.ContentResultLimit {
			break
		}
		link := strings.ToLower(item.Link)
		if link == "" || !containsAny(link, contentHosts) {
			continue
		}
		if item.Title != "" {
			titles = append(titles, truncate(item.Title, 200))
		}
		if strings.Contains(link, "medium.com") {
			addCandidate(p, model.SocialMedium, item.Link, SourceWebSearch, truncate(item.Snippet, 400),
				int(clamp(r.scoring.ContentLink, 0, 100)))
		}
	}
	if len(titles) > 3 {
		titles = titles[:3]
	}
	if len(titles) > 0 {
		p.PublishedContent = titles
		p.AddSource(SourceWebSearch)
	}
}

// applyBoosts raises confidences for corroborated profiles: a verified
// email whose local part appears in the URL, and a username shared by two
// networks.
func (r *Resolver) applyBoosts(id Identity, p *model.SocialPayload) {
	fields := []string{model.SocialTwitter, model.SocialGitHub, model.SocialMedium}

	if p.EmailVerified {
		if local := id.emailLocal(); local != "" {
			for _, f := range fields {
				if u := p.URL(f); u != "" && strings.Contains(strings.ToLower(u), local) {
					raiseTo(p, f, r.scoring.EmailBoostFloor)
				}
			}
		}
	}

	for i, a := range fields {
		ua := Username(p.URL(a))
		if ua == "" {
			continue
		}
		for _, b := range fields[i+1:] {
			if Username(p.URL(b)) == ua {
				raiseTo(p, a, r.scoring.CrossNetworkFloor)
				raiseTo(p, b, r.scoring.CrossNetworkFloor)
			}
		}
	}
}

func (r *Resolver) record(provider, callType string, err error) {
	if r.recorder == nil || apierr.IsNotConfigured(err) {
		return
	}
	r.recorder.RecordCall(provider, callType, 1, err == nil)
}

// addCandidate records evidence for a URL and keeps the field's URL pointed
// at its highest-confidence candidate. Ties keep the earlier URL.
func addCandidate(p *model.SocialPayload, field, url, source, snippet string, conf int) {
	p.Evidence[field] = append(p.Evidence[field], model.Evidence{URL: url, Source: source, Snippet: snippet})
	p.AddSource(source)

	prev, seen := p.Confidences[field]
	if !seen || conf > prev {
		p.Confidences[field] = conf
		p.SetURL(field, url)
	}
}

func raiseTo(p *model.SocialPayload, field string, floor float64) {
	f := int(clamp(floor, 0, 100))
	if p.Confidences[field] < f {
		p.Confidences[field] = f
	}
}

func logStrategyError(strategy string, err error) {
	if apierr.IsNotConfigured(err) {
		zap.L().Debug("social: strategy skipped", zap.String("strategy", strategy), zap.Error(err))
		return
	}
	zap.L().Warn("social: strategy failed", zap.String("strategy", strategy), zap.Error(err))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
