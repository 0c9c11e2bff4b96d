// Package discovery finds a company's domain when no provider supplied one.
//
// A Chain runs its strategies strictly in order and stops at the first one
// that yields a usable domain. Strategy errors are logged and never abort
// the chain.
package discovery

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Strategy resolves a raw website for a company. An empty string with a nil
// error means the strategy had nothing to go on or found nothing.
type Strategy interface {
	Name() string
	Confidence() int
	Discover(ctx context.Context, c *model.Company) (string, error)
}

// Attempt records one strategy invocation.
type Attempt struct {
	Strategy string
	Domain   string
	Err      error
	Duration time.Duration
}

// Found reports whether the attempt produced a usable domain.
func (a Attempt) Found() bool {
	return a.Err == nil && a.Domain != ""
}

// Chain is an ordered list of discovery strategies.
type Chain struct {
	strategies []Strategy
	blocklist  []string
	onAttempt  func(Attempt)
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithBlocklist rejects discovered domains on (or under) the listed hosts,
// such as directory or social sites. Rejected results count as misses.
func WithBlocklist(hosts []string) ChainOption {
	return func(ch *Chain) {
		ch.blocklist = hosts
	}
}

// WithAttemptHook registers a callback invoked after every strategy call.
func WithAttemptHook(fn func(Attempt)) ChainOption {
	return func(ch *Chain) {
		ch.onAttempt = fn
	}
}

// NewChain creates a chain over the given strategies in order.
func NewChain(strategies []Strategy, opts ...ChainOption) *Chain {
	ch := &Chain{strategies: strategies}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

// Strategies returns the strategy names in execution order.
func (ch *Chain) Strategies() []string {
	names := make([]string, len(ch.strategies))
	for i, s := range ch.strategies {
		names[i] = s.Name()
	}
	return names
}

// Discover runs the strategies until one returns a usable domain. It returns
// nil when every strategy is exhausted, along with the attempt log.
func (ch *Chain) Discover(ctx context.Context, c *model.Company) (*model.DomainDiscoveryResult, []Attempt) {
	log := zap.L().With(zap.String("company", c.Name))

	var attempts []Attempt
	for _, s := range ch.strategies {
		if ctx.Err() != nil {
			log.Debug("discovery: context done, stopping chain", zap.Error(ctx.Err()))
			break
		}

		start := time.Now()
		raw, err := s.Discover(ctx, c)
		a := Attempt{Strategy: s.Name(), Err: err, Duration: time.Since(start)}
		if err == nil {
			a.Domain = NormalizeDomain(raw)
			if a.Domain != "" && IsBlocked(a.Domain, ch.blocklist) {
				log.Info("discovery: rejected blocked domain",
					zap.String("strategy", s.Name()),
					zap.String("domain", a.Domain),
				)
				a.Domain = ""
			}
		}
		attempts = append(attempts, a)
		if ch.onAttempt != nil {
			ch.onAttempt(a)
		}

		if err != nil {
			log.Warn("discovery: strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		if a.Domain == "" {
			log.Debug("discovery: strategy found nothing", zap.String("strategy", s.Name()))
			continue
		}

		conf := clampConfidence(s.Confidence())
		log.Info("discovery: domain found",
			zap.String("strategy", s.Name()),
			zap.String("domain", a.Domain),
			zap.Int("confidence", conf),
		)
		return &model.DomainDiscoveryResult{
			Key:          a.Domain,
			StrategyName: s.Name(),
			Confidence:   conf,
		}, attempts
	}
	return nil, attempts
}

// NormalizeDomain strips the protocol and any path from a website, trims
// slashes and lowercases the result.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, p := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.Trim(s, "/"))
}

// IsBlocked reports whether domain equals or is a subdomain of any host in
// the blocklist. A leading "www." is ignored on both sides.
func IsBlocked(domain string, blocklist []string) bool {
	host := strings.TrimPrefix(strings.ToLower(domain), "www.")
	for _, blocked := range blocklist {
		blocked = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(blocked)), "www.")
		if blocked == "" {
			continue
		}
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}
