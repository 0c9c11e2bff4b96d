// Package cost prices provider calls and keeps a per-run ledger.
package cost

import "strings"

// Rates holds per-provider pricing configuration. Per-call prices are USD
// per successful call; keys are a provider name or "provider.call_type",
// the latter taking precedence.
type Rates struct {
	PerCall map[string]float64   `yaml:"per_call" mapstructure:"per_call"`
	Models  map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Call returns the cost of count successful calls.
func (c *Calculator) Call(provider, callType string, count int) float64 {
	if count <= 0 {
		return 0
	}
	provider = strings.ToLower(provider)
	if rate, ok := c.rates.PerCall[provider+"."+strings.ToLower(callType)]; ok {
		return rate * float64(count)
	}
	return c.rates.PerCall[provider] * float64(count)
}

// Tokens computes the cost of a chat completion by model.
func (c *Calculator) Tokens(model string, input, output int) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		PerCall: map[string]float64{
			"apollo":                 0.01,
			"enrichlayer":            0.01,
			"coresignal":             0.02,
			"hunter":                 0.01,
			"hunter.email_verify":    0.005,
			"serper":                 0.001,
			"mistral":                0,
			"coresignal.enrich":      0.02,
			"coresignal.slug_lookup": 0.01,
		},
		Models: map[string]ModelRate{
			"mistral-small-latest": {Input: 0.20, Output: 0.60},
			"mistral-large-latest": {Input: 2.00, Output: 6.00},
		},
	}
}
