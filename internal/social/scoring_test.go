package social

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestHeuristic(t *testing.T) {
	s := DefaultScoring()
	tests := []struct {
		name    string
		url     string
		snippet string
		want    float64
	}{
		{"both tokens", "https://twitter.com/janedoe", "", 0.50},
		{"both tokens and company snippet", "https://twitter.com/janedoe", "Engineer at Acme", 0.75},
		{"one token", "https://github.com/jdoe", "", 0.30},
		{"company in path", "https://github.com/acme/jane", "", 0.55},
		{"no match", "https://twitter.com/someone", "", 0.05},
		{"long path", "https://twitter.com/" + longPath(70), "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Heuristic(tt.url, tt.snippet, "Jane", "Doe", "Acme")
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestHeuristic_FoldsDiacritics(t *testing.T) {
	s := DefaultScoring()
	got := s.Heuristic("https://twitter.com/josemunoz", "", "José", "Muñoz", "")
	assert.InDelta(t, 0.50, got, 1e-9)
}

func TestHeuristic_CompanyWithSpaces(t *testing.T) {
	s := DefaultScoring()
	got := s.Heuristic("https://github.com/acmelabs", "", "", "", "Acme Labs")
	assert.InDelta(t, 0.30, got, 1e-9)
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "jdoe", Username("https://twitter.com/jdoe"))
	assert.Equal(t, "jdoe", Username("https://github.com/JDoe/"))
	assert.Equal(t, "jdoe", Username("https://github.com/jdoe/repo"))
	assert.Equal(t, "@jdoe", Username("https://medium.com/@jdoe/some-post"))
	assert.Empty(t, Username("https://twitter.com/"))
	assert.Empty(t, Username(""))
}

func TestToPercent(t *testing.T) {
	assert.Equal(t, 0, toPercent(-1))
	assert.Equal(t, 100, toPercent(3))
	assert.Equal(t, 63, toPercent(0.63))
}

func TestHeuristic_AlwaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	s := DefaultScoring()
	s.NameTokensAll = 0.9
	s.CompanyMatch = 0.9

	properties.Property("heuristic score stays within [0,1]", prop.ForAll(
		func(path, snippet, first, last, company string) bool {
			h := s.Heuristic("https://twitter.com/"+path, snippet, first, last, company)
			return h >= 0 && h <= 1
		},
		gen.AlphaString(), gen.AnyString(), gen.AlphaString(), gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("percent conversion stays within [0,100]", prop.ForAll(
		func(v float64) bool {
			p := toPercent(v)
			return p >= 0 && p <= 100
		},
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

func longPath(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
