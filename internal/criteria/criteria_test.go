package criteria

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/pkg/apierr"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/mistral"
	"github.com/sells-group/enrich-cli/pkg/mistral/mocks"
)

func reply(content string) *mistral.ChatCompletionResponse {
	return &mistral.ChatCompletionResponse{
		Model:   "mistral-small-latest",
		Choices: []mistral.Choice{{Message: mistral.Message{Role: "assistant", Content: content}}},
		Usage:   mistral.Usage{PromptTokens: 1000, CompletionTokens: 500},
	}
}

func int64p(v int64) *int64 { return &v }

func TestParse(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req mistral.ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			req.Messages[1].Content == "Series B fintechs in Austin using Snowflake, 50-200 people, $5M-$20M ARR" &&
			req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object"
	})).Return(reply("```json\n"+`{
  "industries": ["Fintech", " "],
  "employee_count": {"min": 50, "max": 200},
  "arr_usd": {"min": 5000000, "max": 20000000},
  "locations": ["Texas"],
  "cities": ["Austin"],
  "technologies": ["Snowflake", "Node.js"]
}`+"\n```"), nil).Once()

	tracker := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
	req, err := Parse(context.Background(), m,
		"Series B fintechs in Austin using Snowflake, 50-200 people, $5M-$20M ARR",
		WithPerPage(25), WithRecorder(tracker))
	require.NoError(t, err)

	assert.Equal(t, &apollo.CompanySearchRequest{
		Page:           1,
		PerPage:        25,
		EmployeeRanges: []string{"50,200"},
		Locations:      []string{"Austin"},
		KeywordTags:    []string{"Fintech"},
		TechnologyUIDs: []string{"snowflake", "node_js"},
		RevenueRange:   &apollo.Range{Min: int64p(5000000), Max: int64p(20000000)},
	}, req)

	ledger := tracker.Ledger()
	require.Len(t, ledger, 1)
	assert.Equal(t, "mistral", ledger[0].Provider)
	assert.Equal(t, 1500, ledger[0].Tokens)
	assert.InDelta(t, 0.0005, ledger[0].USD, 1e-9)
}

func TestParse_Errors(t *testing.T) {
	t.Run("empty description", func(t *testing.T) {
		_, err := Parse(context.Background(), mocks.NewMockClient(t), "   ")
		assert.ErrorContains(t, err, "description is empty")
	})

	t.Run("no client", func(t *testing.T) {
		_, err := Parse(context.Background(), nil, "fintechs")
		assert.True(t, apierr.IsNotConfigured(err))
	})

	t.Run("not json", func(t *testing.T) {
		m := mocks.NewMockClient(t)
		m.On("ChatCompletion", mock.Anything, mock.Anything).Return(reply("I cannot help with that."), nil).Once()
		_, err := Parse(context.Background(), m, "fintechs")
		assert.True(t, apierr.IsParse(err))
	})

	t.Run("no filters", func(t *testing.T) {
		m := mocks.NewMockClient(t)
		m.On("ChatCompletion", mock.Anything, mock.Anything).Return(reply(`{"industries": []}`), nil).Once()
		_, err := Parse(context.Background(), m, "anything at all")
		assert.ErrorContains(t, err, "no filters found")
	})

	t.Run("provider error passes through", func(t *testing.T) {
		m := mocks.NewMockClient(t)
		m.On("ChatCompletion", mock.Anything, mock.Anything).
			Return(nil, &apierr.RateLimitedError{Provider: "mistral"}).Once()
		_, err := Parse(context.Background(), m, "fintechs")
		assert.True(t, apierr.IsRateLimited(err))
	})
}

func TestSearchRequest(t *testing.T) {
	minOnly := 100.0
	zero := 0.0
	f := Filters{
		CompanyName:   " Acme ",
		Locations:     []string{"Germany", ""},
		EmployeeCount: &Bounds{Min: &minOnly},
		TotalFunding:  &Bounds{Min: &zero, Max: &minOnly},
		RevenueUSD:    &Bounds{Min: &zero},
	}
	req := f.SearchRequest(0)

	assert.Equal(t, 10, req.PerPage)
	assert.Equal(t, "Acme", req.OrganizationName)
	assert.Equal(t, []string{"Germany"}, req.Locations)
	assert.Nil(t, req.EmployeeRanges, "a range needs both ends")
	assert.Nil(t, req.RevenueRange, "zero bounds are dropped")
	require.NotNil(t, req.FundingRange)
	assert.Nil(t, req.FundingRange.Min)
	assert.Equal(t, int64(100), *req.FundingRange.Max)
}

func TestTechnologyUID(t *testing.T) {
	tests := map[string]string{
		"Snowflake":           "snowflake",
		"Google Analytics":    "google_analytics",
		" Node.js ":           "node_js",
		"Amazon Web Services": "amazon_web_services",
	}
	for in, want := range tests {
		assert.Equal(t, want, TechnologyUID(in), in)
	}
}

func TestFiltersEmpty(t *testing.T) {
	assert.True(t, (&Filters{}).Empty())
	assert.True(t, (&Filters{EmployeeCount: &Bounds{}}).Empty())
	assert.False(t, (&Filters{Cities: []string{"Austin"}}).Empty())
}
