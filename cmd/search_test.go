//go:build !integration

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	apollomocks "github.com/sells-group/enrich-cli/pkg/apollo/mocks"
	"github.com/sells-group/enrich-cli/pkg/mistral"
	mistralmocks "github.com/sells-group/enrich-cli/pkg/mistral/mocks"
)

func criteriaReply(content string) *mistral.ChatCompletionResponse {
	return &mistral.ChatCompletionResponse{
		Model:   "mistral-small-latest",
		Choices: []mistral.Choice{{Message: mistral.Message{Role: "assistant", Content: content}}},
		Usage:   mistral.Usage{PromptTokens: 200, CompletionTokens: 50},
	}
}

func TestSearchCompanies(t *testing.T) {
	llm := mistralmocks.NewMockClient(t)
	llm.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(criteriaReply(`{"industries": ["Fintech"], "cities": ["Austin"]}`), nil).Once()

	ap := apollomocks.NewMockClient(t)
	ap.On("SearchCompanies", mock.Anything, mock.MatchedBy(func(req apollo.CompanySearchRequest) bool {
		return req.PerPage == 5 && len(req.Locations) == 1 && req.Locations[0] == "Austin"
	})).Return(&apollo.CompanySearchResponse{
		Organizations: []apollo.Organization{
			{ID: "org-1", Name: "Acme Pay", PrimaryDomain: "acmepay.com"},
			{ID: "org-2", Name: "Beta Bank"},
		},
	}, nil).Once()

	tracker := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
	got, err := searchCompanies(context.Background(), llm, ap, tracker, "fintechs in Austin", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme Pay", got[0].Name)
	assert.Equal(t, "org-1", got[0].OrganizationID)
	assert.Equal(t, "Beta Bank", got[1].Name)
	assert.Len(t, tracker.Ledger(), 1, "the criteria call is recorded")
}

func TestSearchCompanies_Errors(t *testing.T) {
	tracker := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))

	t.Run("parse", func(t *testing.T) {
		_, err := searchCompanies(context.Background(), mistralmocks.NewMockClient(t), apollomocks.NewMockClient(t), tracker, "  ", 5)
		assert.ErrorContains(t, err, "search: parse criteria")
	})

	t.Run("apollo", func(t *testing.T) {
		llm := mistralmocks.NewMockClient(t)
		llm.On("ChatCompletion", mock.Anything, mock.Anything).
			Return(criteriaReply(`{"industries": ["Fintech"]}`), nil).Once()
		ap := apollomocks.NewMockClient(t)
		ap.On("SearchCompanies", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := searchCompanies(context.Background(), llm, ap, tracker, "fintechs", 5)
		assert.ErrorContains(t, err, "search: apollo")
	})
}

func TestSearchCmd_RequiresKeys(t *testing.T) {
	cfg = testConfig(t)
	searchCmd.SetContext(context.Background())
	err := searchCmd.RunE(searchCmd, []string{"fintechs"})
	assert.ErrorContains(t, err, "mistral.key is required")
}
