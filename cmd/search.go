package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/cost"
	"github.com/sells-group/enrich-cli/internal/criteria"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/pipeline"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/mistral"
)

var searchPerPage int

var searchCmd = &cobra.Command{
	Use:   "search <description>",
	Short: "Find companies matching a plain-language description",
	Long:  "Turns a description such as \"Series B fintechs in Austin, 50-200 people\" into an Apollo company search and prints the matches as companies ready for enrich or leads.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		tracker := cost.NewTracker(cost.NewCalculator(pricingRates()))
		calls := pipeline.Calls{Retry: retryPolicy(), Recorder: tracker}
		apolloClient := providerClients().Instrument(calls).Apollo

		companies, err := searchCompanies(cmd.Context(), mistralClient(), apolloClient, tracker, strings.Join(args, " "), searchPerPage)
		if err != nil {
			return err
		}

		zap.L().Info("search complete",
			zap.Int("companies", len(companies)),
			zap.Float64("cost_usd", tracker.TotalUSD()),
		)
		return writeJSON(cmd.OutOrStdout(), companies)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchPerPage, "limit", 10, "max number of companies to return")
	rootCmd.AddCommand(searchCmd)
}

// searchCompanies parses text into a company search and maps the matches.
func searchCompanies(ctx context.Context, llm mistral.Client, ap apollo.Client, tracker *cost.Tracker, text string, limit int) ([]model.Company, error) {
	req, err := criteria.Parse(ctx, llm, text,
		criteria.WithPerPage(limit),
		criteria.WithRecorder(tracker),
	)
	if err != nil {
		return nil, eris.Wrap(err, "search: parse criteria")
	}

	resp, err := ap.SearchCompanies(ctx, *req)
	if err != nil {
		return nil, eris.Wrap(err, "search: apollo")
	}

	rows := resp.Rows()
	companies := make([]model.Company, 0, len(rows))
	for _, org := range rows {
		companies = append(companies, pipeline.CompanyFromOrganization(org))
	}
	return companies, nil
}
