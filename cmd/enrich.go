package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/pipeline"
)

var (
	enrichInput    string
	enrichName     string
	enrichDomain   string
	enrichLinkedIn string
	enrichReport   bool
	leadsInput     string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich companies across every configured provider",
	Long:  "Reads companies from --input (a JSON object or array, - for stdin) or from the identity flags, enriches them, and prints the validated batch result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		companies, err := enrichTargets(cmd.InOrStdin())
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		if enrichReport {
			if len(companies) != 1 {
				return eris.New("enrich: --report needs exactly one company")
			}
			// Report runs are not stored, so their events only go to the log.
			rc := pipeline.NewRunContext(uuid.NewString(), uuid.NewString(), zap.L(), pipeline.NewZapSink(zap.L()))
			res := env.Enricher.Enrich(ctx, rc, companies[0])
			_, err := fmt.Fprint(cmd.OutOrStdout(), pipeline.FormatReport(res, env.Tracker.Ledger()))
			return err
		}

		result, err := env.Batch.Companies(ctx, companies)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		zap.L().Info("enrichment complete",
			zap.String("run_id", result.RunID),
			zap.Int("companies", len(result.Entities)),
			zap.Int("filtered", result.Stats.Filtered),
			zap.Int("errors", len(result.Errors)),
			zap.Float64("cost_usd", env.Tracker.TotalUSD()),
		)

		return writeJSON(cmd.OutOrStdout(), result)
	},
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Find and enrich contacts at companies",
	Long:  "Reads companies from --input, finds people through Apollo and Hunter, resolves their social profiles, matches configured personas and prints the validated leads as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		companies, err := readInput(leadsInput, cmd.InOrStdin())
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "leads")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Batch.Leads(ctx, companies, personas())
		if err != nil {
			return eris.Wrap(err, "leads")
		}

		zap.L().Info("lead search complete",
			zap.String("run_id", result.RunID),
			zap.Int("leads", len(result.Entities)),
			zap.Int("filtered", result.Stats.Filtered),
			zap.Float64("cost_usd", env.Tracker.TotalUSD()),
		)

		return writeJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "JSON file of companies (- for stdin)")
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "company name")
	enrichCmd.Flags().StringVar(&enrichDomain, "domain", "", "company domain")
	enrichCmd.Flags().StringVar(&enrichLinkedIn, "linkedin", "", "company LinkedIn URL")
	enrichCmd.Flags().BoolVar(&enrichReport, "report", false, "print a markdown report for a single company instead of JSON")
	leadsCmd.Flags().StringVar(&leadsInput, "input", "", "JSON file of companies (- for stdin)")
	_ = leadsCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(leadsCmd)
}

// enrichTargets returns the companies named by --input or by the identity
// flags, but not both.
func enrichTargets(stdin io.Reader) ([]model.Company, error) {
	flagged := model.Company{
		Name:               enrichName,
		Domain:             enrichDomain,
		CompanyLinkedInURL: enrichLinkedIn,
	}
	hasFlags := flagged.HasIdentity()

	switch {
	case enrichInput != "" && hasFlags:
		return nil, eris.New("enrich: use either --input or the company flags")
	case enrichInput != "":
		return readInput(enrichInput, stdin)
	case hasFlags:
		return []model.Company{flagged}, nil
	default:
		return nil, eris.New("enrich: --input or --name, --domain or --linkedin is required")
	}
}

// readInput decodes a JSON company or array of companies from path, or from
// stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]model.Company, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read input %s", path)
	}
	return decodeCompanies(data)
}

func decodeCompanies(data []byte) ([]model.Company, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, eris.New("input is empty")
	}
	if data[0] == '{' {
		var c model.Company
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "decode company")
		}
		return []model.Company{c}, nil
	}
	var out []model.Company
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "decode companies")
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
