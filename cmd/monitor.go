package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/monitoring"
)

var monitorOnce bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch recent runs and send webhook alerts",
	Long:  "Checks run failure rate, guardrail filter rate and spend over the lookback window, posting an alert to the webhook when a threshold is crossed. Runs until interrupted unless --once is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("monitor"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		checker := monitoring.NewChecker(
			monitoring.NewCollector(st),
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
		)
		if monitorOnce {
			return writeJSON(cmd.OutOrStdout(), checker.Check(ctx))
		}
		checker.Run(ctx)
		return nil
	},
}

var monitorSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print run health over the lookback window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := monitoring.NewCollector(st).Collect(ctx, cfg.Monitoring.LookbackWindowHours)
		if err != nil {
			return eris.Wrap(err, "monitor snapshot")
		}
		return writeJSON(cmd.OutOrStdout(), snap)
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "run a single check and print the alerts that fired")
	monitorCmd.AddCommand(monitorSnapshotCmd)
	rootCmd.AddCommand(monitorCmd)
}
