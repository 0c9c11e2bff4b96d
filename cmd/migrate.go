package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var migratePruneCmd = &cobra.Command{
	Use:   "prune-cache",
	Short: "Delete expired social profile cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredSocial(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("social cache pruned", zap.Int("deleted", n))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migratePruneCmd)
	rootCmd.AddCommand(migrateCmd)
}
