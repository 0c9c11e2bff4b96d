package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)
	for _, name := range []string{"enrich", "leads", "search", "migrate", "runs", "monitor"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "enrich-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestEnrichCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "name", "domain", "linkedin", "report"} {
		assert.NotNil(t, enrichCmd.Flags().Lookup(name), "enrich should have --%s flag", name)
	}
	assert.Equal(t, "false", enrichCmd.Flags().Lookup("report").DefValue)
}

func TestLeadsCommand_Flags(t *testing.T) {
	require.NotNil(t, leadsCmd.Flags().Lookup("input"))
}

func TestSearchCommand_Flags(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "search command should have --limit flag")
	assert.Equal(t, "10", flag.DefValue)
}

func TestMonitorCommand(t *testing.T) {
	require.NotNil(t, monitorCmd.Flags().Lookup("once"))
	assert.True(t, subcommandNames(monitorCmd)["snapshot"])
}

func TestMigrateCommand_HasPrune(t *testing.T) {
	assert.True(t, subcommandNames(migrateCmd)["prune-cache"])
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(runsCmd)
	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}
