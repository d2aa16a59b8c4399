package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/cli"
	"github.com/example/maintd/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "maintd",
		Short:   "maintd - maintenance request escalation service",
		Version: version.String(),
		Long: `maintd tracks maintenance requests and escalates the ones left unresolved
past the configured threshold, one level per overdue window, up to a cap.`,
		SilenceUsage: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.RequestCmd())
	rootCmd.AddCommand(cli.EscalationCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
