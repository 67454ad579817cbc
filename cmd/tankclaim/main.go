// Package main provides the tankclaim CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rjager/tankclaim/internal/config"
	"github.com/rjager/tankclaim/internal/logging"
)

var (
	version = "0.2.0"
	pretty  = true
	dryRun  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tankclaim",
		Short: "Submit EV charging sessions as MultiTankcard reimbursement claims",
		Long: `tankclaim pulls charging sessions and invoices from the Tesla
ownership API and files reimbursement claims against MultiTankcard.

Credentials and settings come from the environment or from
~/.tankclaim/config.yaml (MTC_USERNAME, MTC_PASSWORD, IBAN,
TESLA_REFRESH_TOKEN, and friends).

Use 'tankclaim sessions' to inspect what would be claimed.
Use 'tankclaim submit' to file the claims.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logging.SetLevel(cfg.LogLevel)
			if dryRun {
				cfg.DryRun = true
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Check duplicates but write nothing")

	rootCmd.AddCommand(
		sessionsCmd(),
		submitCmd(),
		loginCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
