package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rjager/tankclaim/internal/config"
	"github.com/rjager/tankclaim/internal/render"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit charging sessions as reimbursement claims",
		Long: `Fetch recent charging sessions and submit each one as a
MultiTankcard reimbursement claim. Sessions already present in the MTC
transaction list are skipped; sessions without an invoice are not
submitted. A failed claim does not stop the rest of the batch.

Use --dry-run to see what would be submitted without writing anything.`,
		Example: `  tankclaim submit
  tankclaim submit --max 5 --yes
  tankclaim submit --dry-run`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			requireMTCCredentials(cfg)
			if cfg.TeslaRefreshToken == "" {
				exitErrorf("TESLA_REFRESH_TOKEN must be set")
			}

			max, _ := cmd.Flags().GetInt("max")
			yes, _ := cmd.Flags().GetBool("yes")
			if max <= 0 {
				max = cfg.MaxSessions
			}

			// Each claim can cost several requests (duplicate check,
			// write, date-shift retries).
			ctx, cancel := commandContext(cfg, max*(2+cfg.MaxAttempts*2)+4)
			defer cancel()

			sessions, err := fetchSessions(ctx, cfg, max)
			if err != nil {
				exitErrorf("fetch sessions: %v", err)
			}
			if len(sessions) == 0 {
				fmt.Println("No charging sessions to process")
				return
			}

			r := render.New(pretty)
			fmt.Print(r.Sessions(sessions))
			fmt.Println()

			if cfg.DryRun {
				fmt.Println("Dry run: no claims will be written")
			} else if !yes && !confirm(fmt.Sprintf("Submit %d claim(s)?", len(sessions))) {
				fmt.Println("Aborted")
				return
			}

			client := newMTCClient(cfg)

			var submitted, skipped, failed int
			for _, s := range sessions {
				if !s.HasInvoice() {
					skipped++
					fmt.Printf("skipping %s (%s): no invoice available\n", s.SessionID, s.Location)
					continue
				}

				res := client.Submit(ctx, s, cfg.MaxAttempts)
				fmt.Println(r.Result(s, res))

				switch {
				case res.Duplicate:
					skipped++
				case res.OK:
					submitted++
				default:
					failed++
				}
			}

			fmt.Println()
			fmt.Println(r.Summary(submitted, skipped, failed))
			if failed > 0 {
				exitErrorf("%d claim(s) failed", failed)
			}
		},
	}
	cmd.Flags().Int("max", 0, "Maximum sessions to process (default MAX_SESSIONS)")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}
