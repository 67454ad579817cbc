package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rjager/tankclaim/internal/config"
	"github.com/rjager/tankclaim/internal/render"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent charging sessions",
		Long: `Fetch recent charging sessions from the Tesla ownership API and
show what a submit run would claim, including whether an invoice is
available for each session.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if cfg.TeslaRefreshToken == "" {
				exitErrorf("TESLA_REFRESH_TOKEN must be set")
			}

			max, _ := cmd.Flags().GetInt("max")

			ctx, cancel := commandContext(cfg, max+2)
			defer cancel()

			sessions, err := fetchSessions(ctx, cfg, max)
			if err != nil {
				exitErrorf("fetch sessions: %v", err)
			}

			fmt.Print(render.New(pretty).Sessions(sessions))
		},
	}
	cmd.Flags().Int("max", 10, "Maximum sessions to list")

	return cmd
}
