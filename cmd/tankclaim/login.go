package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rjager/tankclaim/internal/config"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify MultiTankcard credentials",
		Long: `Run the full MTC session handshake and login once, without
submitting anything. Prompts for the password when MTC_PASSWORD is not
set and stdin is a terminal.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if cfg.MTCUsername == "" {
				exitErrorf("MTC_USERNAME must be set")
			}

			if cfg.MTCPassword == "" {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					exitErrorf("MTC_PASSWORD must be set")
				}
				fmt.Printf("Password for %s: ", cfg.MTCUsername)
				pw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					exitErrorf("read password: %v", err)
				}
				cfg.MTCPassword = string(pw)
			}

			ctx, cancel := commandContext(cfg, 6)
			defer cancel()

			client := newMTCClient(cfg)
			if err := client.Login(ctx); err != nil {
				exitErrorf("login failed: %v", err)
			}

			fmt.Println("Login OK: session established, anti-forgery token rotated")
		},
	}
}
