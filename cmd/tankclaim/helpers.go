package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rjager/tankclaim/internal/config"
	"github.com/rjager/tankclaim/internal/domain"
	"github.com/rjager/tankclaim/internal/invoice"
	"github.com/rjager/tankclaim/internal/mtc"
	"github.com/rjager/tankclaim/internal/tesla"
)

// exitErrorf prints an error and exits non-zero.
func exitErrorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// confirm asks a yes/no question on stdin. Anything but y/yes is no.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// newTeslaClient builds the data-source client from configuration.
func newTeslaClient(cfg *config.Config) *tesla.Client {
	return tesla.New(tesla.Config{
		APIURL:         cfg.TeslaAPIURL,
		InvoiceURL:     cfg.TeslaInvoiceURL,
		AuthURL:        cfg.TeslaAuthURL,
		RefreshToken:   cfg.TeslaRefreshToken,
		VIN:            cfg.TeslaVIN,
		DeviceCountry:  cfg.DeviceCountry,
		DeviceLanguage: cfg.DeviceLanguage,
		TTPLocale:      cfg.TTPLocale,
		Timeout:        cfg.Timeout(),
	})
}

// newMTCClient builds the claim client from configuration.
func newMTCClient(cfg *config.Config) *mtc.Client {
	return mtc.NewClient(mtc.Config{
		BaseURL:        cfg.MTCBaseURL,
		Username:       cfg.MTCUsername,
		Password:       cfg.MTCPassword,
		Iban:           cfg.Iban,
		CountryID:      cfg.CountryID,
		LookbackMonths: cfg.LookbackMonths,
		DryRun:         cfg.DryRun,
		Timeout:        cfg.Timeout(),
	})
}

// fetchSessions pulls charging sessions and swaps in a local invoice
// image when one exists for the session ID.
func fetchSessions(ctx context.Context, cfg *config.Config, max int) ([]domain.ChargeSession, error) {
	client := newTeslaClient(cfg)

	sessions, err := client.ChargingSessions(ctx, max)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		att, ok, err := invoice.Resolve(cfg.InvoiceDir, sessions[i].SessionID)
		if err != nil {
			return nil, err
		}
		if ok {
			sessions[i].Invoice = att
		}
	}

	return sessions, nil
}

// requireMTCCredentials exits when the claim credentials are missing.
func requireMTCCredentials(cfg *config.Config) {
	if cfg.MTCUsername == "" || cfg.MTCPassword == "" {
		exitErrorf("MTC_USERNAME and MTC_PASSWORD must be set")
	}
}

// commandContext returns a context bounded generously above the
// per-request timeout, so a stuck batch still terminates.
func commandContext(cfg *config.Config, requests int) (context.Context, context.CancelFunc) {
	budget := time.Duration(requests) * cfg.Timeout()
	if budget < time.Minute {
		budget = time.Minute
	}
	return context.WithTimeout(context.Background(), budget)
}
