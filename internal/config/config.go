// Package config provides centralized configuration management.
// Values come from an optional YAML file overridden by environment
// variables, so a .env-style shell setup and a config file both work.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for optional settings.
const (
	DefaultLookbackMonths = 6
	DefaultMaxAttempts    = 3
	DefaultMaxSessions    = 1
	DefaultTimeoutSec     = 30
)

// Config holds all tankclaim settings.
type Config struct {
	// MTCUsername is the MultiTankcard account name (MTC_USERNAME).
	MTCUsername string `yaml:"mtc_username"`

	// MTCPassword is the MultiTankcard password (MTC_PASSWORD).
	MTCPassword string `yaml:"mtc_password"`

	// MTCBaseURL overrides the MTC server URL (MTC_BASE_URL).
	MTCBaseURL string `yaml:"mtc_base_url"`

	// Iban is the account claims are paid out to (IBAN).
	Iban string `yaml:"iban"`

	// CountryID is the claim country code (COUNTRY_ID, default NL).
	CountryID string `yaml:"country_id"`

	// LookbackMonths is the duplicate-check window in months
	// (LOOKBACK_PERIOD, default 6).
	LookbackMonths int `yaml:"lookback_months"`

	// MaxAttempts bounds date-shift retries on the daily submission
	// cap (MAX_ATTEMPTS, default 3).
	MaxAttempts int `yaml:"max_attempts"`

	// MaxSessions limits how many charging sessions are processed per
	// run (MAX_SESSIONS, default 1).
	MaxSessions int `yaml:"max_sessions"`

	// DryRun skips all claim writes (MODE=DRY).
	DryRun bool `yaml:"dry_run"`

	// RequestTimeout is the per-request HTTP timeout in seconds
	// (REQUEST_TIMEOUT, default 30).
	RequestTimeout int `yaml:"request_timeout"`

	// TeslaRefreshToken authenticates against the Tesla owner API
	// (TESLA_REFRESH_TOKEN).
	TeslaRefreshToken string `yaml:"tesla_refresh_token"`

	// TeslaVIN selects the vehicle (TESLA_VIN).
	TeslaVIN string `yaml:"tesla_vin"`

	// TeslaAuthURL overrides the OAuth endpoint (TESLA_AUTH_URL).
	TeslaAuthURL string `yaml:"tesla_auth_url"`

	// TeslaAPIURL overrides the charging API endpoint (TESLA_API_URL).
	TeslaAPIURL string `yaml:"tesla_api_url"`

	// TeslaInvoiceURL overrides the invoice endpoint (TESLA_INVOICE_URL).
	TeslaInvoiceURL string `yaml:"tesla_invoice_url"`

	// DeviceCountry is sent as the app locale country (DEVICE_COUNTRY).
	DeviceCountry string `yaml:"device_country"`

	// DeviceLanguage is sent as the app locale language (DEVICE_LANGUAGE).
	DeviceLanguage string `yaml:"device_language"`

	// TTPLocale is the full locale string (TTP_LOCALE).
	TTPLocale string `yaml:"ttp_locale"`

	// InvoiceDir is searched for pre-rendered invoice images named
	// after the session ID (INVOICE_DIR).
	InvoiceDir string `yaml:"invoice_dir"`

	// LogLevel sets log verbosity: debug, info, warn, error
	// (LOG_LEVEL, default info).
	LogLevel string `yaml:"log_level"`
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Load returns the singleton configuration. Thread-safe, loads once on
// first call. Warnings for unparsable values go to stderr; the value
// falls back to its default rather than failing the run.
func Load() *Config {
	cfgOnce.Do(func() {
		cfg = load()
	})
	return cfg
}

// Reset clears the cached configuration (for testing).
func Reset() {
	cfgOnce = sync.Once{}
	cfg = nil
}

func load() *Config {
	c := &Config{
		CountryID:      "NL",
		LookbackMonths: DefaultLookbackMonths,
		MaxAttempts:    DefaultMaxAttempts,
		MaxSessions:    DefaultMaxSessions,
		RequestTimeout: DefaultTimeoutSec,
		DeviceCountry:  "NL",
		DeviceLanguage: "nl",
		TTPLocale:      "nl_NL",
		LogLevel:       "info",
	}

	if path := configFilePath(); path != "" {
		if err := loadFile(path, c); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}

	applyEnv(c)
	return c
}

// configFilePath returns TANKCLAIM_CONFIG if set, otherwise
// ~/.tankclaim/config.yaml if it exists.
func configFilePath() string {
	if p := os.Getenv("TANKCLAIM_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".tankclaim", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func loadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	setStr(&c.MTCUsername, "MTC_USERNAME")
	setStr(&c.MTCPassword, "MTC_PASSWORD")
	setStr(&c.MTCBaseURL, "MTC_BASE_URL")
	setStr(&c.Iban, "IBAN")
	setStr(&c.CountryID, "COUNTRY_ID")
	setInt(&c.LookbackMonths, "LOOKBACK_PERIOD", DefaultLookbackMonths)
	setInt(&c.MaxAttempts, "MAX_ATTEMPTS", DefaultMaxAttempts)
	setInt(&c.MaxSessions, "MAX_SESSIONS", DefaultMaxSessions)
	setInt(&c.RequestTimeout, "REQUEST_TIMEOUT", DefaultTimeoutSec)
	setStr(&c.TeslaRefreshToken, "TESLA_REFRESH_TOKEN")
	setStr(&c.TeslaVIN, "TESLA_VIN")
	setStr(&c.TeslaAuthURL, "TESLA_AUTH_URL")
	setStr(&c.TeslaAPIURL, "TESLA_API_URL")
	setStr(&c.TeslaInvoiceURL, "TESLA_INVOICE_URL")
	setStr(&c.DeviceCountry, "DEVICE_COUNTRY")
	setStr(&c.DeviceLanguage, "DEVICE_LANGUAGE")
	setStr(&c.TTPLocale, "TTP_LOCALE")
	setStr(&c.InvoiceDir, "INVOICE_DIR")
	setStr(&c.LogLevel, "LOG_LEVEL")

	if mode := os.Getenv("MODE"); strings.EqualFold(mode, "DRY") {
		c.DryRun = true
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string, fallback int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: invalid %s=%q, using %d\n", key, v, fallback)
		*dst = fallback
		return
	}
	*dst = n
}
