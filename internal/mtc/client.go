// Package mtc is a client for the MultiTankcard web application. It
// replays the private OutSystems HTTP/JSON protocol a browser speaks:
// a multi-step session handshake, credential login with anti-forgery
// token rotation, transaction listing for duplicate detection, and
// reimbursement claim submission with a date-shift retry on the daily
// submission cap.
package mtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rjager/tankclaim/internal/logging"
)

const (
	defaultBaseURL = "https://mtc.outsystemsenterprise.com"
	appPath        = "/MultiTankcard"

	// bootstrapCSRFToken is the fixed anti-forgery value the login page
	// uses before the server issues a session-bound one. Observed in
	// the application's own bootstrap traffic.
	bootstrapCSRFToken = "T6C+9iB49TLra4jEsMeSckDMNhQ="

	csrfHeader = "X-CSRFToken"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)

// Config holds the client settings.
type Config struct {
	// BaseURL overrides the MTC server (default production).
	BaseURL string

	// Username and Password are the MTC account credentials.
	Username string
	Password string

	// Iban is the payout account put on every claim.
	Iban string

	// CountryID is the claim country code (default "NL").
	CountryID string

	// LookbackMonths is the duplicate-check window (default 6).
	LookbackMonths int

	// DryRun skips the claim write and reports what would be sent.
	DryRun bool

	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
}

// Client talks to the MTC application. Single-threaded by design: the
// anti-forgery token and cookie jar mutate between requests, so callers
// adding concurrency must serialize all operations.
type Client struct {
	cfg      Config
	baseURL  string
	httpc    HTTPClient
	jar      http.CookieJar
	versions VersionResolver

	// csrfToken starts at the bootstrap constant and is replaced by
	// the rotated token the server issues after login.
	csrfToken     string
	moduleVersion string

	// retryPause is the courtesy delay between submission attempts.
	retryPause time.Duration

	log *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient injects the HTTP client (for testing). The supplied
// client must carry its own cookie jar.
func WithHTTPClient(hc HTTPClient, jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpc = hc
		c.jar = jar
	}
}

// WithVersionResolver swaps the script-scraping resolver.
func WithVersionResolver(r VersionResolver) Option {
	return func(c *Client) {
		c.versions = r
	}
}

// WithRetryPause overrides the pause between submission attempts.
func WithRetryPause(d time.Duration) Option {
	return func(c *Client) {
		c.retryPause = d
	}
}

// NewClient creates an MTC client. No network traffic happens until
// Login or Submit is called.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CountryID == "" {
		cfg.CountryID = "NL"
	}
	if cfg.LookbackMonths <= 0 {
		cfg.LookbackMonths = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    cfg.BaseURL,
		csrfToken:  bootstrapCSRFToken,
		retryPause: time.Second,
		log:        logging.New("mtc"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpc == nil {
		jar, _ := cookiejar.New(nil)
		c.jar = jar
		c.httpc = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	}
	if c.versions == nil {
		c.versions = newScriptResolver(c.baseURL, c.httpc)
	}

	return c
}

// Authenticated reports whether the session holds a rotated
// anti-forgery token and the visitor cookie. Either one missing means
// the next operation must log in again.
func (c *Client) Authenticated() bool {
	return c.csrfToken != "" &&
		c.csrfToken != bootstrapCSRFToken &&
		c.cookie("osVisitor") != ""
}

// cookie returns the named cookie's value from the jar, or "".
func (c *Client) cookie(name string) string {
	u, err := url.Parse(c.baseURL + appPath + "/")
	if err != nil {
		return ""
	}
	for _, ck := range c.jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// setDefaultHeaders applies the browser-mimicking headers every MTC
// request carries.
func (c *Client) setDefaultHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("OutSystems-client-env", "browser")
}

// postJSON sends a screenservices POST with the current anti-forgery
// token and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, path, referer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setDefaultHeaders(req, referer)
	req.Header.Set(csrfHeader, c.csrfToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, truncate(string(data), 200))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
