// Package tesla pulls charging session history and invoices from the
// Tesla ownership API, normalizing them into reimbursable records.
package tesla

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rjager/tankclaim/internal/domain"
	"github.com/rjager/tankclaim/internal/logging"
)

const (
	defaultAPIURL     = "https://akamai-apigateway-charging-ownership.tesla.com"
	defaultInvoiceURL = "https://ownership.tesla.com/mobile-app/charging/invoice"

	teslaUserAgent = "TeslaApp/4.39.0-3019/8d0298041d/android/28"
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// Config holds the data-source settings.
type Config struct {
	APIURL     string
	InvoiceURL string
	AuthURL    string

	RefreshToken string
	VIN          string

	DeviceCountry  string
	DeviceLanguage string
	TTPLocale      string

	Timeout time.Duration
}

// Client fetches charging history and invoices.
type Client struct {
	cfg   Config
	auth  *Auth
	httpc HTTPClient
	log   *logging.Logger
}

// New creates a Tesla API client.
func New(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.InvoiceURL == "" {
		cfg.InvoiceURL = defaultInvoiceURL
	}
	if cfg.DeviceCountry == "" {
		cfg.DeviceCountry = "NL"
	}
	if cfg.DeviceLanguage == "" {
		cfg.DeviceLanguage = "nl"
	}
	if cfg.TTPLocale == "" {
		cfg.TTPLocale = "nl_NL"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpc := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:   cfg,
		auth:  NewAuth(cfg.RefreshToken, cfg.AuthURL, httpc),
		httpc: httpc,
		log:   logging.New("tesla"),
	}
}

// setHeaders applies the headers the mobile app sends, including a
// fresh request ID pair.
func (c *Client) setHeaders(ctx context.Context, req *http.Request) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "*/*")
	req.Header.Set("x-tesla-user-agent", teslaUserAgent)
	req.Header.Set("Accept-Language", c.cfg.DeviceLanguage)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-txid", requestID)
	req.Header.Set("x-request-id", requestID)
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// ChargingHistory fetches one page of charging history.
func (c *Client) ChargingHistory(ctx context.Context, page int) (*chargingHistory, error) {
	payload := graphqlRequest{
		Query: chargingHistoryQuery,
		Variables: map[string]any{
			"sortBy":        "start_datetime",
			"sortOrder":     "DESC",
			"pageNumber":    page,
			"latestSession": false,
		},
		OperationName: "getChargingHistoryV2",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	q := url.Values{
		"deviceLanguage": {c.cfg.DeviceLanguage},
		"deviceCountry":  {c.cfg.DeviceCountry},
		"ttpLocale":      {c.cfg.TTPLocale},
		"vin":            {c.cfg.VIN},
		"operationName":  {"getChargingHistoryV2"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIURL+"/graphql?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.setHeaders(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch charging history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("charging history: unexpected status %d: %s", resp.StatusCode, data)
	}

	var out historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode charging history: %w", err)
	}
	return &out.Data.Me.Charging.HistoryV2, nil
}

// InvoicePDF downloads one invoice document by content ID.
func (c *Client) InvoicePDF(ctx context.Context, contentID string) ([]byte, error) {
	q := url.Values{
		"deviceCountry":  {c.cfg.DeviceCountry},
		"deviceLanguage": {c.cfg.DeviceLanguage},
		"ttpLocale":      {c.cfg.TTPLocale},
		"vin":            {c.cfg.VIN},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.InvoiceURL+"/"+contentID+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.setHeaders(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download invoice %s: %w", contentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download invoice %s: unexpected status %d", contentID, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// ChargingSessions fetches the most recent sessions, at most max, and
// normalizes them into reimbursable records. Sessions without a
// CHARGING fee keep zero amounts; invoice download failures are logged
// and leave the record without an attachment rather than failing the
// whole fetch.
func (c *Client) ChargingSessions(ctx context.Context, max int) ([]domain.ChargeSession, error) {
	history, err := c.ChargingHistory(ctx, 1)
	if err != nil {
		return nil, err
	}

	entries := history.Data
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	sessions := make([]domain.ChargeSession, 0, len(entries))
	for _, e := range entries {
		cs := domain.ChargeSession{
			Location:  e.SiteLocationName,
			SessionID: e.ChargeSessionID,
		}

		if t, err := time.Parse(time.RFC3339, e.ChargeStartDateTime); err == nil {
			cs.StartTime = t
		} else {
			c.log.Warn("bad_start_time", map[string]interface{}{
				"session_id": e.ChargeSessionID, "value": e.ChargeStartDateTime,
			}, err)
		}

		for _, fee := range e.Fees {
			if fee.FeeType == "CHARGING" {
				cs.EnergyKWh = fee.UsageBase
				cs.TotalPrice = fee.TotalDue
				cs.Currency = fee.CurrencyCode
			}
		}

		for _, inv := range e.Invoices {
			if inv.ContentID == "" {
				continue
			}
			pdf, err := c.InvoicePDF(ctx, inv.ContentID)
			if err != nil {
				c.log.Warn("invoice_download_failed", map[string]interface{}{
					"session_id": e.ChargeSessionID, "content_id": inv.ContentID,
				}, err)
				continue
			}
			cs.Invoice = domain.Attachment{
				MimeType: "application/pdf",
				Binary:   base64.StdEncoding.EncodeToString(pdf),
			}
			break
		}

		sessions = append(sessions, cs)
	}

	return sessions, nil
}
