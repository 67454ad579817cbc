package tesla

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthURL  = "https://auth.tesla.com/oauth2/v3"
	defaultClientID = "ownerapi"
	oauthScope      = "openid offline_access vehicle_device_data vehicle_cmds vehicle_charging_cmds"

	// refreshSkew refreshes the access token this long before expiry.
	refreshSkew = 60 * time.Second
)

// Auth exchanges a long-lived refresh token for access tokens and
// caches the result until shortly before expiry.
type Auth struct {
	authURL      string
	clientID     string
	refreshToken string
	httpc        HTTPClient

	accessToken string
	expiry      time.Time
	now         func() time.Time
}

// NewAuth creates a token source from a refresh token. authURL may be
// empty for the production endpoint.
func NewAuth(refreshToken, authURL string, httpc HTTPClient) *Auth {
	if authURL == "" {
		authURL = defaultAuthURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Auth{
		authURL:      authURL,
		clientID:     defaultClientID,
		refreshToken: refreshToken,
		httpc:        httpc,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Token returns a valid access token, refreshing if the cached one is
// missing or about to expire.
func (a *Auth) Token(ctx context.Context) (string, error) {
	if a.accessToken != "" && a.now().Before(a.expiry.Add(-refreshSkew)) {
		return a.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {a.clientID},
		"refresh_token": {a.refreshToken},
		"scope":         {oauthScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh access token: unexpected status %d", resp.StatusCode)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	a.accessToken = tokens.AccessToken
	a.expiry = a.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	// Some responses rotate the refresh token.
	if tokens.RefreshToken != "" {
		a.refreshToken = tokens.RefreshToken
	}

	return a.accessToken, nil
}
