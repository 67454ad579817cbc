package mtc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// rotatedTokenPattern pulls the anti-forgery token out of the nr2Users
// cookie the server sets after a successful login. The value is
// URL-encoded inside the cookie.
var rotatedTokenPattern = regexp.MustCompile(`crf%3d(.*?)(?:%3b|$)`)

// EstablishSession performs the bootstrap ritual a browser runs before
// the login page accepts credentials: fetch module version info (which
// sets the osVisit/osVisitor cookies and yields the module version
// token), then prime the remaining cookies with a screenservices call
// carrying the bootstrap anti-forgery token.
func (c *Client) EstablishSession(ctx context.Context) error {
	// Cache-busting query parameter, the way the page itself does it.
	busted := c.baseURL + appPath + "/moduleservices/moduleversioninfo?" +
		strconv.FormatInt(time.Now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, busted, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setDefaultHeaders(req, c.baseURL+appPath+"/Login")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch module version info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("module version info: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read module version info: %w", err)
	}

	if c.cookie("osVisit") == "" || c.cookie("osVisitor") == "" {
		return fmt.Errorf("%w: osVisit/osVisitor cookies missing", ErrSession)
	}

	var mv moduleVersionResponse
	if err := json.Unmarshal(body, &mv); err != nil {
		return fmt.Errorf("decode module version info: %w", err)
	}
	if mv.VersionToken == "" {
		return fmt.Errorf("%w: version token missing", ErrSession)
	}
	c.moduleVersion = mv.VersionToken

	apiVersion, err := c.versions.Resolve(ctx, endpointAppStoreURLs)
	if err != nil {
		return err
	}

	// Priming call. The server refuses the login until this has been
	// made with the bootstrap token; the response body is irrelevant.
	prime := appStoreURLsRequest{
		VersionInfo: versionInfo{ModuleVersion: c.moduleVersion, APIVersion: apiVersion},
		ViewName:    "*",
	}
	if err := c.postJSON(ctx,
		appPath+"/screenservices/OnTheMoveMultiTankcard_CW/ActionGetAppStoreUrls",
		c.baseURL+appPath+"/Transactions",
		prime, nil); err != nil {
		return fmt.Errorf("prime session: %w", err)
	}

	c.log.Debug("session_primed", map[string]interface{}{
		"visit":   c.cookie("osVisit"),
		"visitor": c.cookie("osVisitor"),
	})
	return nil
}

// Login establishes a session and submits the credentials. On success
// the rotated anti-forgery token from the nr2Users cookie replaces the
// bootstrap token for all subsequent calls. On failure the token stays
// at the bootstrap value.
func (c *Client) Login(ctx context.Context) error {
	if err := c.EstablishSession(ctx); err != nil {
		return err
	}

	apiVersion, err := c.versions.Resolve(ctx, endpointLogin)
	if err != nil {
		return err
	}

	payload := loginRequest{
		VersionInfo: versionInfo{ModuleVersion: c.moduleVersion, APIVersion: apiVersion},
		ViewName:    "CommonMTC.Login",
		InputParameters: loginParams{
			Username:       c.cfg.Username,
			Password:       c.cfg.Password,
			KeepMeLoggedIn: true,
		},
	}

	var result loginResponse
	if err := c.postJSON(ctx,
		appPath+"/screenservices/OtmAcc_Account/ActionAppLogin",
		c.baseURL+appPath+"/Login",
		payload, &result); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if !result.Data.Result {
		msg := "unknown login error"
		if list := result.Data.ErrorMessages.List; len(list) > 0 {
			msg = list[0].MessageText
		}
		return fmt.Errorf("%w: %s", ErrAuthentication, msg)
	}

	nr2 := c.cookie("nr2Users")
	if nr2 == "" {
		return fmt.Errorf("%w: nr2Users cookie missing after login", ErrAuthentication)
	}

	m := rotatedTokenPattern.FindStringSubmatch(nr2)
	if m == nil {
		return fmt.Errorf("%w: anti-forgery token not present in nr2Users cookie", ErrAuthentication)
	}

	token, err := url.QueryUnescape(m[1])
	if err != nil {
		return fmt.Errorf("%w: decode anti-forgery token: %v", ErrAuthentication, err)
	}

	c.csrfToken = token
	c.log.Info("login_ok", map[string]interface{}{"user": c.cfg.Username})
	return nil
}
