package mtc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

// Endpoint keys understood by the version resolver.
const (
	endpointAppStoreURLs = "appstoreurls"
	endpointLogin        = "login"
	endpointTransactions = "transactions"
	endpointSubmit       = "submit"
)

// endpoint describes where a per-endpoint API version string is
// scraped from: a script resource served by the MTC application and a
// pattern whose first group captures the version.
type endpoint struct {
	pattern *regexp.Regexp
	script  string
}

// The patterns are coupled to MTC's generated client code. When one
// stops matching the vendor shipped a new client and the pattern set
// needs updating by hand.
var endpoints = map[string]endpoint{
	endpointAppStoreURLs: {
		pattern: regexp.MustCompile(`GetAppStoreUrls", "screenservices/OnTheMoveMultiTankcard_CW/ActionGetAppStoreUrls", "([^"]+)"`),
		script:  "OnTheMoveMultiTankcard_CW.controller.js",
	},
	endpointLogin: {
		pattern: regexp.MustCompile(`AppLogin", "screenservices/OtmAcc_Account/ActionAppLogin", "([^"]+)"`),
		script:  "OtmAcc_Account.controller.js",
	},
	endpointTransactions: {
		pattern: regexp.MustCompile(`DataActionGetTransactions", "screenservices/OtmTrx_Transactions/Screen/Overview/DataActionGetTransactions", "([^"]+)"`),
		script:  "OtmTrx_Transactions.Screen.Overview.mvc.js",
	},
	endpointSubmit: {
		pattern: regexp.MustCompile(`Claim_Create", "screenservices/OtmTrx_Transactions/Claim/ClaimForm/ActionClaim_Create", "([^"]+)"`),
		script:  "OtmTrx_Transactions.Claim.ClaimForm.mvc.js",
	},
}

// VersionResolver resolves the API version string for an endpoint key.
// It is an interface so the fragile scraping can be swapped out without
// touching call sites.
type VersionResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// scriptResolver scrapes version strings out of MTC-served scripts.
// Each key resolves at most once per process; results are cached.
type scriptResolver struct {
	baseURL string
	client  HTTPClient
	cache   map[string]string
}

func newScriptResolver(baseURL string, client HTTPClient) *scriptResolver {
	return &scriptResolver{
		baseURL: baseURL,
		client:  client,
		cache:   make(map[string]string),
	}
}

func (r *scriptResolver) Resolve(ctx context.Context, key string) (string, error) {
	if v, ok := r.cache[key]; ok {
		return v, nil
	}

	ep, ok := endpoints[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+appPath+"/scripts/"+ep.script, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Sec-Fetch-Mode", "no-cors")
	req.Header.Set("Referer", r.baseURL+appPath+"/")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", ep.script, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", ep.script, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", ep.script, err)
	}

	m := ep.pattern.FindSubmatch(body)
	if m == nil {
		return "", &ProtocolError{Endpoint: key, Script: ep.script}
	}

	version := string(m[1])
	r.cache[key] = version
	return version, nil
}

var _ VersionResolver = (*scriptResolver)(nil)
