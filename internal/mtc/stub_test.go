package mtc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

// Script bodies the stub serves, each embedding the version string its
// pattern captures.
var stubScripts = map[string]string{
	"OnTheMoveMultiTankcard_CW.controller.js":    `o("GetAppStoreUrls", "screenservices/OnTheMoveMultiTankcard_CW/ActionGetAppStoreUrls", "v-appstore-1");`,
	"OtmAcc_Account.controller.js":               `o("AppLogin", "screenservices/OtmAcc_Account/ActionAppLogin", "v-login-1");`,
	"OtmTrx_Transactions.Screen.Overview.mvc.js": `o("DataActionGetTransactions", "screenservices/OtmTrx_Transactions/Screen/Overview/DataActionGetTransactions", "v-trx-1");`,
	"OtmTrx_Transactions.Claim.ClaimForm.mvc.js": `o("Claim_Create", "screenservices/OtmTrx_Transactions/Claim/ClaimForm/ActionClaim_Create", "v-submit-1");`,
}

// rotated token inside the nr2Users cookie: URL-decodes to "tok+A==".
const (
	stubNr2Cookie    = `uid%3d42%3bcrf%3dtok%2bA%3d%3d%3bts%3d0`
	stubRotatedToken = "tok+A=="
)

type claimScript struct {
	success bool
	errMsg  string
}

// mtcStub emulates the MTC screenservices surface for tests.
type mtcStub struct {
	t   *testing.T
	srv *httptest.Server

	mu             sync.Mutex
	loginOK        bool
	setCookies     bool
	versionToken   string
	notes          []string
	claimScripts   []claimScript
	claims         []claimNew
	scriptRequests map[string]int
}

func newMTCStub(t *testing.T) *mtcStub {
	s := &mtcStub{
		t:              t,
		loginOK:        true,
		setCookies:     true,
		versionToken:   "mv-test-1",
		scriptRequests: make(map[string]int),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *mtcStub) client(t *testing.T, opts ...Option) *Client {
	cfg := Config{
		BaseURL:        s.srv.URL,
		Username:       "user@example.com",
		Password:       "hunter2",
		Iban:           "NL91ABNA0417164300",
		LookbackMonths: 6,
	}
	opts = append([]Option{WithRetryPause(0)}, opts...)
	return NewClient(cfg, opts...)
}

func (s *mtcStub) recordedClaims() []claimNew {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]claimNew, len(s.claims))
	copy(out, s.claims)
	return out
}

func (s *mtcStub) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "/scripts/"):
		s.handleScript(w, r)
	case strings.Contains(r.URL.Path, "moduleversioninfo"):
		s.handleModuleVersion(w, r)
	case strings.Contains(r.URL.Path, "ActionGetAppStoreUrls"):
		if r.Header.Get(csrfHeader) != bootstrapCSRFToken {
			s.t.Errorf("priming call token = %q, want bootstrap", r.Header.Get(csrfHeader))
		}
		fmt.Fprint(w, `{}`)
	case strings.Contains(r.URL.Path, "ActionAppLogin"):
		s.handleLogin(w, r)
	case strings.Contains(r.URL.Path, "DataActionGetTransactions"):
		s.handleTransactions(w, r)
	case strings.Contains(r.URL.Path, "ActionClaim_Create"):
		s.handleClaim(w, r)
	default:
		s.t.Errorf("unexpected request: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *mtcStub) handleScript(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	s.mu.Lock()
	s.scriptRequests[name]++
	s.mu.Unlock()

	body, ok := stubScripts[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fmt.Fprint(w, body)
}

func (s *mtcStub) handleModuleVersion(w http.ResponseWriter, r *http.Request) {
	if s.setCookies {
		http.SetCookie(w, &http.Cookie{Name: "osVisit", Value: "visit-1", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "osVisitor", Value: "visitor-1", Path: "/"})
	}
	if s.versionToken == "" {
		fmt.Fprint(w, `{}`)
		return
	}
	fmt.Fprintf(w, `{"versionToken":%q}`, s.versionToken)
}

func (s *mtcStub) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.t.Errorf("decode login request: %v", err)
	}
	if req.ViewName != "CommonMTC.Login" {
		s.t.Errorf("login viewName = %q", req.ViewName)
	}

	if !s.loginOK || req.InputParameters.Password != "hunter2" {
		fmt.Fprint(w, `{"data":{"Result":false,"ErrorMessages":{"List":[{"MessageText":"Invalid credentials"}]}}}`)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "nr2Users", Value: stubNr2Cookie, Path: "/"})
	fmt.Fprint(w, `{"data":{"Result":true}}`)
}

// stubFilterPattern is the range filter shape the overview screen
// posts: whole-day bounds with fixed clock halves.
var stubFilterPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} 00:00:00\|\d{4}-\d{2}-\d{2} 23:59:59\|0$`)

func (s *mtcStub) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get(csrfHeader); got != stubRotatedToken {
		s.t.Errorf("transactions call token = %q, want rotated token", got)
	}

	var req transactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.t.Errorf("decode transactions request: %v", err)
	}
	vars := req.ScreenData.Variables
	if !stubFilterPattern.MatchString(vars.InputParameterString) {
		s.t.Errorf("InputParameterString = %q, want YYYY-MM-DD 00:00:00|YYYY-MM-DD 23:59:59|0", vars.InputParameterString)
	}
	if _, err := time.Parse(apiTimeLayout, vars.StartDateTimeCurrentFilter); err != nil {
		s.t.Errorf("StartDateTimeCurrentFilter = %q: %v", vars.StartDateTimeCurrentFilter, err)
	}
	if _, err := time.Parse(apiTimeLayout, vars.EndDateTimeCurrentFilter); err != nil {
		s.t.Errorf("EndDateTimeCurrentFilter = %q: %v", vars.EndDateTimeCurrentFilter, err)
	}

	s.mu.Lock()
	notes := make([]string, len(s.notes))
	copy(notes, s.notes)
	s.mu.Unlock()

	list := make([]map[string]string, 0, len(notes))
	for _, n := range notes {
		list = append(list, map[string]string{"ClaimNote": n})
	}
	resp := map[string]any{
		"data": map[string]any{
			"Transactions": map[string]any{"List": list},
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *mtcStub) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.t.Errorf("decode claim request: %v", err)
	}

	s.mu.Lock()
	s.claims = append(s.claims, req.InputParameters.ClaimNew)
	script := claimScript{success: true}
	if len(s.claimScripts) > 0 {
		script = s.claimScripts[0]
		s.claimScripts = s.claimScripts[1:]
	}
	if script.success {
		// A successful claim shows up in the next transactions fetch
		// with the description as its note.
		s.notes = append(s.notes, req.InputParameters.ClaimNew.Description)
	}
	s.mu.Unlock()

	if script.success {
		fmt.Fprint(w, `{"data":{"Success":true}}`)
		return
	}
	resp := map[string]any{
		"data": map[string]any{"Success": false, "ErrorMessage": script.errMsg},
	}
	json.NewEncoder(w).Encode(resp)
}
