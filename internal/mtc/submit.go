package mtc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rjager/tankclaim/internal/domain"
)

// DefaultMaxAttempts bounds the date-shift retries on the daily cap.
const DefaultMaxAttempts = 3

// dailyLimitFragment is the (Dutch) substring the server puts in its
// error message when the per-day submission cap is hit. Matching an
// error string is brittle, but the cap is not otherwise observable.
const dailyLimitFragment = "deze transactie overschrijdt de voor uw pas"

func isDailyLimitError(msg string) bool {
	return strings.Contains(strings.ToLower(msg), dailyLimitFragment)
}

// Submit files one reimbursement claim, idempotently. Every attempt
// first re-checks the recent transactions for the session ID; a match
// is a successful no-op. A daily-cap rejection shifts the transaction
// date back one day and retries, up to maxAttempts. All failures are
// folded into the result so a batch can continue past one claim.
func (c *Client) Submit(ctx context.Context, cs domain.ChargeSession, maxAttempts int) domain.SubmitResult {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	if !c.Authenticated() {
		c.log.Warn("session_stale", map[string]interface{}{"session_id": cs.SessionID}, nil)
		if err := c.Login(ctx); err != nil {
			return domain.SubmitResult{
				Message: fmt.Sprintf("authentication required for submission, re-login failed: %v", err),
			}
		}
	}

	// The record itself is never mutated; retries shift a local copy
	// of the timestamp.
	when := cs.StartTime

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.log.Info("submit_attempt", map[string]interface{}{
			"session_id": cs.SessionID,
			"attempt":    attempt,
			"of":         maxAttempts,
			"date":       when.Format("2006-01-02"),
		})

		list, err := c.fetchTransactions(ctx)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				// Server-side rejection of the listing itself. Not a
				// transient condition, give up.
				return domain.SubmitResult{Message: err.Error(), Attempts: attempt}
			}
			c.log.Error("duplicate_check_failed", map[string]interface{}{"attempt": attempt}, err)
			if attempt == maxAttempts {
				return domain.SubmitResult{
					Message:  fmt.Sprintf("duplicate check failed on final attempt: %v", err),
					Attempts: attempt,
				}
			}
			time.Sleep(c.retryPause)
			continue
		}

		if hasDuplicate(list, cs.SessionID) {
			msg := fmt.Sprintf("duplicate claim found for session %s (%s), skipped", cs.SessionID, cs.Location)
			c.log.Info("duplicate_skipped", map[string]interface{}{"session_id": cs.SessionID})
			return domain.SubmitResult{OK: true, Message: msg, Attempts: attempt, Duplicate: true}
		}

		if c.cfg.DryRun {
			msg := fmt.Sprintf("[dry run] would submit claim: location=%q amount=%.2f date=%s session=%s",
				cs.Location, cs.TotalPrice, when.Format(time.RFC3339), cs.SessionID)
			return domain.SubmitResult{OK: true, Message: msg, Attempts: attempt}
		}

		ok, errMsg, err := c.createClaim(ctx, cs, when)
		if err != nil {
			c.log.Error("claim_request_failed", map[string]interface{}{"attempt": attempt}, err)
			if attempt == maxAttempts {
				return domain.SubmitResult{
					Message:  fmt.Sprintf("claim request failed on final attempt: %v", err),
					Attempts: attempt,
				}
			}
			// Transient network failure: pause and retry without
			// shifting the date.
			time.Sleep(c.retryPause)
			continue
		}

		if ok {
			msg := fmt.Sprintf("submitted claim for %s: %.2f %s on %s",
				cs.Location, cs.TotalPrice, cs.Currency, when.UTC().Format(apiTimeLayout))
			c.log.Info("claim_submitted", map[string]interface{}{
				"session_id": cs.SessionID,
				"date":       when.UTC().Format(apiTimeLayout),
			})
			return domain.SubmitResult{OK: true, Message: msg, Attempts: attempt}
		}

		if isDailyLimitError(errMsg) {
			c.log.Warn("daily_limit", map[string]interface{}{
				"date": when.Format("2006-01-02"), "attempt": attempt,
			}, nil)
			if attempt < maxAttempts {
				when = when.AddDate(0, 0, -1)
				time.Sleep(c.retryPause)
				continue
			}
			return domain.SubmitResult{
				Message:  fmt.Sprintf("failed after %d attempts due to daily limit: %s", maxAttempts, errMsg),
				Attempts: attempt,
			}
		}

		// Any other rejection is final.
		return domain.SubmitResult{
			Message:  fmt.Sprintf("claim submission failed: %s", errMsg),
			Attempts: attempt,
		}
	}

	return domain.SubmitResult{
		Message:  fmt.Sprintf("failed to submit claim after %d attempts", maxAttempts),
		Attempts: maxAttempts,
	}
}

// createClaim posts the claim. Returns the server's success flag and,
// when it is false, the server's error message. err is non-nil only
// for transport-level failures.
func (c *Client) createClaim(ctx context.Context, cs domain.ChargeSession, when time.Time) (bool, string, error) {
	apiVersion, err := c.versions.Resolve(ctx, endpointSubmit)
	if err != nil {
		return false, "", err
	}

	payload := claimRequest{
		VersionInfo: versionInfo{ModuleVersion: c.moduleVersion, APIVersion: apiVersion},
		ViewName:    "MainFlowMTC.NewClaim",
		InputParameters: claimParams{
			ClaimNew: claimNew{
				TransactionTypeID: "EV",
				Iban:              c.cfg.Iban,
				Amount:            fmt.Sprintf("%.2f", cs.TotalPrice),
				DateTransaction:   when.UTC().Format(apiTimeLayout),
				Mileage:           0,
				IsForeign:         false,
				CountryID:         c.cfg.CountryID,
				IsReplacement:     false,
				Quantity:          strconv.FormatFloat(cs.EnergyKWh, 'f', -1, 64),
				Description:       cs.SessionID,
				ProductCode:       "10", // electricity
			},
			Attachment: claimAttachment{
				MimeType: cs.Invoice.MimeType,
				Binary:   cs.Invoice.Binary,
			},
		},
	}

	var result claimResponse
	if err := c.postJSON(ctx,
		appPath+"/screenservices/OtmTrx_Transactions/Claim/ClaimForm/ActionClaim_Create",
		c.baseURL+appPath+"/NewClaim",
		payload, &result); err != nil {
		return false, "", err
	}

	if result.Data.Success {
		return true, "", nil
	}

	msg := result.Data.ErrorMessage
	if msg == "" {
		msg = "unknown error during submission"
	}
	return false, msg, nil
}
