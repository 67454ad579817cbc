package mtc

import (
	"context"
	"fmt"
	"time"
)

// apiTimeLayout is the millisecond-precision UTC format the claim and
// filter fields use, with a literal Z suffix.
const apiTimeLayout = "2006-01-02T15:04:05.000Z"

// lookbackWindow returns the duplicate-check window: from the first of
// the month, months back, until now. Both in UTC.
func lookbackWindow(now time.Time, months int) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)
	return start, now
}

// transactionsFilter serializes the window the way the overview screen
// does: whole days, pipe-separated, trailing zero. The clock halves are
// appended as literals; "23:59:59" run through Format would be eaten as
// layout tokens.
func transactionsFilter(start, end time.Time) string {
	return fmt.Sprintf("%s 00:00:00|%s 23:59:59|0",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// fetchTransactions lists the transactions in the lookback window. The
// filter travels twice, as the serialized input parameter string and as
// the per-field screen filters, matching what the overview screen posts.
func (c *Client) fetchTransactions(ctx context.Context) ([]transaction, error) {
	apiVersion, err := c.versions.Resolve(ctx, endpointTransactions)
	if err != nil {
		return nil, err
	}

	start, end := lookbackWindow(time.Now(), c.cfg.LookbackMonths)

	payload := transactionsRequest{
		VersionInfo: versionInfo{ModuleVersion: c.moduleVersion, APIVersion: apiVersion},
		ViewName:    "MainFlowMTC.Transactions",
		ScreenData: screenData{
			Variables: transactionsVariables{
				InputParameterString:         transactionsFilter(start, end),
				MaxRecords:                   50,
				IsFirstLoad:                  true,
				TransactionTypeIDFetchStatus: 1,
				StartDateTimeCurrentFilter:   start.Format(apiTimeLayout),
				StartDateTimeFetchStatus:     1,
				EndDateTimeCurrentFilter:     end.Format(apiTimeLayout),
				EndDateTimeFetchStatus:       1,
				ForceRefreshListFetchStatus:  1,
			},
		},
	}

	var result transactionsResponse
	if err := c.postJSON(ctx,
		appPath+"/screenservices/OtmTrx_Transactions/Screen/Overview/DataActionGetTransactions",
		c.baseURL+appPath+"/Transactions",
		payload, &result); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	if result.Exception != nil {
		return nil, &APIError{Op: "fetch transactions", Message: result.Exception.Message}
	}

	return result.Data.Transactions.List, nil
}

// hasDuplicate reports whether any listed transaction's note equals
// the session ID. Exact string equality only; no normalization.
func hasDuplicate(list []transaction, sessionID string) bool {
	for _, trx := range list {
		if trx.ClaimNote == sessionID {
			return true
		}
	}
	return false
}
