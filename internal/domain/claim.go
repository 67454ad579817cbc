// Package domain holds the shared record types passed between the
// charging data source and the claim submitter.
package domain

import "time"

// Attachment is an invoice document encoded for upload.
type Attachment struct {
	// MimeType of the binary, e.g. "image/jpeg". May be empty; the
	// claim endpoint accepts an untyped attachment.
	MimeType string

	// Binary is the base64-encoded document.
	Binary string
}

// ChargeSession is one reimbursable charging event, normalized from
// the vendor API. The submitter never mutates it; date-shift retries
// operate on a local copy of the timestamp.
type ChargeSession struct {
	// StartTime is when charging began.
	StartTime time.Time

	// Location is the human-readable site name.
	Location string

	// SessionID uniquely identifies the session. It doubles as the
	// claim note used for duplicate detection.
	SessionID string

	// EnergyKWh is the energy delivered.
	EnergyKWh float64

	// TotalPrice is the amount due for the session.
	TotalPrice float64

	// Currency is the ISO currency code, e.g. "EUR".
	Currency string

	// Invoice is the attached invoice document, if any.
	Invoice Attachment
}

// HasInvoice reports whether the session carries an invoice attachment.
func (s ChargeSession) HasInvoice() bool {
	return s.Invoice.Binary != ""
}

// SubmitResult is the outcome of one claim submission. Errors are
// folded into Message so a batch of claims can continue past a
// failure.
type SubmitResult struct {
	OK       bool
	Message  string
	Attempts int

	// Duplicate marks a successful no-op: the claim was already on
	// file and nothing was written.
	Duplicate bool
}
