package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rjager/tankclaim/internal/domain"
)

func sampleSession() domain.ChargeSession {
	return domain.ChargeSession{
		StartTime:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		Location:   "Supercharger Breukelen",
		SessionID:  "abc123",
		EnergyKWh:  41.2,
		TotalPrice: 18.75,
		Currency:   "EUR",
		Invoice:    domain.Attachment{MimeType: "image/jpeg", Binary: "x"},
	}
}

func TestSessionsPlain(t *testing.T) {
	r := New(false)
	out := r.Sessions([]domain.ChargeSession{sampleSession()})

	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "41.2 kWh")
	assert.Contains(t, out, "18.75 EUR")
	assert.Contains(t, out, "Supercharger Breukelen")
}

func TestSessionsEmpty(t *testing.T) {
	r := New(true)
	assert.Equal(t, "No charging sessions found", r.Sessions(nil))
}

func TestResultPlain(t *testing.T) {
	r := New(false)

	ok := r.Result(sampleSession(), domain.SubmitResult{OK: true, Message: "submitted"})
	assert.Contains(t, ok, "[ok]")
	assert.Contains(t, ok, "abc123")

	failed := r.Result(sampleSession(), domain.SubmitResult{Message: "daily limit"})
	assert.Contains(t, failed, "[failed]")
	assert.Contains(t, failed, "daily limit")
}

func TestSummaryPlain(t *testing.T) {
	r := New(false)
	assert.Equal(t, "submitted=2 skipped=1 failed=0", r.Summary(2, 1, 0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abcd", truncate("abcd", 4))
	assert.Equal(t, "a...", truncate("abcdef", 4))
}
