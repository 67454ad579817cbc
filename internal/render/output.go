// Package render provides terminal output formatting.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/rjager/tankclaim/internal/domain"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Sessions formats a list of charging sessions.
func (r *Renderer) Sessions(sessions []domain.ChargeSession) string {
	if len(sessions) == 0 {
		return "No charging sessions found"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Charging Sessions\n"))
		sb.WriteString(strings.Repeat("─", 72) + "\n")
	}

	for _, s := range sessions {
		r.formatSession(&sb, s)
	}

	return sb.String()
}

func (r *Renderer) formatSession(sb *strings.Builder, s domain.ChargeSession) {
	dateStr := s.StartTime.Format("2006-01-02 15:04")

	invoice := color.RedString("no invoice")
	if s.HasInvoice() {
		invoice = color.GreenString("invoice")
	}
	if !r.pretty {
		invoice = "no invoice"
		if s.HasInvoice() {
			invoice = "invoice"
		}
	}

	amount := fmt.Sprintf("%.2f %s", s.TotalPrice, s.Currency)

	if r.pretty {
		fmt.Fprintf(sb, "%s  %-32s %6.1f kWh  %10s  [%s]\n",
			color.HiBlackString(dateStr), truncate(s.Location, 32), s.EnergyKWh, amount, invoice)
	} else {
		fmt.Fprintf(sb, "[%s] %s | %.1f kWh | %s | %s | %s\n",
			dateStr, s.SessionID, s.EnergyKWh, amount, s.Location, invoice)
	}
}

// Result formats one claim submission outcome.
func (r *Renderer) Result(s domain.ChargeSession, res domain.SubmitResult) string {
	if r.pretty {
		status := color.GreenString("✓")
		if !res.OK {
			status = color.RedString("✗")
		}
		return fmt.Sprintf("%s %s %s", status, color.HiBlackString(truncate(s.SessionID, 20)), res.Message)
	}

	status := "ok"
	if !res.OK {
		status = "failed"
	}
	return fmt.Sprintf("[%s] %s: %s", status, s.SessionID, res.Message)
}

// Summary formats the batch tally.
func (r *Renderer) Summary(submitted, skipped, failed int) string {
	if r.pretty {
		parts := []string{
			color.GreenString("%d submitted", submitted),
			fmt.Sprintf("%d skipped", skipped),
		}
		if failed > 0 {
			parts = append(parts, color.RedString("%d failed", failed))
		} else {
			parts = append(parts, "0 failed")
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("submitted=%d skipped=%d failed=%d", submitted, skipped, failed)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
