package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

const timestampLayout = "2006-01-02 15:04:05"

// BuyMessage renders the notification for a buy-worthy winner
func BuyMessage(at time.Time, snap contracts.Snapshot, score float64, failures int) (subject, body string) {
	subject = "Stock analysis result - " + at.Format(timestampLayout)

	var b strings.Builder
	b.WriteString("=== Stock analysis result ===\n\n")
	fmt.Fprintf(&b, "Candidate: %s score: %.2f name: (%s)\n", snap.Symbol, score, snap.Name)
	fmt.Fprintf(&b, "Failed symbols: %d\n", failures)
	return subject, b.String()
}

// ValidationMessage renders the per-record validation report
func ValidationMessage(at time.Time, report *contracts.ValidationReport) (subject, body string) {
	subject = "Prediction validation result - " + at.Format(timestampLayout)

	var b strings.Builder
	b.WriteString("=== Prediction validation result ===\n\n")
	for _, r := range report.Results {
		verdict := "WRONG"
		if r.Accurate {
			verdict = "ACCURATE"
		}
		fmt.Fprintf(&b, "Symbol: %s (%s)\n", r.Symbol, r.Name)
		fmt.Fprintf(&b, "Prediction date: %s\n", r.PredictionDate)
		fmt.Fprintf(&b, "Initial price: %.2f\n", r.InitialPrice)
		fmt.Fprintf(&b, "Target date: %s\n", r.TargetDate)
		fmt.Fprintf(&b, "Final price: %.2f\n", r.FinalPrice)
		fmt.Fprintf(&b, "Change: %.2f%%\n", r.ChangePct)
		fmt.Fprintf(&b, "Predicted: %s -> %s\n\n", r.Predicted, verdict)
	}
	fmt.Fprintf(&b, "Total predictions: %d\n", report.Evaluated)
	fmt.Fprintf(&b, "Accurate predictions: %d\n", report.Accurate)
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n", report.Accuracy)
	if report.NotDue > 0 || report.Unavailable > 0 {
		fmt.Fprintf(&b, "Skipped: %d not due, %d without price\n", report.NotDue, report.Unavailable)
	}
	return subject, b.String()
}
