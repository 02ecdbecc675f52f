package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleSeparator = "═══════════════════════════════════════════════════════════"
	singleSeparator = "───────────────────────────────────────────────────────────"
	timeLayout      = "2006-01-02 15:04:05"
)

// PrintHeader prints a formatted command header
func PrintHeader(w io.Writer, title string, at time.Time) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleSeparator)
	fmt.Fprintf(w, "  Started   : %s\n", at.Format(timeLayout))
	fmt.Fprintln(w, singleSeparator)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

var recordColumns = []string{"DATE", "SYMBOL", "NAME", "SCORE", "PRICE", "PREDICTED", "RSI"}
var recordWidths = []int{10, 8, 12, 7, 8, 9, 6}

// PrintRecords prints prediction records as a table
func PrintRecords(w io.Writer, recs []contracts.PredictionRecord) {
	PrintTableHeader(w, recordColumns, recordWidths)
	for _, r := range recs {
		PrintTableRow(w, []string{
			r.Date,
			r.Symbol,
			r.Name,
			fmt.Sprintf("%.2f", r.Score),
			fmt.Sprintf("%.2f", r.Price),
			string(r.Predicted),
			fmt.Sprintf("%.1f", r.RSI),
		}, recordWidths)
	}
}

// PrintAnalysis prints the outcome of one analysis run
func PrintAnalysis(w io.Writer, res *pipeline.AnalysisResult) {
	PrintKeyValue(w, "Outcome", string(res.Outcome), 10)
	PrintKeyValue(w, "Universe", fmt.Sprint(res.Universe), 10)
	PrintKeyValue(w, "Failures", fmt.Sprint(res.Failures), 10)
	if res.Market != nil {
		market := fmt.Sprintf("%s %+.2f%%", res.Market.Index, res.Market.Change*100)
		if res.Market.SharpDown {
			market += " (sharp down)"
		}
		PrintKeyValue(w, "Market", market, 10)
	}

	if res.Record == nil {
		fmt.Fprintln(w)
		PrintWarning(w, "No symbol produced a score")
		return
	}

	r := res.Record
	PrintKeyValue(w, "Winner", fmt.Sprintf("%s (%s)", r.Symbol, r.Name), 10)
	PrintKeyValue(w, "Score", fmt.Sprintf("%.2f", r.Score), 10)
	PrintKeyValue(w, "Price", fmt.Sprintf("%.2f", r.Price), 10)
	PrintKeyValue(w, "Predicted", string(r.Predicted), 10)
	PrintKeyValue(w, "RSI", fmt.Sprintf("%.2f", r.RSI), 10)
	PrintKeyValue(w, "MACD", fmt.Sprintf("%.4f / %.4f", r.MACDFast, r.MACDSlow), 10)
	PrintKeyValue(w, "MA5", fmt.Sprintf("%.2f", r.MA5), 10)
	fmt.Fprintln(w)

	switch {
	case res.Notified:
		PrintSuccess(w, "Buy signal sent")
	case res.NotifyError != "":
		PrintError(w, "Buy signal not delivered: "+res.NotifyError)
	case res.BuyWorthy:
		PrintWarning(w, "Buy signal (notification channel not configured)")
	default:
		PrintSuccess(w, "Recorded, below buy gate")
	}
}

var validationColumns = []string{"SYMBOL", "DATE", "TARGET", "INITIAL", "FINAL", "CHANGE%", "PREDICTED", "VERDICT"}
var validationWidths = []int{8, 10, 10, 8, 8, 8, 9, 8}

// PrintValidation prints the outcome of one validation run
func PrintValidation(w io.Writer, run *pipeline.ValidationRun) {
	r := run.Report
	if len(r.Results) > 0 {
		PrintTableHeader(w, validationColumns, validationWidths)
		for _, res := range r.Results {
			verdict := "wrong"
			if res.Accurate {
				verdict = "accurate"
			}
			PrintTableRow(w, []string{
				res.Symbol,
				res.PredictionDate,
				res.TargetDate,
				fmt.Sprintf("%.2f", res.InitialPrice),
				fmt.Sprintf("%.2f", res.FinalPrice),
				fmt.Sprintf("%+.2f", res.ChangePct),
				string(res.Predicted),
				verdict,
			}, validationWidths)
		}
		fmt.Fprintln(w)
	}

	PrintKeyValue(w, "Records", fmt.Sprint(r.Total), 11)
	PrintKeyValue(w, "Not due", fmt.Sprint(r.NotDue), 11)
	PrintKeyValue(w, "No price", fmt.Sprint(r.Unavailable), 11)
	PrintKeyValue(w, "Evaluated", fmt.Sprint(r.Evaluated), 11)
	fmt.Fprintln(w)

	if run.Outcome == pipeline.OutcomeNoResults {
		PrintWarning(w, "No predictions to validate")
		return
	}
	PrintSuccess(w, fmt.Sprintf("Accuracy %.2f%% (%d/%d)", r.Accuracy, r.Accurate, r.Evaluated))
}
