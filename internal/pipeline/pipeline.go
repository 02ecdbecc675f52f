package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/market"
	"github.com/wonny/stockpick/internal/notify"
	"github.com/wonny/stockpick/internal/scoring"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/pkg/logger"
)

// Outcome of one run
type Outcome string

const (
	OutcomeWinner    Outcome = "winner"
	OutcomeNoWinner  Outcome = "no_winner"
	OutcomeValidated Outcome = "validated"
	OutcomeNoResults Outcome = "no_results"
)

// QuoteSource fetches the spot quote table
type QuoteSource interface {
	SpotQuotes(ctx context.Context) ([]contracts.Quote, error)
}

// CandidateSelector picks the best symbol of a universe
type CandidateSelector interface {
	Select(ctx context.Context, quotes []contracts.Quote, now time.Time) (*selection.Result, error)
}

// MarketChecker evaluates the advisory index signal
type MarketChecker interface {
	Check(ctx context.Context, now time.Time) (*market.Context, error)
}

// RecordAppender persists the winner
type RecordAppender interface {
	Append(ctx context.Context, rec contracts.PredictionRecord) error
}

// ReportValidator validates the stored predictions
type ReportValidator interface {
	ValidateAll(ctx context.Context, now time.Time) (*contracts.ValidationReport, error)
}

// Notifier sends plain-text messages
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, subject, body string) error
}

// Deps are the collaborators of both entry points
type Deps struct {
	Quotes    QuoteSource
	Selector  CandidateSelector
	Market    MarketChecker // optional
	Records   RecordAppender
	Validator ReportValidator
	Notifier  Notifier // optional
	Now       func() time.Time
}

// AnalysisResult is the outcome of one analysis cycle
type AnalysisResult struct {
	Outcome     Outcome                     `json:"outcome"`
	Record      *contracts.PredictionRecord `json:"record,omitempty"`
	Universe    int                         `json:"universe"`
	Failures    int                         `json:"failures"`
	BuyWorthy   bool                        `json:"buy_worthy"`
	Notified    bool                        `json:"notified"`
	NotifyError string                      `json:"notify_error,omitempty"`
	Market      *market.Context             `json:"market,omitempty"`
}

// ValidationRun is the outcome of one validation cycle
type ValidationRun struct {
	Outcome     Outcome                     `json:"outcome"`
	Report      *contracts.ValidationReport `json:"report"`
	Notified    bool                        `json:"notified"`
	NotifyError string                      `json:"notify_error,omitempty"`
}

// Pipeline exposes the two daily entry points
// ⭐ SSOT: 분석/검증 실행 흐름은 여기서만
type Pipeline struct {
	deps   Deps
	loc    *time.Location
	logger *logger.Logger
}

// New creates a pipeline. loc sets the calendar used for record dates.
func New(deps Deps, loc *time.Location, log *logger.Logger) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{deps: deps, loc: loc, logger: log.WithComponent("pipeline")}
}

// RunAnalysis runs one analysis cycle.
// Errors are structural: universe fetch, selection cancelled, record append.
func (p *Pipeline) RunAnalysis(ctx context.Context) (*AnalysisResult, error) {
	now := p.deps.Now().In(p.loc)

	// 1. 전체 시세
	quotes, err := p.deps.Quotes.SpotQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	if len(quotes) == 0 {
		return nil, contracts.Errorf(contracts.KindDataUnavailable, "", "empty quote table")
	}

	// 2. 후보 선택
	sel, err := p.deps.Selector.Select(ctx, quotes, now)
	if err != nil {
		return nil, err
	}

	res := &AnalysisResult{
		Universe: sel.Universe,
		Failures: sel.Failures,
	}

	// 3. 시장 상황 (참고용)
	if p.deps.Market != nil {
		mc, err := p.deps.Market.Check(ctx, now)
		if err != nil {
			p.logger.WithError(err).Warn("market context unavailable")
		}
		res.Market = mc
	}

	if !sel.HasWinner() {
		res.Outcome = OutcomeNoWinner
		p.logger.WithFields(map[string]interface{}{
			"universe": sel.Universe,
			"failures": sel.Failures,
		}).Warn("no candidate produced a score")
		return res, nil
	}
	res.Outcome = OutcomeWinner

	winner := sel.Winner
	p.logWinner(winner)
	p.adviseRSITrend(winner)

	// 4. 기록은 알림보다 먼저, 항상
	rec := contracts.NewPredictionRecord(now, winner.Snapshot, winner.Indicators, winner.Score)
	if err := p.deps.Records.Append(ctx, rec); err != nil {
		return res, fmt.Errorf("append prediction record: %w", err)
	}
	res.Record = &rec

	// 5. 매수 게이트 통과 시에만 알림
	rsi := scoring.LatestRSI(winner.Indicators)
	res.BuyWorthy = scoring.BuyWorthy(winner.Score, rsi)
	if !res.BuyWorthy {
		p.logger.WithFields(map[string]interface{}{
			"symbol": winner.Snapshot.Symbol,
			"score":  winner.Score,
			"rsi":    rsi,
		}).Info("winner below buy gate, no notification")
		return res, nil
	}

	subject, body := notify.BuyMessage(now, winner.Snapshot, winner.Score, sel.Failures)
	res.Notified, res.NotifyError = p.notify(ctx, subject, body)
	return res, nil
}

// RunValidation runs one validation cycle.
// Only an unreadable record store is an error.
func (p *Pipeline) RunValidation(ctx context.Context) (*ValidationRun, error) {
	now := p.deps.Now().In(p.loc)

	report, err := p.deps.Validator.ValidateAll(ctx, now)
	if err != nil {
		return nil, err
	}

	run := &ValidationRun{Report: report}
	if !report.HasResults() {
		run.Outcome = OutcomeNoResults
		p.logger.WithFields(map[string]interface{}{
			"total":       report.Total,
			"not_due":     report.NotDue,
			"unavailable": report.Unavailable,
		}).Warn("nothing to validate")
		return run, nil
	}
	run.Outcome = OutcomeValidated

	for _, r := range report.Results {
		p.logger.WithFields(map[string]interface{}{
			"symbol":     r.Symbol,
			"name":       r.Name,
			"predicted":  r.Predicted,
			"date":       r.PredictionDate,
			"target":     r.TargetDate,
			"initial":    r.InitialPrice,
			"final":      r.FinalPrice,
			"change_pct": r.ChangePct,
			"accurate":   r.Accurate,
		}).Info("prediction validated")
	}
	p.logger.WithFields(map[string]interface{}{
		"evaluated": report.Evaluated,
		"accurate":  report.Accurate,
		"accuracy":  report.Accuracy,
	}).Info("prediction accuracy")

	subject, body := notify.ValidationMessage(now, report)
	run.Notified, run.NotifyError = p.notify(ctx, subject, body)
	return run, nil
}

// notify never fails the run
func (p *Pipeline) notify(ctx context.Context, subject, body string) (bool, string) {
	if p.deps.Notifier == nil || !p.deps.Notifier.Enabled() {
		p.logger.WithField("subject", subject).Info("notification channel not configured, skipped")
		return false, ""
	}
	if err := p.deps.Notifier.Notify(ctx, subject, body); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("notification failed")
		return false, err.Error()
	}
	return true, ""
}

func (p *Pipeline) logWinner(c *selection.Candidate) {
	fields := map[string]interface{}{
		"symbol":   c.Snapshot.Symbol,
		"name":     c.Snapshot.Name,
		"trend":    c.Snapshot.Trend,
		"pct_chg":  c.Snapshot.PctChg,
		"price":    c.Snapshot.Price,
		"volume":   c.Snapshot.Volume,
		"turnover": c.Snapshot.Turnover,
		"score":    c.Score,
	}
	if ind := c.Indicators; ind != nil {
		fields["historical_trend"] = ind.HistoricalTrend
		fields["total_change"] = ind.TotalChange
		fields["rsi"] = scoring.LatestRSI(ind)
		fields["macd_fast"] = ind.MACDFast
		fields["macd_slow"] = ind.MACDSlow
		fields["ma5"] = ind.MA5
	}
	p.logger.WithFields(fields).Info("best candidate")
}

// adviseRSITrend logs the RSI momentum of the winner. Advisory only.
func (p *Pipeline) adviseRSITrend(c *selection.Candidate) {
	trend, ok := c.Indicators.RSITrend()
	if !ok {
		p.logger.WithField("symbol", c.Snapshot.Symbol).Warn("not enough RSI values for a trend")
		return
	}
	latest := scoring.LatestRSI(c.Indicators)
	if trend > 0 && latest < 70 {
		p.logger.WithFields(map[string]interface{}{
			"symbol":    c.Snapshot.Symbol,
			"rsi_trend": trend,
			"rsi":       latest,
		}).Info("RSI rising without overbought, buy signal strengthened")
	}
}
