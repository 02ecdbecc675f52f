package validation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/stockpick/internal/contracts"
)

// =============================================================================
// Prediction Validator
// =============================================================================

// FlatBand is the |Δ%| under which a "flat" prediction holds
const FlatBand = 2.0

// RecordSource loads every stored prediction record
type RecordSource interface {
	Load(ctx context.Context) ([]contracts.PredictionRecord, error)
}

// BarSource fetches front-adjusted daily bars
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]contracts.Bar, error)
}

// Status is the per-record outcome of one validator run
type Status string

const (
	StatusEvaluated   Status = "evaluated"
	StatusNotDue      Status = "not_due"
	StatusUnavailable Status = "unavailable"
)

// Validator 예측 검증기
// ⭐ SSOT: 예측 vs 실제 검증 로직
type Validator struct {
	records      RecordSource
	bars         BarSource
	forecastDays int
	loc          *time.Location
	log          zerolog.Logger
}

// NewValidator 새 검증기 생성
func NewValidator(records RecordSource, bars BarSource, forecastDays int, loc *time.Location, log zerolog.Logger) *Validator {
	if loc == nil {
		loc = time.Local
	}
	return &Validator{
		records:      records,
		bars:         bars,
		forecastDays: forecastDays,
		loc:          loc,
		log:          log.With().Str("component", "validation").Logger(),
	}
}

// =============================================================================
// Validation
// =============================================================================

// ValidateAll 도래한 모든 예측 검증
// Only an unreadable record store is an error. Records that are not due or
// whose price is unavailable are counted and skipped.
func (v *Validator) ValidateAll(ctx context.Context, now time.Time) (*contracts.ValidationReport, error) {
	records, err := v.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	report := &contracts.ValidationReport{Total: len(records)}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, status, err := v.ValidateOne(ctx, rec, now)
		switch status {
		case StatusNotDue:
			report.NotDue++
		case StatusUnavailable:
			report.Unavailable++
			v.log.Warn().Err(err).
				Str("symbol", rec.Symbol).
				Str("date", rec.Date).
				Msg("realized price unavailable")
		case StatusEvaluated:
			report.Add(*res)
		}
	}

	v.log.Info().
		Int("total", report.Total).
		Int("evaluated", report.Evaluated).
		Int("not_due", report.NotDue).
		Int("unavailable", report.Unavailable).
		Float64("accuracy", report.Accuracy).
		Msg("validation completed")

	return report, nil
}

// ValidateOne 단일 예측 검증
func (v *Validator) ValidateOne(ctx context.Context, rec contracts.PredictionRecord, now time.Time) (*contracts.ValidationResult, Status, error) {
	predicted, err := rec.PredictedOn(v.loc)
	if err != nil {
		return nil, StatusUnavailable, err
	}

	target := AddTradingDays(predicted, v.forecastDays)
	if now.Before(target) {
		v.log.Debug().
			Str("symbol", rec.Symbol).
			Str("date", rec.Date).
			Str("target", target.Format(contracts.DateLayout)).
			Msg("prediction not due yet")
		return nil, StatusNotDue, nil
	}

	if math.IsNaN(rec.Price) || rec.Price <= 0 {
		return nil, StatusUnavailable, fmt.Errorf("record price %.4f is not usable", rec.Price)
	}

	bars, err := v.bars.DailyBars(ctx, rec.Symbol, predicted, now)
	if err != nil {
		return nil, StatusUnavailable, err
	}

	final, _, ok := PriceAt(bars, target, v.loc)
	if !ok {
		return nil, StatusUnavailable, fmt.Errorf("no bar on or after %s", target.Format(contracts.DateLayout))
	}

	change := (final - rec.Price) / rec.Price * 100
	label, known := contracts.ParseTrend(string(rec.Predicted))
	if !known {
		v.log.Warn().Str("symbol", rec.Symbol).Str("label", string(rec.Predicted)).Msg("unknown predicted label")
	}

	return &contracts.ValidationResult{
		Symbol:         rec.Symbol,
		Name:           rec.Name,
		PredictionDate: predicted.Format(contracts.DateLayout),
		InitialPrice:   rec.Price,
		TargetDate:     target.Format(contracts.DateLayout),
		FinalPrice:     final,
		ChangePct:      change,
		Predicted:      label,
		Accurate:       Classify(label, change),
	}, StatusEvaluated, nil
}

// Classify 방향성 적중 판정
func Classify(predicted contracts.Trend, changePct float64) bool {
	switch predicted {
	case contracts.TrendUp:
		return changePct > 0
	case contracts.TrendDown:
		return changePct < 0
	case contracts.TrendFlat:
		return math.Abs(changePct) < FlatBand
	}
	return false
}

// PriceAt returns the close of the bar dated target, or of the first bar
// after it. Bars must be in date order.
func PriceAt(bars []contracts.Bar, target time.Time, loc *time.Location) (float64, time.Time, bool) {
	want := target.In(loc).Format(contracts.DateLayout)
	for _, b := range bars {
		if b.Date.In(loc).Format(contracts.DateLayout) < want {
			continue
		}
		if math.IsNaN(b.Close) || b.Close <= 0 {
			continue
		}
		return b.Close, b.Date, true
	}
	return 0, time.Time{}, false
}
