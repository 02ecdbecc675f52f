package indicator

import (
	"math"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Indicator periods
const (
	FastSpan     = 12
	SlowSpan     = 26
	SignalSpan   = 9
	MAPeriod     = 5
	VolumePeriod = 10
	RSIPeriod    = 14
	RSITrailing  = 5
)

// Engine derives an IndicatorSet from a price series
// ⭐ SSOT: 지표 계산은 여기서만
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new indicator engine
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{logger: log.WithComponent("indicator")}
}

// FromBars computes indicators from daily bars
func (e *Engine) FromBars(symbol string, bars []contracts.Bar) (*contracts.IndicatorSet, error) {
	return e.Compute(symbol, contracts.Closes(bars), contracts.Volumes(bars))
}

// Compute runs the quality gate and derives all indicators at the last bar.
// Failures are *contracts.Error; the caller skips the symbol.
func (e *Engine) Compute(symbol string, closes, volumes []float64) (*contracts.IndicatorSet, error) {
	if len(closes) > 0 && len(volumes) != len(closes) {
		return nil, contracts.Errorf(contracts.KindMissingColumn, symbol,
			"volume column has %d values for %d closes", len(volumes), len(closes))
	}

	gated, err := Gate(symbol, closes)
	if err != nil {
		return nil, err
	}
	if gated.Filled > 0 {
		e.logger.WithFields(map[string]interface{}{
			"symbol":     symbol,
			"filled":     gated.Filled,
			"null_ratio": gated.NullRatio,
		}).Warn("forward-filled missing closes")
	}
	cl := gated.Closes

	dif, dea, hist := MACD(cl, FastSpan, SlowSpan, SignalSpan)
	rsi := RSI(cl, RSIPeriod)

	first, last := cl[0], cl[len(cl)-1]
	total := (last - first) / first * 100

	set := &contracts.IndicatorSet{
		MA5:             finite(Last(SMA(cl, MAPeriod))),
		AvgVolume:       finite(Last(SMA(zeroMissing(volumes), VolumePeriod))),
		RSILatest:       finite(Last(rsi)),
		RSITrailing:     Trailing(rsi, RSITrailing),
		MACDFast:        Last(dif),
		MACDSlow:        Last(dea),
		MACDHist:        Last(hist),
		Bars:            len(cl),
		FilledNulls:     gated.Filled,
		TotalChange:     total,
		HistoricalTrend: contracts.TrendOf(total),
	}
	return set, nil
}

// zeroMissing copies xs with NaN replaced by 0
func zeroMissing(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if !math.IsNaN(x) {
			out[i] = x
		}
	}
	return out
}

// finite maps NaN/Inf to 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
