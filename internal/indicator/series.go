package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// EMA computes an exponential moving average with α = 2/(span+1).
// ema[0] = xs[0]; ema[t] = xs[t]*α + ema[t-1]*(1-α). No look-ahead.
func EMA(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 || span <= 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = xs[0]
	for t := 1; t < len(xs); t++ {
		out[t] = xs[t]*alpha + out[t-1]*(1-alpha)
	}
	return out
}

// SMA computes a trailing simple moving average.
// Indices before the first full window are NaN.
func SMA(xs []float64, period int) []float64 {
	if period <= 0 {
		return warmup(make([]float64, len(xs)), len(xs))
	}
	return warmup(talib.Sma(xs, period), period-1)
}

// MACD returns the fast line (DIF), slow line (DEA) and histogram.
// DIF = EMA(fast) - EMA(slow), DEA = EMA(DIF, signal), hist = (DIF-DEA)*2.
func MACD(closes []float64, fast, slow, signal int) (dif, dea, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = fastEMA[i] - slowEMA[i]
	}
	dea = EMA(dif, signal)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = (dif[i] - dea[i]) * 2
	}
	return dif, dea, hist
}

// RSI computes Wilder's relative strength index.
// The first period values are warm-up (NaN). A window with no movement yet
// reads 50, talib reports 0 there.
func RSI(closes []float64, period int) []float64 {
	if period < 2 || len(closes) <= period {
		return warmup(make([]float64, len(closes)), len(closes))
	}

	out := warmup(talib.Rsi(closes, period), period)
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[i-1] {
			break
		}
		if i >= period {
			out[i] = 50 // 변동 없음
		}
	}
	return out
}

// warmup marks the first n values as undefined
func warmup(xs []float64, n int) []float64 {
	for i := 0; i < n && i < len(xs); i++ {
		xs[i] = math.NaN()
	}
	return xs
}

// Trailing returns up to n defined (non-NaN) values from the end of xs, oldest first
func Trailing(xs []float64, n int) []float64 {
	out := make([]float64, 0, n)
	for i := len(xs) - 1; i >= 0 && len(out) < n; i-- {
		if !math.IsNaN(xs[i]) {
			out = append(out, xs[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Last returns the final element of xs, or NaN when empty
func Last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}
