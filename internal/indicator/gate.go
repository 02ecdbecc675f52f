package indicator

import (
	"math"

	"github.com/wonny/stockpick/internal/contracts"
)

// Gate thresholds
const (
	MinBars      = 26   // 최소 봉 개수 (slow EMA span)
	MaxNullRatio = 0.10 // 결측 허용 비율
)

// GateResult is a cleaned closing-price series
type GateResult struct {
	Closes    []float64
	Filled    int // forward-filled nulls
	NullRatio float64
}

// Gate runs the data-quality checks on a closing-price series.
// NaN marks a missing value. The input slice is never modified.
//
//  1. empty            -> InsufficientData
//  2. < MinBars points -> InsufficientData
//  3. null ratio > 10% -> DataQuality
//  4. forward-fill; leading nulls left -> DataQuality
//  5. non-finite values -> DataQuality
//  6. any close <= 0    -> DataQuality
func Gate(symbol string, closes []float64) (*GateResult, error) {
	n := len(closes)
	if n == 0 {
		return nil, contracts.Errorf(contracts.KindInsufficientData, symbol, "empty price series")
	}
	if n < MinBars {
		return nil, contracts.Errorf(contracts.KindInsufficientData, symbol, "have %d bars, need %d", n, MinBars)
	}

	nulls := 0
	for _, c := range closes {
		if math.IsNaN(c) {
			nulls++
		}
	}
	ratio := float64(nulls) / float64(n)
	if ratio > MaxNullRatio {
		return nil, contracts.Errorf(contracts.KindDataQuality, symbol, "null ratio %.2f exceeds %.2f", ratio, MaxNullRatio)
	}

	cleaned := make([]float64, n)
	copy(cleaned, closes)

	filled := 0
	last := math.NaN()
	for i, c := range cleaned {
		if math.IsNaN(c) {
			if math.IsNaN(last) {
				continue
			}
			cleaned[i] = last
			filled++
			continue
		}
		last = c
	}

	for i, c := range cleaned {
		if math.IsNaN(c) {
			return nil, contracts.Errorf(contracts.KindDataQuality, symbol, "null at index %d remains after forward-fill", i)
		}
		if math.IsInf(c, 0) {
			return nil, contracts.Errorf(contracts.KindDataQuality, symbol, "non-numeric close at index %d", i)
		}
		if c <= 0 {
			return nil, contracts.Errorf(contracts.KindDataQuality, symbol, "non-positive close %.4f at index %d", c, i)
		}
	}

	return &GateResult{Closes: cleaned, Filled: filled, NullRatio: ratio}, nil
}
