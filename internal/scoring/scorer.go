package scoring

import (
	"math"

	"github.com/wonny/stockpick/internal/contracts"
)

// Inputs are the values the heuristic looks at.
// Missing (NaN/Inf) inputs count as 0.
type Inputs struct {
	PctChg    float64
	Price     float64
	Volume    float64
	Turnover  float64
	AvgVolume float64
	RSI       float64
	MACDFast  float64
	MACDSlow  float64
	MACDHist  float64
	MA5       float64
}

// InputsOf combines a snapshot with its indicators
func InputsOf(snap contracts.Snapshot, ind *contracts.IndicatorSet) Inputs {
	in := Inputs{
		PctChg:   snap.PctChg,
		Price:    snap.Price,
		Volume:   snap.Volume,
		Turnover: snap.Turnover,
	}
	if ind != nil {
		in.AvgVolume = ind.AvgVolume
		in.RSI = LatestRSI(ind)
		in.MACDFast = ind.MACDFast
		in.MACDSlow = ind.MACDSlow
		in.MACDHist = ind.MACDHist
		in.MA5 = ind.MA5
	}
	return in
}

// LatestRSI prefers the most recent trailing value and falls back to RSILatest.
// An empty trailing window with no latest value gives 0.
func LatestRSI(ind *contracts.IndicatorSet) float64 {
	if ind == nil {
		return 0
	}
	for i := len(ind.RSITrailing) - 1; i >= 0; i-- {
		if v := ind.RSITrailing[i]; !math.IsNaN(v) {
			return v
		}
	}
	return clean(ind.RSILatest)
}

// Rule is one additive term of the score
type Rule struct {
	Name string
	Fn   func(in Inputs) float64
}

// Rules lists every term. Each rule only reads the inputs.
// ⭐ SSOT: 점수 규칙은 여기서만 정의
var Rules = []Rule{
	{"pct_chg", func(in Inputs) float64 {
		return in.PctChg * 2
	}},
	{"volume_ratio", func(in Inputs) float64 {
		ratio := 0.0
		if in.AvgVolume > 0 {
			ratio = in.Volume / in.AvgVolume
		}
		if ratio > 1.5 {
			return 15 * math.Min(ratio, 5)
		}
		return 0
	}},
	{"turnover", func(in Inputs) float64 {
		if in.Turnover > 1 {
			return 10 * math.Min(in.Turnover/10, 2)
		}
		return 0
	}},
	{"rsi", func(in Inputs) float64 {
		// RSI <= 30 은 가감점 없음
		switch {
		case in.RSI > 30 && in.RSI < 70:
			return 15
		case in.RSI >= 70:
			return -10
		}
		return 0
	}},
	{"macd", func(in Inputs) float64 {
		if in.MACDFast > in.MACDSlow && in.MACDHist > 0 {
			return 20
		}
		return 0
	}},
	{"ma5", func(in Inputs) float64 {
		if in.Price > in.MA5 {
			return 15
		}
		return 0
	}},
}

// Score sums every rule over sanitized inputs
func Score(in Inputs) float64 {
	in = in.sanitized()
	total := 0.0
	for _, r := range Rules {
		total += r.Fn(in)
	}
	return total
}

// Breakdown returns each rule's contribution keyed by rule name
func Breakdown(in Inputs) map[string]float64 {
	in = in.sanitized()
	out := make(map[string]float64, len(Rules))
	for _, r := range Rules {
		out[r.Name] = r.Fn(in)
	}
	return out
}

// Buy gate thresholds
const (
	BuyMinScore = 60
	BuyMinRSI   = 40
	BuyMaxRSI   = 65
)

// BuyWorthy reports whether a winner warrants a notification
func BuyWorthy(score, rsi float64) bool {
	return score > BuyMinScore && rsi > BuyMinRSI && rsi < BuyMaxRSI
}

func (in Inputs) sanitized() Inputs {
	return Inputs{
		PctChg:    clean(in.PctChg),
		Price:     clean(in.Price),
		Volume:    clean(in.Volume),
		Turnover:  clean(in.Turnover),
		AvgVolume: clean(in.AvgVolume),
		RSI:       clean(in.RSI),
		MACDFast:  clean(in.MACDFast),
		MACDSlow:  clean(in.MACDSlow),
		MACDHist:  clean(in.MACDHist),
		MA5:       clean(in.MA5),
	}
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
