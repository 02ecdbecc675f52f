package contracts

import (
	"strings"
	"time"
)

// Exchange prefixes used in qualified symbols
const (
	ExchangeShanghai = "sh"
	ExchangeShenzhen = "sz"
)

// Quote is one row of the provider's spot quote table
type Quote struct {
	Code     string  `json:"code"` // 6자리 원시 코드 (e.g. 600519)
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	PctChg   float64 `json:"pct_chg"` // 전일 대비 등락률 (%)
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"turnover"` // 換手率 (%)
}

// QualifySymbol prefixes a raw code with its exchange.
// Leading 6 or 9 is Shanghai, everything else Shenzhen.
func QualifySymbol(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return ExchangeShanghai + code
	}
	return ExchangeShenzhen + code
}

// SplitSymbol returns the exchange prefix and raw code of a qualified symbol.
// Unqualified input is qualified first.
func SplitSymbol(symbol string) (exchange, code string) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if strings.HasPrefix(symbol, ExchangeShanghai) || strings.HasPrefix(symbol, ExchangeShenzhen) {
		return symbol[:2], symbol[2:]
	}
	q := QualifySymbol(symbol)
	return q[:2], q[2:]
}

// Bar is one front-adjusted daily bar
// NaN Close marks a missing value
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// Closes extracts the closing price column
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Trend is a directional label
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// TrendOf classifies a percentage change
func TrendOf(pct float64) Trend {
	switch {
	case pct > 0:
		return TrendUp
	case pct < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// ParseTrend normalizes a stored label. Labels written by the older
// Chinese-headed record files are accepted too.
func ParseTrend(s string) (Trend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "上涨":
		return TrendUp, true
	case "down", "下跌":
		return TrendDown, true
	case "flat", "持平":
		return TrendFlat, true
	}
	return Trend(s), false
}

// MarshalCSV writes the label as is
func (t Trend) MarshalCSV() (string, error) {
	return string(t), nil
}

// UnmarshalCSV normalizes the stored label
func (t *Trend) UnmarshalCSV(s string) error {
	*t, _ = ParseTrend(s)
	return nil
}

// Valid reports whether t is one of the three known labels
func (t Trend) Valid() bool {
	return t == TrendUp || t == TrendDown || t == TrendFlat
}

// Snapshot is the per-run view of one symbol built from its quote row
// ⭐ SSOT: 선택 단계 동안만 존재
type Snapshot struct {
	Symbol   string  `json:"symbol"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	PctChg   float64 `json:"pct_chg"`
	Turnover float64 `json:"turnover"`
	Trend    Trend   `json:"trend"` // 실시간 등락 기준
}

// NewSnapshot builds a snapshot from a quote row
func NewSnapshot(q Quote) Snapshot {
	return Snapshot{
		Symbol:   QualifySymbol(q.Code),
		Code:     strings.TrimSpace(q.Code),
		Name:     q.Name,
		Price:    q.Price,
		Volume:   q.Volume,
		PctChg:   q.PctChg,
		Turnover: q.Turnover,
		Trend:    TrendOf(q.PctChg),
	}
}
