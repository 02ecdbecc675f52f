package contracts

// IndicatorSet holds the indicators of one price series, anchored at its last bar
type IndicatorSet struct {
	MA5       float64 `json:"ma5"`
	AvgVolume float64 `json:"avg_volume"` // 10-period
	RSILatest float64 `json:"rsi_latest"`
	MACDFast  float64 `json:"macd_fast"` // DIF
	MACDSlow  float64 `json:"macd_slow"` // DEA
	MACDHist  float64 `json:"macd_hist"`

	// RSITrailing holds the last (up to 5) defined RSI values, oldest first
	RSITrailing []float64 `json:"rsi_trailing,omitempty"`

	// Whole-window statistics
	Bars            int     `json:"bars"`
	FilledNulls     int     `json:"filled_nulls"`
	TotalChange     float64 `json:"total_change"` // (last-first)/first*100
	HistoricalTrend Trend   `json:"historical_trend"`
}

// RSITrend returns rsi[-1]-rsi[-5] when five trailing values are available
func (s *IndicatorSet) RSITrend() (float64, bool) {
	if s == nil || len(s.RSITrailing) < 5 {
		return 0, false
	}
	n := len(s.RSITrailing)
	return s.RSITrailing[n-1] - s.RSITrailing[n-5], true
}
