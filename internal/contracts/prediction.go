package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in records and reports
const DateLayout = "2006-01-02"

// PredictionRecord is the durable row written for each run's winner
// ⭐ SSOT: 레코드 컬럼 순서 = 파일 헤더 순서
type PredictionRecord struct {
	Date      string  `csv:"date" json:"date"`
	Symbol    string  `csv:"symbol" json:"symbol"`
	Name      string  `csv:"name" json:"name"`
	Score     float64 `csv:"score" json:"score"`
	Price     float64 `csv:"price" json:"price"`
	Predicted Trend   `csv:"predicted" json:"predicted"`
	RSI       float64 `csv:"rsi" json:"rsi"`
	MACDFast  float64 `csv:"macd_fast" json:"macd_fast"`
	MACDSlow  float64 `csv:"macd_slow" json:"macd_slow"`
	MA5       float64 `csv:"ma5" json:"ma5"`
}

// RecordHeader is the fixed header of the record store
var RecordHeader = []string{"date", "symbol", "name", "score", "price", "predicted", "rsi", "macd_fast", "macd_slow", "ma5"}

// PredictedOn parses the record date in loc
func (r PredictionRecord) PredictedOn(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, r.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("record %s: bad date %q: %w", r.Symbol, r.Date, err)
	}
	return t, nil
}

// NewPredictionRecord assembles the record of a winning candidate
func NewPredictionRecord(at time.Time, snap Snapshot, ind *IndicatorSet, score float64) PredictionRecord {
	rec := PredictionRecord{
		Date:      at.Format(DateLayout),
		Symbol:    snap.Symbol,
		Name:      snap.Name,
		Score:     score,
		Price:     snap.Price,
		Predicted: snap.Trend,
	}
	if ind != nil {
		rec.RSI = ind.RSILatest
		rec.MACDFast = ind.MACDFast
		rec.MACDSlow = ind.MACDSlow
		rec.MA5 = ind.MA5
	}
	return rec
}
