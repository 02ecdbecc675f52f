package eastmoney

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/stockpick/internal/contracts"
)

// parseQuotes decodes one clist page. data.diff may be an array or an
// object keyed "0","1",...; data null means an empty page.
func parseQuotes(body []byte) ([]contracts.Quote, int, error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("invalid quote response")
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, 0, nil
	}

	total := int(data.Get("total").Int())
	var out []contracts.Quote
	data.Get("diff").ForEach(func(_, v gjson.Result) bool {
		code := strings.TrimSpace(v.Get("f12").String())
		if code == "" {
			return true
		}
		out = append(out, contracts.Quote{
			Code:     code,
			Name:     strings.TrimSpace(v.Get("f14").String()),
			Price:    number(v.Get("f2")),
			PctChg:   zeroIfMissing(number(v.Get("f3"))),
			Volume:   zeroIfMissing(number(v.Get("f5"))),
			Turnover: zeroIfMissing(number(v.Get("f8"))),
		})
		return true
	})
	return out, total, nil
}

// parseKlines decodes data.klines; each entry is
// "date,open,close,high,low,volume,...". Unparseable prices become NaN so
// the quality gate can judge them.
func parseKlines(body []byte, loc *time.Location) ([]contracts.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid kline response")
	}
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, nil
	}

	arr := klines.Array()
	out := make([]contracts.Bar, 0, len(arr))
	for _, v := range arr {
		parts := strings.Split(strings.TrimSpace(v.String()), ",")
		if len(parts) < 6 {
			continue
		}
		date, err := time.ParseInLocation(contracts.DateLayout, parts[0], loc)
		if err != nil {
			continue
		}
		out = append(out, contracts.Bar{
			Date:   date,
			Open:   field(parts[1]),
			Close:  field(parts[2]),
			High:   field(parts[3]),
			Low:    field(parts[4]),
			Volume: field(parts[5]),
		})
	}
	return out, nil
}

// number reads a numeric field; "-" and other placeholders are NaN
func number(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return field(v.String())
	}
	return math.NaN()
}

func field(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func zeroIfMissing(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
