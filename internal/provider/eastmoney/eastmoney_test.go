package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

func testConfig(base string) *config.Config {
	return &config.Config{
		Timezone: "UTC",
		Provider: config.ProviderConfig{
			QuoteURL: base + "/api/qt/clist/get",
			KlineURL: base + "/api/qt/stock/kline/get",
			Timeout:  2 * time.Second,
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	log := logger.NewNop()
	return New(cfg, httputil.New(cfg, log).DisableRetry(), nil, log)
}

func TestSecID(t *testing.T) {
	assert.Equal(t, "1.600519", SecID("sh600519"))
	assert.Equal(t, "0.000001", SecID("sz000001"))
	assert.Equal(t, "1.000001", SecID("sh000001"))
	assert.Equal(t, "0.300750", SecID("300750"))
	assert.Equal(t, "1.688981", SecID("688981"))
}

func TestParseQuotes(t *testing.T) {
	body := []byte(`{"rc":0,"data":{"total":3,"diff":[
		{"f2":10.5,"f3":1.25,"f5":123456,"f8":0.85,"f12":"000001","f14":"平安银行"},
		{"f2":"-","f3":"-","f5":"-","f8":"-","f12":"600001","f14":"停牌股"},
		{"f2":1700,"f3":-0.4,"f5":2000,"f8":0.2,"f12":"600519","f14":"贵州茅台"}
	]}}`)

	quotes, total, err := parseQuotes(body)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, quotes, 3)

	assert.Equal(t, contracts.Quote{Code: "000001", Name: "平安银行", Price: 10.5, PctChg: 1.25, Volume: 123456, Turnover: 0.85}, quotes[0])
	assert.True(t, math.IsNaN(quotes[1].Price))
	assert.Zero(t, quotes[1].PctChg)
	assert.Equal(t, -0.4, quotes[2].PctChg)
}

func TestParseQuotes_ObjectDiff(t *testing.T) {
	body := []byte(`{"data":{"total":2,"diff":{"0":{"f2":1,"f12":"000002","f14":"A"},"1":{"f2":2,"f12":"600000","f14":"B"}}}}`)
	quotes, total, err := parseQuotes(body)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, quotes, 2)
	assert.Equal(t, "600000", quotes[1].Code)
}

func TestParseQuotes_Edges(t *testing.T) {
	quotes, _, err := parseQuotes([]byte(`{"rc":0,"data":null}`))
	require.NoError(t, err)
	assert.Empty(t, quotes)

	_, _, err = parseQuotes([]byte(`<html>blocked</html>`))
	assert.Error(t, err)
}

func TestParseKlines(t *testing.T) {
	body := []byte(`{"data":{"code":"600519","klines":[
		"2024-03-07,1690.00,1700.50,1705.00,1688.00,30000,5.1e9,1.0,0.5,8.5,0.24",
		"2024-03-08,1700.50,-,1710.00,1695.00,28000,4.8e9,0.9,-0.2,-3.5,0.22",
		"bad-date,1,2,3,4,5",
		"2024-03-11,1"
	]}}`)

	bars, err := parseKlines(body, time.UTC)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 1700.50, bars[0].Close)
	assert.Equal(t, 1690.0, bars[0].Open)
	assert.Equal(t, 30000.0, bars[0].Volume)
	assert.True(t, math.IsNaN(bars[1].Close))

	bars, err = parseKlines([]byte(`{"data":null}`), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestClient_SpotQuotesPaging(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/qt/clist/get", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, universeFilter, r.URL.Query().Get("fs"))
		assert.Equal(t, "2", r.URL.Query().Get("fltt"))

		page, _ := strconv.Atoi(r.URL.Query().Get("pn"))
		// 서버가 페이지당 2건만 돌려주는 경우
		switch page {
		case 1:
			fmt.Fprint(w, `{"data":{"total":3,"diff":[{"f2":1,"f12":"000001","f14":"A"},{"f2":2,"f12":"000002","f14":"B"}]}}`)
		case 2:
			fmt.Fprint(w, `{"data":{"total":3,"diff":[{"f2":3,"f12":"600000","f14":"C"}]}}`)
		default:
			fmt.Fprint(w, `{"data":null}`)
		}
	})

	c := newTestClient(t, mux)
	quotes, err := c.SpotQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "600000", quotes[2].Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_SpotQuotesError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.SpotQuotes(context.Background())
	require.Error(t, err)
	assert.True(t, contracts.IsKind(err, contracts.KindProviderError))

	var statusErr *httputil.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestClient_DailyBars(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/qt/stock/kline/get", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1.600519", q.Get("secid"))
		assert.Equal(t, "101", q.Get("klt"))
		assert.Equal(t, "1", q.Get("fqt"))
		assert.Equal(t, "20240101", q.Get("beg"))
		assert.Equal(t, "20240301", q.Get("end"))
		fmt.Fprint(w, `{"data":{"klines":["2024-02-29,10,10.5,11,9.8,1000","2024-03-01,10.5,10.8,11,10.2,1200"]}}`)
	})

	c := newTestClient(t, mux)
	bars, err := c.DailyBars(context.Background(), "sh600519",
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.8, bars[1].Close)
	assert.Equal(t, 1200.0, bars[1].Volume)
}

func TestClient_IndexBars(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/qt/stock/kline/get", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.000001", r.URL.Query().Get("secid"))
		fmt.Fprint(w, `{"data":{"klines":["2024-03-01,3000,3010,3020,2990,1"]}}`)
	})
	c := newTestClient(t, mux)

	bars, err := c.IndexBars(context.Background(), "sh000001", time.Now().AddDate(0, 0, -30), time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	_, err = c.IndexBars(context.Background(), "000001", time.Now(), time.Now())
	assert.True(t, contracts.IsKind(err, contracts.KindProviderError))
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	now := time.Now()
	for i := 0; i < 8; i++ {
		_, err := c.DailyBars(context.Background(), "sz000001", now.AddDate(0, 0, -60), now)
		require.Error(t, err)
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, "open", c.BreakerState())
}
