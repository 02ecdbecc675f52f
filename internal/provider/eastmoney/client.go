// Package eastmoney fetches A-share spot quotes and daily bars from East Money.
package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/redis"
)

// 목록 조회 파라미터
const (
	// 沪深京 A 股 전체
	universeFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"
	// f12 code, f14 name, f2 price, f3 pct, f5 volume, f8 turnover
	quoteFields  = "f12,f14,f2,f3,f5,f8"
	pageSize     = 500
	maxPages     = 40
	klineFields1 = "f1,f2,f3,f4,f5,f6"
	// date, open, close, high, low, volume, amount, amplitude, pct, chg, turnover
	klineFields2 = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"
	dailyPeriod  = "101"
	frontAdjust  = "1"
	compactDate  = "20060102"
)

// Fetcher performs a GET and returns the body
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// Client is the East Money market data client
// ⭐ SSOT: 시세/일봉 외부 조회는 여기서만
type Client struct {
	http     Fetcher
	quoteURL string
	klineURL string
	breaker  *gobreaker.CircuitBreaker
	cache    *redis.Cache
	barTTL   time.Duration
	loc      *time.Location
	logger   *logger.Logger
}

// New creates a new East Money client. cache may be nil.
func New(cfg *config.Config, http Fetcher, cache *redis.Cache, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		http:     http,
		quoteURL: cfg.Provider.QuoteURL,
		klineURL: cfg.Provider.KlineURL,
		cache:    cache,
		barTTL:   cfg.Redis.BarTTL,
		loc:      cfg.Location(),
		logger:   log.WithComponent("eastmoney"),
	}
	if c.barTTL <= 0 {
		c.barTTL = redis.TTLDaily
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eastmoney",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return c
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// get runs a request through the breaker
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.http.GetBody(ctx, rawURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("provider unavailable: %w", err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

// SpotQuotes fetches today's quote table for the whole universe, page by page
func (c *Client) SpotQuotes(ctx context.Context) ([]contracts.Quote, error) {
	start := time.Now()
	var all []contracts.Quote

	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("pn", strconv.Itoa(page))
		q.Set("pz", strconv.Itoa(pageSize))
		q.Set("po", "1")
		q.Set("np", "1")
		q.Set("fltt", "2")
		q.Set("invt", "2")
		q.Set("fid", "f12")
		q.Set("fs", universeFilter)
		q.Set("fields", quoteFields)

		body, err := c.get(ctx, c.quoteURL+"?"+q.Encode())
		if err != nil {
			return nil, contracts.Wrap(contracts.KindProviderError, "", fmt.Errorf("quote page %d: %w", page, err))
		}

		quotes, total, err := parseQuotes(body)
		if err != nil {
			return nil, contracts.Wrap(contracts.KindProviderError, "", fmt.Errorf("quote page %d: %w", page, err))
		}
		all = append(all, quotes...)

		if len(quotes) == 0 {
			break
		}
		if total > 0 && len(all) >= total {
			break
		}
		if total <= 0 && len(quotes) < pageSize {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"count":    len(all),
		"duration": time.Since(start).String(),
	}).Info("spot quotes fetched")
	return all, nil
}

// DailyBars fetches front-adjusted daily bars of a qualified symbol over [start, end]
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]contracts.Bar, error) {
	from, to := start.In(c.loc).Format(compactDate), end.In(c.loc).Format(compactDate)
	key := redis.BarsKey(symbol, from, to)

	var cached []contracts.Bar
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("bar cache read failed")
	} else if found {
		return cached, nil
	}

	q := url.Values{}
	q.Set("secid", SecID(symbol))
	q.Set("fields1", klineFields1)
	q.Set("fields2", klineFields2)
	q.Set("klt", dailyPeriod)
	q.Set("fqt", frontAdjust)
	q.Set("beg", from)
	q.Set("end", to)

	body, err := c.get(ctx, c.klineURL+"?"+q.Encode())
	if err != nil {
		return nil, contracts.Wrap(contracts.KindProviderError, symbol, err)
	}

	bars, err := parseKlines(body, c.loc)
	if err != nil {
		return nil, contracts.Wrap(contracts.KindProviderError, symbol, err)
	}

	if len(bars) > 0 && c.cache.Enabled() {
		if err := c.cache.Set(ctx, key, bars, c.barTTL); err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("bar cache write failed")
		}
	}
	return bars, nil
}

// IndexBars fetches daily bars of an index such as sh000001.
// The exchange prefix is required since index codes overlap stock codes.
func (c *Client) IndexBars(ctx context.Context, index string, start, end time.Time) ([]contracts.Bar, error) {
	if len(index) < 3 || (index[:2] != contracts.ExchangeShanghai && index[:2] != contracts.ExchangeShenzhen) {
		return nil, contracts.Errorf(contracts.KindProviderError, index, "index needs an sh/sz prefix")
	}
	return c.DailyBars(ctx, index, start, end)
}

// SecID maps a symbol to East Money's market-qualified id: sh -> 1., sz -> 0.
func SecID(symbol string) string {
	exchange, code := contracts.SplitSymbol(symbol)
	if exchange == contracts.ExchangeShanghai {
		return "1." + code
	}
	return "0." + code
}
