package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Lookback and advisory threshold of the index check
const (
	Lookback       = 5
	SharpDownLimit = -0.02
)

// IndexSource fetches daily bars of a broad market index
type IndexSource interface {
	IndexBars(ctx context.Context, index string, start, end time.Time) ([]contracts.Bar, error)
}

// ErrUndefinedClose is returned when an endpoint close is missing
var ErrUndefinedClose = errors.New("undefined index close")

// Context is the advisory market signal. It never feeds into scoring.
type Context struct {
	Index     string  `json:"index"`
	Change    float64 `json:"change"` // (c[-1]-c[-5])/c[-5]
	SharpDown bool    `json:"sharp_down"`
}

// Change5 computes (closes[-1]-closes[-5])/closes[-5]
func Change5(closes []float64) (float64, error) {
	if len(closes) < Lookback {
		return 0, fmt.Errorf("need %d closes, have %d", Lookback, len(closes))
	}
	base, last := closes[len(closes)-Lookback], closes[len(closes)-1]
	if math.IsNaN(base) || math.IsNaN(last) || math.IsInf(base, 0) || math.IsInf(last, 0) {
		return 0, fmt.Errorf("%w: base %v, last %v", ErrUndefinedClose, base, last)
	}
	if base <= 0 {
		return 0, fmt.Errorf("non-positive base close %.4f", base)
	}
	return (last - base) / base, nil
}

// Evaluate builds the advisory signal from index closes
func Evaluate(index string, closes []float64) (*Context, error) {
	change, err := Change5(closes)
	if errors.Is(err, ErrUndefinedClose) {
		return nil, contracts.Wrap(contracts.KindDataQuality, index, err)
	}
	if err != nil {
		return nil, contracts.Wrap(contracts.KindInsufficientData, index, err)
	}
	return &Context{
		Index:     index,
		Change:    change,
		SharpDown: change < SharpDownLimit,
	}, nil
}

// Checker consults the index source and logs the advisory
type Checker struct {
	source IndexSource
	index  string
	logger *logger.Logger
}

// NewChecker creates a new market context checker
func NewChecker(source IndexSource, index string, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Checker{source: source, index: index, logger: log.WithComponent("market")}
}

// Check fetches the last month of index bars and evaluates them.
// Errors are logged by the caller; they never block a run.
func (c *Checker) Check(ctx context.Context, now time.Time) (*Context, error) {
	bars, err := c.source.IndexBars(ctx, c.index, now.AddDate(0, 0, -30), now)
	if err != nil {
		return nil, contracts.Wrap(contracts.KindProviderError, c.index, err)
	}

	mc, err := Evaluate(c.index, contracts.Closes(bars))
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"index":  mc.Index,
		"change": mc.Change,
	})
	if mc.SharpDown {
		log.Warn("broad market down sharply, act with caution")
	} else {
		log.Info("market context checked")
	}
	return mc, nil
}
