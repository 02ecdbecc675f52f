package selection

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/scoring"
	"github.com/wonny/stockpick/pkg/logger"
)

// BarSource fetches front-adjusted daily bars
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]contracts.Bar, error)
}

// Calculator derives indicators from bars
type Calculator interface {
	FromBars(symbol string, bars []contracts.Bar) (*contracts.IndicatorSet, error)
}

// ScoreFunc maps inputs to a score
type ScoreFunc func(scoring.Inputs) float64

// Config holds selector settings
type Config struct {
	HistoryDays int // trailing calendar window
	Workers     int // bounded fetch pool
}

// Candidate is a scored symbol
type Candidate struct {
	Index      int                     `json:"index"` // position in the universe
	Snapshot   contracts.Snapshot      `json:"snapshot"`
	Indicators *contracts.IndicatorSet `json:"indicators"`
	Score      float64                 `json:"score"`
}

// Result is the outcome of one selection pass
type Result struct {
	Winner   *Candidate             `json:"winner,omitempty"`
	Universe int                    `json:"universe"`
	Scored   int                    `json:"scored"`
	Failures int                    `json:"failures"`
	ByKind   map[contracts.Kind]int `json:"by_kind"`
	Duration time.Duration          `json:"duration"`
}

// HasWinner reports whether any symbol produced a score
func (r *Result) HasWinner() bool {
	return r != nil && r.Winner != nil
}

// Selector runs the indicator engine and scorer over the universe
// ⭐ SSOT: 최고 점수 종목 선택은 여기서만
type Selector struct {
	bars   BarSource
	calc   Calculator
	score  ScoreFunc
	cfg    Config
	logger *logger.Logger
}

// NewSelector creates a new selector. A nil score func uses scoring.Score.
func NewSelector(bars BarSource, calc Calculator, score ScoreFunc, cfg Config, log *logger.Logger) *Selector {
	if score == nil {
		score = scoring.Score
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 60
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Selector{
		bars:   bars,
		calc:   calc,
		score:  score,
		cfg:    cfg,
		logger: log.WithComponent("selection"),
	}
}

type outcome struct {
	cand *Candidate
	err  error
}

// Select evaluates every quote and returns the best-scoring one.
// Per-symbol failures are counted, never returned. Only context
// cancellation is an error.
func (s *Selector) Select(ctx context.Context, quotes []contracts.Quote, now time.Time) (*Result, error) {
	start := time.Now()
	from := now.AddDate(0, 0, -s.cfg.HistoryDays)

	s.logger.WithFields(map[string]interface{}{
		"universe": len(quotes),
		"workers":  s.cfg.Workers,
		"from":     from.Format(contracts.DateLayout),
		"to":       now.Format(contracts.DateLayout),
	}).Info("Starting candidate selection")

	// 1. 병렬 조회: 결과는 universe 순서대로 저장
	outcomes := make([]outcome, len(quotes))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i := range quotes {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = outcome{err: ctx.Err()}
				return nil
			}
			outcomes[i] = s.evaluate(ctx, i, quotes[i], from, now)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	// 2. 단일 스레드 reduction: 동점이면 먼저 나온 종목 유지
	res := &Result{
		Universe: len(quotes),
		ByKind:   make(map[contracts.Kind]int),
	}
	for _, o := range outcomes {
		if o.err != nil {
			res.Failures++
			kind, ok := contracts.KindOf(o.err)
			if !ok {
				kind = contracts.KindProviderError
			}
			res.ByKind[kind]++
			continue
		}
		res.Scored++
		if res.Winner == nil || o.cand.Score > res.Winner.Score {
			res.Winner = o.cand
		}
	}
	res.Duration = time.Since(start)

	fields := map[string]interface{}{
		"universe": res.Universe,
		"scored":   res.Scored,
		"failures": res.Failures,
		"duration": res.Duration.String(),
	}
	if res.Winner != nil {
		fields["winner"] = res.Winner.Snapshot.Symbol
		fields["score"] = res.Winner.Score
	}
	s.logger.WithFields(fields).Info("Candidate selection completed")

	return res, nil
}

func (s *Selector) evaluate(ctx context.Context, idx int, q contracts.Quote, from, to time.Time) outcome {
	snap := contracts.NewSnapshot(q)

	if math.IsNaN(snap.Price) || snap.Price <= 0 {
		return s.fail(snap, contracts.Errorf(contracts.KindDataQuality, snap.Symbol, "no usable spot price"))
	}

	bars, err := s.bars.DailyBars(ctx, snap.Symbol, from, to)
	if err != nil {
		return s.fail(snap, contracts.Wrap(contracts.KindProviderError, snap.Symbol, err))
	}
	if len(bars) == 0 {
		return s.fail(snap, contracts.Errorf(contracts.KindDataUnavailable, snap.Symbol, "no bars between %s and %s",
			from.Format(contracts.DateLayout), to.Format(contracts.DateLayout)))
	}

	ind, err := s.calc.FromBars(snap.Symbol, bars)
	if err != nil {
		return s.fail(snap, err)
	}

	return outcome{cand: &Candidate{
		Index:      idx,
		Snapshot:   snap,
		Indicators: ind,
		Score:      s.score(scoring.InputsOf(snap, ind)),
	}}
}

func (s *Selector) fail(snap contracts.Snapshot, err error) outcome {
	s.logger.WithError(err).WithField("symbol", snap.Symbol).Debug("symbol skipped")
	return outcome{err: err}
}
