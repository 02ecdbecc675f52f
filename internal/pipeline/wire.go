package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/stockpick/internal/indicator"
	"github.com/wonny/stockpick/internal/market"
	"github.com/wonny/stockpick/internal/notify"
	"github.com/wonny/stockpick/internal/provider/eastmoney"
	"github.com/wonny/stockpick/internal/record"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/internal/validation"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/redis"
)

// App holds the wired production collaborators
type App struct {
	Pipeline  *Pipeline
	Store     record.Store
	Provider  *eastmoney.Client
	Notifier  *notify.Notifier
	Validator *validation.Validator

	redis *redis.Client
}

// Build wires the pipeline from config
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	rdb, err := redis.New(cfg)
	if err != nil {
		// 캐시는 선택 사항
		log.WithError(err).Warn("redis unavailable, bar cache disabled")
		rdb = &redis.Client{}
	}

	store, err := record.Open(ctx, cfg, log)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open record store: %w", err)
	}

	provider := eastmoney.New(cfg, httputil.New(cfg, log), redis.NewCache(rdb, "stockpick"), log)
	notifier := notify.New(cfg.SMTP, nil, log)
	validator := validation.NewValidator(store, provider, cfg.Pipeline.ForecastDays, cfg.Location(), log.Zerolog())

	deps := Deps{
		Quotes: provider,
		Selector: selection.NewSelector(provider, indicator.NewEngine(log), nil, selection.Config{
			HistoryDays: cfg.Pipeline.HistoryDays,
			Workers:     cfg.Pipeline.Concurrency,
		}, log),
		Market:    market.NewChecker(provider, cfg.Pipeline.MarketIndex, log),
		Records:   store,
		Validator: validator,
		Notifier:  notifier,
	}

	return &App{
		Pipeline:  New(deps, cfg.Location(), log),
		Store:     store,
		Provider:  provider,
		Notifier:  notifier,
		Validator: validator,
		redis:     rdb,
	}, nil
}

// CacheEnabled reports whether the Redis bar cache is live
func (a *App) CacheEnabled() bool {
	return a.redis.Enabled()
}

// Close releases the store and cache connections
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
