package record

import (
	"context"
	"fmt"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/database"
	"github.com/wonny/stockpick/pkg/logger"
)

// Store is the append-only prediction record store
// ⭐ SSOT: 레코드는 추가만 가능, 수정/삭제 없음
type Store interface {
	Append(ctx context.Context, rec contracts.PredictionRecord) error
	Load(ctx context.Context) ([]contracts.PredictionRecord, error)
	Close() error
}

// Open builds the store selected by RECORD_STORE
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	switch cfg.Records.Driver {
	case "", "csv":
		return NewCSVStore(cfg.Records.Path, log), nil
	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres record store: %w", err)
		}
		store := NewPostgresStore(db.Pool, log)
		store.closer = db.Close
		store.health = db.HealthCheck
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown record store driver %q", cfg.Records.Driver)
	}
}

// Tail returns the last n records, all of them when n <= 0
func Tail(recs []contracts.PredictionRecord, n int) []contracts.PredictionRecord {
	if n <= 0 || n >= len(recs) {
		return recs
	}
	return recs[len(recs)-n:]
}
