package record

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/database"
	"github.com/wonny/stockpick/pkg/logger"
)

// Querier is the subset of pgxpool.Pool the store uses
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS predictions (
		id         BIGSERIAL PRIMARY KEY,
		date       DATE NOT NULL,
		symbol     TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		score      DOUBLE PRECISION NOT NULL,
		price      DOUBLE PRECISION NOT NULL,
		predicted  TEXT NOT NULL,
		rsi        DOUBLE PRECISION NOT NULL DEFAULT 0,
		macd_fast  DOUBLE PRECISION NOT NULL DEFAULT 0,
		macd_slow  DOUBLE PRECISION NOT NULL DEFAULT 0,
		ma5        DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresStore keeps records in the predictions table
// ⭐ SSOT: predictions 테이블 접근은 여기서만
type PostgresStore struct {
	db     Querier
	closer func()
	health func(ctx context.Context) database.HealthStatus
	logger *logger.Logger
}

// NewPostgresStore creates a new postgres-backed store
func NewPostgresStore(db Querier, log *logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &PostgresStore{db: db, logger: log.WithComponent("record.postgres")}
}

// Migrate creates the predictions table when missing
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate predictions: %w", err)
	}
	return nil
}

// Append inserts one record
func (s *PostgresStore) Append(ctx context.Context, rec contracts.PredictionRecord) error {
	date, err := time.Parse(contracts.DateLayout, rec.Date)
	if err != nil {
		return fmt.Errorf("invalid record date %q: %w", rec.Date, err)
	}

	query := `
		INSERT INTO predictions (
			date, symbol, name, score, price, predicted, rsi, macd_fast, macd_slow, ma5
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.Exec(ctx, query,
		date, rec.Symbol, rec.Name, rec.Score, rec.Price,
		string(rec.Predicted), rec.RSI, rec.MACDFast, rec.MACDSlow, rec.MA5,
	)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": rec.Symbol,
		"date":   rec.Date,
	}).Info("prediction record appended")
	return nil
}

// Load returns every record in insertion order
func (s *PostgresStore) Load(ctx context.Context) ([]contracts.PredictionRecord, error) {
	query := `
		SELECT date, symbol, name, score, price, predicted, rsi, macd_fast, macd_slow, ma5
		FROM predictions
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []contracts.PredictionRecord
	for rows.Next() {
		var (
			rec       contracts.PredictionRecord
			date      time.Time
			predicted string
		)
		if err := rows.Scan(&date, &rec.Symbol, &rec.Name, &rec.Score, &rec.Price,
			&predicted, &rec.RSI, &rec.MACDFast, &rec.MACDSlow, &rec.MA5); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Date = date.Format(contracts.DateLayout)
		rec.Predicted, _ = contracts.ParseTrend(predicted)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return out, nil
}

// Close releases the pool when the store owns it
func (s *PostgresStore) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

// HealthCheck reports pool health when the store owns a pool,
// otherwise it probes the querier
func (s *PostgresStore) HealthCheck(ctx context.Context) database.HealthStatus {
	if s.health != nil {
		return s.health(ctx)
	}
	start := time.Now()
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return database.HealthStatus{Error: err.Error()}
	}
	return database.HealthStatus{Healthy: true, ResponseTime: time.Since(start)}
}
