package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/record"
	"github.com/wonny/stockpick/pkg/logger"
)

// RecordLoader reads the prediction record store
type RecordLoader interface {
	Load(ctx context.Context) ([]contracts.PredictionRecord, error)
}

// ReportValidator evaluates stored predictions without side effects
type ReportValidator interface {
	ValidateAll(ctx context.Context, now time.Time) (*contracts.ValidationReport, error)
}

// PredictionHandler serves read-only access to prediction records
// ⭐ SSOT: 예측 기록 API 핸들러는 이 구조체에서만
type PredictionHandler struct {
	records   RecordLoader
	validator ReportValidator
	now       func() time.Time
	logger    *logger.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(records RecordLoader, validator ReportValidator, log *logger.Logger) *PredictionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PredictionHandler{records: records, validator: validator, now: time.Now, logger: log}
}

// List returns the most recent records, oldest first
// GET /api/predictions?limit=20&symbol=sh600519
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))

	recs, err := h.records.Load(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load prediction records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve prediction records")
		return
	}

	if symbol != "" {
		filtered := make([]contracts.PredictionRecord, 0, len(recs))
		for _, rec := range recs {
			if rec.Symbol == symbol {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	if recs == nil {
		recs = []contracts.PredictionRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"total":   len(recs),
		"data":    record.Tail(recs, limit),
	})
}

// Validation evaluates every due record now. Nothing is sent or stored.
// GET /api/predictions/validation
func (h *PredictionHandler) Validation(w http.ResponseWriter, r *http.Request) {
	if h.validator == nil {
		respondError(w, http.StatusNotImplemented, "Validator not configured")
		return
	}

	report, err := h.validator.ValidateAll(r.Context(), h.now())
	if err != nil {
		h.logger.WithError(err).Error("Failed to validate predictions")
		respondError(w, http.StatusInternalServerError, "Failed to validate predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}
