package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/pkg/logger"
)

// JobScheduler is the subset of the scheduler the API uses
type JobScheduler interface {
	GetJobStats() []scheduler.JobStats
	GetJobHistory(jobName string, limit int) ([]scheduler.JobResult, error)
	RunJob(jobName string) error
}

// JobHandler exposes scheduler status and manual triggers
type JobHandler struct {
	scheduler JobScheduler
	logger    *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(s JobScheduler, log *logger.Logger) *JobHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &JobHandler{scheduler: s, logger: log}
}

// List returns per-job statistics
// GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}

// History returns recent runs of a job
// GET /api/jobs/{name}/history?limit=10
func (h *JobHandler) History(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	history, err := h.scheduler.GetJobHistory(name, queryInt(r, "limit", 10))
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve job history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    history,
	})
}

// Run triggers a job in the background
// POST /api/jobs/{name}/run
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	err := h.scheduler.RunJob(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		respondError(w, http.StatusNotFound, "Job not found")
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		respondError(w, http.StatusConflict, "Job already running")
		return
	case err != nil:
		h.logger.WithError(err).WithField("job", name).Error("Failed to trigger job")
		respondError(w, http.StatusInternalServerError, "Failed to trigger job")
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"job":     name,
		"status":  "started",
	})
}
