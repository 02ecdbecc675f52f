package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockpick/internal/pipeline"
	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/pkg/logger"
)

// ValidationRunner runs one validation cycle
type ValidationRunner interface {
	RunValidation(ctx context.Context) (*pipeline.ValidationRun, error)
}

// ValidationJob checks due predictions against realized prices
// Schedule: VALIDATION_TIME (default 18:00)
type ValidationJob struct {
	runner   ValidationRunner
	schedule string
	logger   *logger.Logger
}

// NewValidationJob creates a new validation job firing daily at clock (HH:MM)
func NewValidationJob(runner ValidationRunner, clock string, log *logger.Logger) (*ValidationJob, error) {
	spec, err := scheduler.DailySpec(clock)
	if err != nil {
		return nil, fmt.Errorf("validation schedule: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ValidationJob{runner: runner, schedule: spec, logger: log}, nil
}

// Name returns the job name
func (j *ValidationJob) Name() string {
	return "validation"
}

// Schedule returns the cron schedule
func (j *ValidationJob) Schedule() string {
	return j.schedule
}

// Run executes one validation cycle
func (j *ValidationJob) Run(ctx context.Context) (string, error) {
	j.logger.Info("Starting scheduled validation")

	run, err := j.runner.RunValidation(ctx)
	if err != nil {
		return "", err
	}
	return SummarizeValidation(run), nil
}

// SummarizeValidation renders a one-line description of a validation run
func SummarizeValidation(run *pipeline.ValidationRun) string {
	r := run.Report
	if run.Outcome == pipeline.OutcomeNoResults {
		return fmt.Sprintf("%s: %d records, %d not due, %d unavailable",
			run.Outcome, r.Total, r.NotDue, r.Unavailable)
	}
	return fmt.Sprintf("%s: %d/%d accurate (%.2f%%)", run.Outcome, r.Accurate, r.Evaluated, r.Accuracy)
}
