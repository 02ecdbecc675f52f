package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockpick/internal/pipeline"
	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/pkg/logger"
)

// AnalysisRunner runs one analysis cycle
type AnalysisRunner interface {
	RunAnalysis(ctx context.Context) (*pipeline.AnalysisResult, error)
}

// AnalysisJob picks the day's best candidate after the close
// Schedule: ANALYSIS_TIME (default 15:30)
type AnalysisJob struct {
	runner   AnalysisRunner
	schedule string
	logger   *logger.Logger
}

// NewAnalysisJob creates a new analysis job firing daily at clock (HH:MM)
func NewAnalysisJob(runner AnalysisRunner, clock string, log *logger.Logger) (*AnalysisJob, error) {
	spec, err := scheduler.DailySpec(clock)
	if err != nil {
		return nil, fmt.Errorf("analysis schedule: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisJob{runner: runner, schedule: spec, logger: log}, nil
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "analysis"
}

// Schedule returns the cron schedule
func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes one analysis cycle
func (j *AnalysisJob) Run(ctx context.Context) (string, error) {
	j.logger.Info("Starting scheduled analysis")

	res, err := j.runner.RunAnalysis(ctx)
	if err != nil {
		return "", err
	}
	return SummarizeAnalysis(res), nil
}

// SummarizeAnalysis renders a one-line description of an analysis run
func SummarizeAnalysis(res *pipeline.AnalysisResult) string {
	if res.Record == nil {
		return fmt.Sprintf("%s: %d symbols, %d failed", res.Outcome, res.Universe, res.Failures)
	}
	s := fmt.Sprintf("%s: %s score %.2f, %d/%d failed",
		res.Outcome, res.Record.Symbol, res.Record.Score, res.Failures, res.Universe)
	switch {
	case res.Notified:
		s += ", notified"
	case res.NotifyError != "":
		s += ", notification failed"
	}
	return s
}
