package jobs

import (
	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/pkg/logger"
)

// Runner runs both daily cycles
type Runner interface {
	AnalysisRunner
	ValidationRunner
}

// Register adds both daily jobs to s
func Register(s *scheduler.Scheduler, p Runner, analysisClock, validationClock string, log *logger.Logger) error {
	analysis, err := NewAnalysisJob(p, analysisClock, log)
	if err != nil {
		return err
	}
	validation, err := NewValidationJob(p, validationClock, log)
	if err != nil {
		return err
	}
	if err := s.AddJob(analysis); err != nil {
		return err
	}
	return s.AddJob(validation)
}
