package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/pipeline"
	"github.com/wonny/stockpick/internal/scheduler"
)

type fakeRunner struct {
	analysis   *pipeline.AnalysisResult
	validation *pipeline.ValidationRun
	err        error
}

func (f *fakeRunner) RunAnalysis(ctx context.Context) (*pipeline.AnalysisResult, error) {
	return f.analysis, f.err
}

func (f *fakeRunner) RunValidation(ctx context.Context) (*pipeline.ValidationRun, error) {
	return f.validation, f.err
}

func TestSummarizeAnalysis(t *testing.T) {
	tests := []struct {
		name string
		res  *pipeline.AnalysisResult
		want string
	}{
		{
			name: "no winner",
			res:  &pipeline.AnalysisResult{Outcome: pipeline.OutcomeNoWinner, Universe: 3, Failures: 3},
			want: "no_winner: 3 symbols, 3 failed",
		},
		{
			name: "winner below gate",
			res: &pipeline.AnalysisResult{
				Outcome: pipeline.OutcomeWinner, Universe: 3, Failures: 1,
				Record: &contracts.PredictionRecord{Symbol: "sh600002", Score: 90},
			},
			want: "winner: sh600002 score 90.00, 1/3 failed",
		},
		{
			name: "notified",
			res: &pipeline.AnalysisResult{
				Outcome: pipeline.OutcomeWinner, Universe: 3, Failures: 2, Notified: true,
				Record: &contracts.PredictionRecord{Symbol: "sh600001", Score: 80},
			},
			want: "winner: sh600001 score 80.00, 2/3 failed, notified",
		},
		{
			name: "notification failed",
			res: &pipeline.AnalysisResult{
				Outcome: pipeline.OutcomeWinner, Universe: 3, NotifyError: "smtp timeout",
				Record: &contracts.PredictionRecord{Symbol: "sh600001", Score: 80},
			},
			want: "winner: sh600001 score 80.00, 0/3 failed, notification failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeAnalysis(tt.res))
		})
	}
}

func TestSummarizeValidation(t *testing.T) {
	none := &pipeline.ValidationRun{
		Outcome: pipeline.OutcomeNoResults,
		Report:  &contracts.ValidationReport{Total: 4, NotDue: 3, Unavailable: 1},
	}
	assert.Equal(t, "no_results: 4 records, 3 not due, 1 unavailable", SummarizeValidation(none))

	done := &pipeline.ValidationRun{
		Outcome: pipeline.OutcomeValidated,
		Report:  &contracts.ValidationReport{Evaluated: 4, Accurate: 3, Accuracy: 75},
	}
	assert.Equal(t, "validated: 3/4 accurate (75.00%)", SummarizeValidation(done))
}

func TestNewJobs(t *testing.T) {
	r := &fakeRunner{}

	a, err := NewAnalysisJob(r, "15:30", nil)
	require.NoError(t, err)
	assert.Equal(t, "analysis", a.Name())
	assert.Equal(t, "0 30 15 * * *", a.Schedule())

	v, err := NewValidationJob(r, "18:00", nil)
	require.NoError(t, err)
	assert.Equal(t, "validation", v.Name())
	assert.Equal(t, "0 0 18 * * *", v.Schedule())

	_, err = NewAnalysisJob(r, "3pm", nil)
	assert.Error(t, err)
	_, err = NewValidationJob(r, "", nil)
	assert.Error(t, err)
}

func TestRun_PropagatesRunLevelError(t *testing.T) {
	r := &fakeRunner{err: errors.New("fetch universe: provider down")}
	a, err := NewAnalysisJob(r, "15:30", nil)
	require.NoError(t, err)

	summary, err := a.Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, summary)
}

func TestRegister(t *testing.T) {
	r := &fakeRunner{
		validation: &pipeline.ValidationRun{
			Outcome: pipeline.OutcomeNoResults,
			Report:  &contracts.ValidationReport{Total: 1, NotDue: 1},
		},
	}
	s := scheduler.New(time.UTC, nil)
	require.NoError(t, Register(s, r, "15:30", "18:00", nil))
	assert.Equal(t, []string{"analysis", "validation"}, s.GetAllJobs())

	res, err := s.RunNow(context.Background(), "validation")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "no_results: 1 records, 1 not due, 0 unavailable", res.Summary)

	assert.Error(t, Register(scheduler.New(time.UTC, nil), r, "15:30", "bad", nil))
}
