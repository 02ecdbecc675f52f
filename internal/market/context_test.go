package market

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

func TestChange5(t *testing.T) {
	tests := []struct {
		name    string
		closes  []float64
		want    float64
		wantErr bool
	}{
		{"flat", []float64{100, 100, 100, 100, 100}, 0, false},
		{"down 3%", []float64{90, 100, 99, 98, 98, 97}, -0.03, false},
		{"up", []float64{100, 101, 102, 103, 110}, 0.10, false},
		{"too short", []float64{1, 2, 3, 4}, 0, true},
		{"zero base", []float64{0, 1, 2, 3, 4}, 0, true},
		{"NaN last", []float64{100, 101, 102, 103, math.NaN()}, 0, true},
		{"NaN base", []float64{math.NaN(), 101, 102, 103, 104}, 0, true},
		{"NaN in between", []float64{100, math.NaN(), 102, 103, 110}, 0.10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Change5(tt.closes)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate(t *testing.T) {
	mc, err := Evaluate("sh000001", []float64{3000, 3000, 2990, 2950, 2920})
	require.NoError(t, err)
	assert.True(t, mc.SharpDown)

	mc, err = Evaluate("sh000001", []float64{3000, 3000, 2990, 2950, 2950})
	require.NoError(t, err)
	assert.False(t, mc.SharpDown) // -1.67%

	_, err = Evaluate("sh000001", nil)
	assert.True(t, contracts.IsKind(err, contracts.KindInsufficientData))

	// 마지막 종가 누락 ("-")
	_, err = Evaluate("sh000001", []float64{3000, 3000, 2990, 2950, math.NaN()})
	assert.True(t, contracts.IsKind(err, contracts.KindDataQuality))
	assert.ErrorIs(t, err, ErrUndefinedClose)
}

type fakeIndex struct {
	closes []float64
	err    error
}

func (f fakeIndex) IndexBars(ctx context.Context, index string, start, end time.Time) ([]contracts.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars := make([]contracts.Bar, len(f.closes))
	for i, c := range f.closes {
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return bars, nil
}

func TestChecker(t *testing.T) {
	now := time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC)

	c := NewChecker(fakeIndex{closes: []float64{3100, 3050, 3000, 3000, 2990, 2900}}, "sh000001", logger.NewNop())
	mc, err := c.Check(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "sh000001", mc.Index)
	assert.True(t, mc.SharpDown)

	c = NewChecker(fakeIndex{closes: []float64{3100, 3050, 3000, 3000, 2990, math.NaN()}}, "sh000001", nil)
	_, err = c.Check(context.Background(), now)
	assert.True(t, contracts.IsKind(err, contracts.KindDataQuality))

	c = NewChecker(fakeIndex{err: errors.New("timeout")}, "sh000001", nil)
	_, err = c.Check(context.Background(), now)
	assert.True(t, contracts.IsKind(err, contracts.KindProviderError))
}
