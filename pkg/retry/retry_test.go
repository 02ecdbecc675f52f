package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTimer records every wait and fires immediately
type recordingTimer struct {
	waits []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.waits = append(r.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	timer := &recordingTimer{}
	p := Fixed(3, time.Second)
	p.timer = timer

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timer.waits)
}

func TestDo_Exhausted(t *testing.T) {
	timer := &recordingTimer{}
	var retried []int
	p := Linear(3, 100*time.Millisecond)
	p.timer = timer
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		retried = append(retried, attempt)
	}

	boom := errors.New("smtp down")
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return boom
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, timer.waits)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	bad := errors.New("bad request")
	err := Fixed(5, time.Millisecond).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(bad)
	})

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Fixed(3, time.Hour).Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDo_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Fixed(3, time.Hour).Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryErrorsReachOnRetry(t *testing.T) {
	var seen []string
	p := Fixed(3, 0)
	p.timer = &recordingTimer{}
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		seen = append(seen, err.Error())
	}

	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return fmt.Errorf("attempt %d", attempt)
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "attempt 3", exhausted.Last.Error())
	assert.Equal(t, []string{"attempt 1", "attempt 2"}, seen)
}
