package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Policy is a bounded-retry, linear back-off policy
// ⭐ SSOT: 재시도 로직은 여기서만 (데이터 조회, 메일 발송 공용)
//
// Attempt n (1-based) failing is followed by a wait of Delay*n when Linear
// is set, or a fixed Delay otherwise. Attempts <= 0 is treated as 1.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Linear   bool

	// OnRetry is called after every failed attempt that will be retried
	OnRetry func(attempt int, err error, wait time.Duration)

	// timer is swapped in tests
	timer retrygo.Timer
}

// Fixed returns a policy with constant back-off
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: delay}
}

// Linear returns a policy whose back-off grows by delay each attempt
func Linear(attempts int, delay time.Duration) Policy {
	return Policy{Attempts: attempts, Delay: delay, Linear: true}
}

// permanent marks an error that must not be retried
type permanent struct {
	err error
}

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do stops immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do runs fn until it succeeds, returns a permanent error, the context
// ends, or the attempts are used up.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		attempt int
		lastErr error
		permErr error
	)

	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(attempts)),
		retrygo.LastErrorOnly(true),
		retrygo.DelayType(func(_ uint, _ error, _ *retrygo.Config) time.Duration {
			wait := p.backoff(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt, lastErr, wait)
			}
			return wait
		}),
	}
	if p.timer != nil {
		opts = append(opts, retrygo.WithTimer(p.timer))
	}

	err := retrygo.Do(func() error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var perm *permanent
		if errors.As(err, &perm) {
			permErr = perm.err
			return retrygo.Unrecoverable(perm.err)
		}
		lastErr = err
		return err
	}, opts...)

	switch {
	case err == nil:
		return nil
	case permErr != nil:
		return permErr
	case attempt >= attempts && lastErr != nil:
		return &ExhaustedError{Attempts: attempts, Last: lastErr}
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return err
	}
}

func (p Policy) backoff(attempt int) time.Duration {
	if p.Linear {
		return p.Delay * time.Duration(attempt)
	}
	return p.Delay
}
