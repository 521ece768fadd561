package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(opts ...Option) *Retrier {
	base := []Option{
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithJitter(0),
	}
	return New(append(base, opts...)...)
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	err := fastRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetryableSucceedsEventually(t *testing.T) {
	attempts := 0
	err := fastRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_RetryableExhaustsAttempts(t *testing.T) {
	cause := errors.New("still down")
	attempts := 0
	err := fastRetrier(WithMaxAttempts(4)).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(cause)
	})

	// The final error is unwrapped back to the cause.
	assert.Equal(t, cause, err)
	assert.Equal(t, 4, attempts)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	cause := errors.New("not found")
	attempts := 0
	err := fastRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_PlainErrorNotRetried(t *testing.T) {
	cause := errors.New("unclassified")
	attempts := 0
	err := fastRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetryIfOverride(t *testing.T) {
	cause := errors.New("timeout")
	attempts := 0
	err := fastRetrier(
		WithMaxAttempts(3),
		WithRetryIf(func(err error) bool { return err.Error() == "timeout" }),
	).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := New(WithInitialDelay(time.Hour), WithJitter(0)).Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return Retryable(errors.New("transient"))
	})

	// Cancellation during backoff returns the last operation error.
	require.Error(t, err)
	assert.Equal(t, "transient", err.Error())
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := fastRetrier().Do(ctx, func(ctx context.Context) error {
		attempts++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var retryAttempts []int
	err := fastRetrier(
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retryAttempts = append(retryAttempts, attempt)
		}),
	).Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errors.New("transient"))
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, retryAttempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	result, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", Retryable(errors.New("transient"))
		}
		return "payload", nil
	}, WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryableAndIsPermanent(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(cause))
	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(Retryable(cause)))

	// Wrapping preserves errors.Is on the cause.
	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)

	// Nil stays nil.
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestBackoffDelays(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(300*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.backoff(1))
	assert.Equal(t, 200*time.Millisecond, r.backoff(2))

	// Capped at the max delay.
	assert.Equal(t, 300*time.Millisecond, r.backoff(3))
	assert.Equal(t, 300*time.Millisecond, r.backoff(10))
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 3, CatalogRetrier().config.MaxAttempts)
	assert.Equal(t, 3, DatabaseRetrier().config.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, DatabaseRetrier().config.InitialDelay)
}
