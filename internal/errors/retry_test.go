package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhausted(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return stderrors.New("always fails")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus MaxRetries")
	assert.Contains(t, err.Error(), "failed after 2 retries")
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		t.Fatal("function should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithResult(t *testing.T) {
	attempts := 0
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", New(ErrCodeBackendUnavailable, "unreachable", nil)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithResultStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		attempts++
		return 0, InvalidArgument("caller bug")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "caller bugs are never retried")
	assert.Equal(t, ErrCodeInvalidArgument, GetCode(err))
}
