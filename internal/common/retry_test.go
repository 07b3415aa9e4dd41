package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Transient(errors.New("temporary"))
		}
		return nil
	}, fastRetry)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return Transient(errors.New("still down"))
	}, fastRetry)

	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorContains(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &RetryableError{Err: errors.New("bad request"), Retryable: false}
	err := WithRetry(context.Background(), func() error {
		calls++
		return permanent
	}, fastRetry)

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_UnclassifiedErrorNotRetried(t *testing.T) {
	calls := 0
	plain := errors.New("bad input")
	err := WithRetry(context.Background(), func() error {
		calls++
		return plain
	}, fastRetry)

	assert.Same(t, plain, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RateLimitWaitsMaxDelay(t *testing.T) {
	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return ErrRateLimit
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 20 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error { return Transient(errors.New("fail")) }, service.RetryOptions{
		MaxAttempts:  5,
		InitialDelay: time.Second,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x")}))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(Permanent(context.DeadlineExceeded)))
	assert.True(t, IsRetryable(Transient(errors.New("x"))))
	assert.Nil(t, Transient(nil))
	assert.Nil(t, Permanent(nil))
}

func TestUserMessage(t *testing.T) {
	err := NewUserError("이미 존재하는 항목입니다.", ErrDuplicateCategory)
	assert.Equal(t, "이미 존재하는 항목입니다.", UserMessage(err))
	assert.ErrorIs(t, err, ErrDuplicateCategory)
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}
