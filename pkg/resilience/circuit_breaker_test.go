package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchify/search-cache/pkg/observability"
)

func testBreaker(t *testing.T) *CircuitBreaker {
	t.Helper()
	return NewCircuitBreaker("test", CircuitBreakerConfig{
		MaxRequestsHalfOpen: 1,
		Interval:            time.Minute,
		ResetTimeout:        time.Minute,
		FailureRatio:        0.5,
		MinimumRequestCount: 3,
	}, observability.NewNoopLogger(), nil)
}

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	cb := testBreaker(t)

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := testBreaker(t)
	boom := errors.New("store down")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		t.Fatal("open breaker must not execute the call")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreaker_CancelledContextShortCircuits(t *testing.T) {
	cb := testBreaker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Fatal("cancelled context must not execute the call")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCircuitBreaker_ZeroConfigGetsDefaults(t *testing.T) {
	cb := NewCircuitBreaker("defaults", CircuitBreakerConfig{}, nil, nil)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
