// Package resilience provides circuit breaking and retry policies for
// calls to backing stores. The cache treats its stores as optional
// collaborators, so both primitives exist to fail fast and degrade
// rather than to guarantee delivery.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/launchify/search-cache/pkg/observability"
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	MaxRequestsHalfOpen uint32        `mapstructure:"max_requests_half_open"`
	Interval            time.Duration `mapstructure:"interval"`
	ResetTimeout        time.Duration `mapstructure:"reset_timeout"`
	FailureRatio        float64       `mapstructure:"failure_ratio"`
	MinimumRequestCount uint32        `mapstructure:"minimum_request_count"`
}

// DefaultCircuitBreakerConfig returns production defaults tuned for a
// fast key-value store dependency.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequestsHalfOpen: 5,
		Interval:            30 * time.Second,
		ResetTimeout:        30 * time.Second,
		FailureRatio:        0.6,
		MinimumRequestCount: 10,
	}
}

// CircuitBreaker wraps gobreaker with logging and metrics on state changes
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewCircuitBreaker creates a named circuit breaker
func NewCircuitBreaker(
	name string,
	config CircuitBreakerConfig,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *CircuitBreaker {
	if logger == nil {
		logger = observability.NewLogger("resilience.circuit_breaker")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}

	if config.MaxRequestsHalfOpen == 0 {
		config.MaxRequestsHalfOpen = 5
	}
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.ResetTimeout == 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.FailureRatio == 0 {
		config.FailureRatio = 0.6
	}
	if config.MinimumRequestCount == 0 {
		config.MinimumRequestCount = 10
	}

	cb := &CircuitBreaker{
		name:    name,
		logger:  logger,
		metrics: metrics,
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequestsHalfOpen,
		Interval:    config.Interval,
		Timeout:     config.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= config.MinimumRequestCount && failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cb.logger.Warn("Circuit breaker state change", map[string]interface{}{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
			cb.metrics.IncrementCounterWithLabels("circuit_breaker.state_change", 1, map[string]string{
				"name": name,
				"to":   to.String(),
			})
		},
	}

	cb.breaker = gobreaker.NewCircuitBreaker(settings)
	return cb
}

// Execute runs fn through the circuit breaker. When the breaker is open
// the call fails immediately with gobreaker.ErrOpenState.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cb.breaker.Execute(fn)
}

// State returns the current breaker state
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}
