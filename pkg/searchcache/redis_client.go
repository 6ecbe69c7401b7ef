package searchcache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/launchify/search-cache/pkg/observability"
	"github.com/launchify/search-cache/pkg/resilience"
)

// ResilientRedisClient wraps the Redis client with circuit breaker and
// retry logic. A key miss is never treated as a failure: it must not
// trip the breaker or burn retries.
type ResilientRedisClient struct {
	client  *redis.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewResilientRedisClient creates a resilient Redis client with the
// default breaker and retry policies.
func NewResilientRedisClient(
	client *redis.Client,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *ResilientRedisClient {
	if logger == nil {
		logger = observability.NewLogger("searchcache.redis")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}

	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.RetryIf = func(err error) bool {
		return err != context.Canceled && err != context.DeadlineExceeded
	}

	return &ResilientRedisClient{
		client:  client,
		breaker: resilience.NewCircuitBreaker("search_cache_redis", resilience.DefaultCircuitBreakerConfig(), logger, metrics),
		retry:   retryConfig,
		logger:  logger,
		metrics: metrics,
	}
}

// Get retrieves a value. The second return value reports whether the
// key existed.
func (r *ResilientRedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	type getResult struct {
		value string
		found bool
	}

	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() (getResult, error) {
			val, err := r.client.Get(ctx, key).Result()
			if err == redis.Nil {
				return getResult{}, nil
			}
			if err != nil {
				return getResult{}, err
			}
			return getResult{value: val, found: true}, nil
		})
	})
	if err != nil {
		return "", false, err
	}

	res := result.(getResult)
	return res.value, res.found, nil
}

// Set stores a value with an expiry
func (r *ResilientRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, r.retry, func() error {
			return r.client.Set(ctx, key, value, expiration).Err()
		})
	})
	return err
}

// Del deletes keys and returns the number removed
func (r *ResilientRedisClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() (int64, error) {
			return r.client.Del(ctx, keys...).Result()
		})
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// HIncrBy atomically increments a hash field
func (r *ResilientRedisClient) HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() (int64, error) {
			return r.client.HIncrBy(ctx, key, field, incr).Result()
		})
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// HSet sets hash fields
func (r *ResilientRedisClient) HSet(ctx context.Context, key string, values ...interface{}) error {
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, r.retry, func() error {
			return r.client.HSet(ctx, key, values...).Err()
		})
	})
	return err
}

// HGetAll returns all fields of a hash; an absent key yields an empty map
func (r *ResilientRedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() (map[string]string, error) {
			return r.client.HGetAll(ctx, key).Result()
		})
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}

// SAdd adds members to a set
func (r *ResilientRedisClient) SAdd(ctx context.Context, key string, members ...interface{}) error {
	if len(members) == 0 {
		return nil
	}
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, r.retry, func() error {
			return r.client.SAdd(ctx, key, members...).Err()
		})
	})
	return err
}

// SRem removes members from a set
func (r *ResilientRedisClient) SRem(ctx context.Context, key string, members ...interface{}) error {
	if len(members) == 0 {
		return nil
	}
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, r.retry, func() error {
			return r.client.SRem(ctx, key, members...).Err()
		})
	})
	return err
}

// SMembers returns all members of a set; an absent key yields an empty slice
func (r *ResilientRedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() ([]string, error) {
			return r.client.SMembers(ctx, key).Result()
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Expire sets a key's TTL
func (r *ResilientRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, r.retry, func() error {
			return r.client.Expire(ctx, key, expiration).Err()
		})
	})
	return err
}

// Exists reports how many of the given keys exist
func (r *ResilientRedisClient) Exists(ctx context.Context, keys ...string) (int64, error) {
	result, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, r.retry, func() (int64, error) {
			return r.client.Exists(ctx, keys...).Result()
		})
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// ScanKeys collects all keys matching a glob pattern using SCAN so the
// server is never blocked by a full keyspace walk.
func (r *ResilientRedisClient) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// Health checks whether Redis is reachable
func (r *ResilientRedisClient) Health(ctx context.Context) error {
	_, err := r.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	return err
}

// Close closes the underlying Redis client
func (r *ResilientRedisClient) Close() error {
	return r.client.Close()
}
