package searchcache

import (
	"context"
	"time"

	"github.com/launchify/search-cache/pkg/models"
	"github.com/launchify/search-cache/pkg/observability"
)

// QuerySource supplies historically popular queries for warming,
// typically backed by the platform's search-event analytics store.
type QuerySource interface {
	PopularQueries(ctx context.Context, window time.Duration, limit int) ([]PopularQuery, error)
}

// SearchExecutor executes the live query path. The warmer calls it to
// produce authoritative results for the entries it pre-populates.
type SearchExecutor func(ctx context.Context, query string, filters map[string]interface{}, uc models.UserContext) ([]CachedResult, error)

// WarmerConfig configures the cache warmer
type WarmerConfig struct {
	// Window is the trailing period popular queries are drawn from
	Window time.Duration `mapstructure:"window"`
	// Limit is the maximum number of popular queries per cycle
	Limit int `mapstructure:"limit"`
	// CycleTimeout bounds one whole warming cycle
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`
}

// DefaultWarmerConfig returns warmer defaults: the top 100 queries over
// the trailing 7 days.
func DefaultWarmerConfig() WarmerConfig {
	return WarmerConfig{
		Window:       7 * 24 * time.Hour,
		Limit:        100,
		CycleTimeout: 5 * time.Minute,
	}
}

// WarmResult summarizes one warming cycle
type WarmResult struct {
	Queries  int
	Warmed   int
	Failed   int
	Duration time.Duration
}

// Warmer pre-populates the cache with historically popular queries,
// grouped by the segment profile they were issued under. Warmed entries
// bypass the minimum-hits policy.
type Warmer struct {
	cache    *Service
	source   QuerySource
	executor SearchExecutor
	config   WarmerConfig
	logger   observability.Logger
	metrics  observability.MetricsClient
}

// NewWarmer creates a cache warmer
func NewWarmer(
	cache *Service,
	source QuerySource,
	executor SearchExecutor,
	config WarmerConfig,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *Warmer {
	if logger == nil {
		logger = observability.NewLogger("searchcache.warmer")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}
	if config.Window <= 0 {
		config.Window = 7 * 24 * time.Hour
	}
	if config.Limit <= 0 {
		config.Limit = 100
	}
	if config.CycleTimeout <= 0 {
		config.CycleTimeout = 5 * time.Minute
	}

	return &Warmer{
		cache:    cache,
		source:   source,
		executor: executor,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// WarmCache runs one warming cycle. A failure warming one entry never
// aborts the rest of the batch.
func (w *Warmer) WarmCache(ctx context.Context) (*WarmResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, w.config.CycleTimeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "search_cache.warm")
	defer span.End()

	queries, err := w.source.PopularQueries(ctx, w.config.Window, w.config.Limit)
	if err != nil {
		return nil, err
	}

	result := &WarmResult{Queries: len(queries)}

	for segment, group := range w.groupBySegment(queries) {
		for _, pq := range group {
			select {
			case <-ctx.Done():
				result.Duration = time.Since(start)
				return result, ctx.Err()
			default:
			}

			if err := w.warmSingle(ctx, pq); err != nil {
				w.logger.Warn("Failed to warm query", map[string]interface{}{
					"query":   pq.Query,
					"segment": segment,
					"error":   err.Error(),
				})
				result.Failed++
				continue
			}
			result.Warmed++
		}
	}

	result.Duration = time.Since(start)

	w.logger.Info("Cache warming completed", map[string]interface{}{
		"queries":          result.Queries,
		"warmed":           result.Warmed,
		"failed":           result.Failed,
		"duration_seconds": result.Duration.Seconds(),
	})
	w.metrics.IncrementCounterWithLabels("search_cache.warmed", float64(result.Warmed), nil)
	w.metrics.RecordHistogram("search_cache.warm_cycle_duration", result.Duration.Seconds(), nil)

	return result, nil
}

// Run executes one cycle and only logs errors, matching the signature
// the scheduler expects.
func (w *Warmer) Run(ctx context.Context) {
	if _, err := w.WarmCache(ctx); err != nil {
		w.logger.Error("Cache warming cycle failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// groupBySegment buckets popular queries by the (user type, tier)
// profile they were issued under, so each group is warmed with a
// context that reproduces its segments.
func (w *Warmer) groupBySegment(queries []PopularQuery) map[string][]PopularQuery {
	groups := make(map[string][]PopularQuery)
	for _, pq := range queries {
		segment := string(pq.UserType) + "/" + string(pq.SubscriptionTier)
		groups[segment] = append(groups[segment], pq)
	}
	return groups
}

func (w *Warmer) warmSingle(ctx context.Context, pq PopularQuery) error {
	uc := models.UserContext{
		UserType:         pq.UserType,
		SubscriptionTier: pq.SubscriptionTier,
	}

	results, err := w.executor(ctx, pq.Query, pq.Filters, uc)
	if err != nil {
		return err
	}

	w.cache.ForceWrite(ctx, pq.Query, pq.Filters, results, uc)
	return nil
}
