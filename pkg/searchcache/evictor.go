package searchcache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/launchify/search-cache/pkg/observability"
)

// EvictorConfig configures the size optimizer
type EvictorConfig struct {
	// MaxEntries is the soft cap on total cached entries; zero falls
	// back to the default tier's MaxSize
	MaxEntries int `mapstructure:"max_entries"`
	// BatchSize bounds each deletion round-trip
	BatchSize int `mapstructure:"batch_size"`
}

// SizeOptimizer enforces a soft cap on the cache population. When the
// live entry count exceeds the cap it scores every entry and evicts the
// lowest scorers down to the cap. The cap is enforced periodically, not
// per write; transient overshoot between runs is acceptable.
type SizeOptimizer struct {
	cache   *Service
	config  EvictorConfig
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewSizeOptimizer creates a size optimizer for the given cache
func NewSizeOptimizer(
	cache *Service,
	config EvictorConfig,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *SizeOptimizer {
	if logger == nil {
		logger = observability.NewLogger("searchcache.evictor")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = cache.config.Default.MaxSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &SizeOptimizer{
		cache:   cache,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

type scoredEntry struct {
	key   string
	score float64
}

// OptimizeCacheSize runs one eviction cycle. Enumeration or deletion
// failures leave partial eviction behind; the next scheduled run
// retries.
func (o *SizeOptimizer) OptimizeCacheSize(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "search_cache.optimize_size")
	defer span.End()

	entryKeys, err := o.cache.redis.ScanKeys(ctx, o.cache.entryPattern())
	if err != nil {
		return err
	}

	if len(entryKeys) <= o.config.MaxEntries {
		return nil
	}

	toEvict := len(entryKeys) - o.config.MaxEntries

	scored := make([]scoredEntry, 0, len(entryKeys))
	now := time.Now()
	prefix := o.cache.config.Prefix + ":entry:"

	for _, entryKey := range entryKeys {
		key := strings.TrimPrefix(entryKey, prefix)
		scored = append(scored, scoredEntry{
			key:   key,
			score: o.score(ctx, key, now),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})

	evicted := 0
	for _, candidate := range scored[:toEvict] {
		// Read the entry for its segment memberships before deleting,
		// so the reverse index does not accumulate dead keys.
		entry, err := o.cache.entryForKey(ctx, candidate.key)
		if err != nil {
			o.logger.Warn("Could not decode entry during eviction", map[string]interface{}{
				"key":   candidate.key,
				"error": err.Error(),
			})
		}

		var segments []string
		if entry != nil {
			segments = entry.Context.UserSegments
		}
		o.cache.removeEntry(ctx, candidate.key, segments)
		evicted++
	}

	o.logger.Info("Completed eviction cycle", map[string]interface{}{
		"live_entries": len(entryKeys),
		"max_entries":  o.config.MaxEntries,
		"evicted":      evicted,
	})
	o.metrics.IncrementCounterWithLabels("search_cache.evictions", float64(evicted), map[string]string{
		"reason": "size_limit",
	})

	return nil
}

// Run executes one cycle and only logs errors, matching the signature
// the scheduler expects.
func (o *SizeOptimizer) Run(ctx context.Context) {
	if err := o.OptimizeCacheSize(ctx); err != nil {
		o.logger.Error("Eviction cycle failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// score ranks an entry by hits against age: frequently hit entries
// survive, idle ones decay by the hour.
func (o *SizeOptimizer) score(ctx context.Context, key string, now time.Time) float64 {
	stats, err := o.cache.stats.Get(ctx, key)
	if err != nil {
		// Unknown stats rank lowest so unreadable entries go first.
		return -1
	}

	ageHours := now.Sub(stats.LastAccessed).Hours()
	return float64(stats.Hits)*10 - ageHours
}
