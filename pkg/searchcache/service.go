package searchcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/launchify/search-cache/pkg/models"
	"github.com/launchify/search-cache/pkg/observability"
)

// Service is the context-aware search result cache. It is safe for
// concurrent use by multiple goroutines.
//
// Caching is a performance optimization, never a correctness
// dependency: every store failure is logged and degrades to a miss or a
// no-op, so callers can always fall back to the live query path. Reads
// and writes are bounded by the configured operation timeout.
type Service struct {
	redis      *ResilientRedisClient
	config     *Config
	normalizer QueryNormalizer
	stats      *StatsTracker
	relevance  *RelevanceChecker
	index      *segmentIndex
	logger     observability.Logger
	metrics    observability.MetricsClient

	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewService creates a search cache backed by the given Redis client.
// The client's lifecycle belongs to the composition root; Close only
// releases what the service itself owns.
func NewService(
	client *redis.Client,
	config *Config,
	logger observability.Logger,
	metrics observability.MetricsClient,
) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NewLogger("searchcache")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}

	resilientClient := NewResilientRedisClient(client, logger, metrics)

	longestTTL := config.Default.TTL
	if config.Premium.TTL > longestTTL {
		longestTTL = config.Premium.TTL
	}

	return &Service{
		redis:      resilientClient,
		config:     config,
		normalizer: NewQueryNormalizer(),
		stats:      NewStatsTracker(resilientClient, config.Prefix, config.StatsTTL, logger.WithPrefix("stats")),
		relevance:  NewRelevanceChecker(config.RelevanceThreshold),
		index:      newSegmentIndex(resilientClient, config.Prefix, longestTTL),
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Read returns the cached result list for a request, or nil on a miss.
//
// A present entry counts as an access for threshold purposes even when
// it fails the relevance check; an irrelevant entry is deleted rather
// than served stale.
func (s *Service) Read(ctx context.Context, query string, filters map[string]interface{}, uc models.UserContext) []CachedResult {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "search_cache.read")
	defer span.End()

	key, segments := s.deriveRequest(query, filters, uc)
	span.SetAttribute("cache_key", key)

	raw, found, err := s.redis.Get(ctx, s.entryKey(key))
	if err != nil {
		s.logger.Warn("Cache read failed, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		s.recordMiss("store_error")
		return nil
	}
	if !found {
		// Pure absence: no stats mutation.
		s.recordMiss("absent")
		return nil
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// Self-heal: drop the undecodable payload so the next write can
		// replace it.
		s.logger.Warn("Dropping malformed cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		if _, delErr := s.redis.Del(ctx, s.entryKey(key)); delErr != nil {
			s.logger.Warn("Failed to delete malformed entry", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		s.recordMiss("malformed")
		return nil
	}

	if err := s.stats.recordAccess(ctx, key, segments); err != nil {
		s.logger.Warn("Failed to record cache access", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	if !s.relevance.IsRelevant(entry.Context.UserSegments, segments) {
		s.recordMiss("irrelevant")
		s.removeEntry(ctx, key, entry.Context.UserSegments)
		return nil
	}

	s.recordHit()
	return entry.Results
}

// Write stores a result set, subject to the minimum-hits policy: keys
// that have not yet accumulated the tier's MinHits accesses are not
// cached, which keeps cold one-off queries out of the cache. The access
// itself is recorded either way, so repeated misses still accumulate
// toward the threshold.
func (s *Service) Write(ctx context.Context, query string, filters map[string]interface{}, results []CachedResult, uc models.UserContext) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "search_cache.write")
	defer span.End()

	key, segments := s.deriveRequest(query, filters, uc)
	cfg := s.config.ForTier(uc.SubscriptionTier)

	stats, err := s.stats.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to load stats, skipping cache write", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if stats.Hits >= cfg.MinHits {
		s.writeEntry(ctx, key, results, segments, uc, cfg)
	}

	if err := s.stats.recordAccess(ctx, key, segments); err != nil {
		s.logger.Warn("Failed to record cache access", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// ForceWrite stores a result set unconditionally, bypassing the
// minimum-hits policy. Used by the warmer: queries that are popular by
// history should not have to earn their way back into the cache after
// an eviction or cold start.
func (s *Service) ForceWrite(ctx context.Context, query string, filters map[string]interface{}, results []CachedResult, uc models.UserContext) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key, segments := s.deriveRequest(query, filters, uc)
	cfg := s.config.ForTier(uc.SubscriptionTier)

	s.writeEntry(ctx, key, results, segments, uc, cfg)

	if err := s.stats.recordAccess(ctx, key, segments); err != nil {
		s.logger.Warn("Failed to record cache access", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Stats returns a snapshot of aggregate cache performance
func (s *Service) Stats(ctx context.Context) *CacheStats {
	hits := s.hitCount.Load()
	misses := s.missCount.Load()

	stats := &CacheStats{
		TotalHits:   hits,
		TotalMisses: misses,
		Timestamp:   time.Now(),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}

	keys, err := s.redis.ScanKeys(ctx, s.entryPattern())
	if err != nil {
		s.logger.Warn("Failed to count cache entries", map[string]interface{}{
			"error": err.Error(),
		})
		return stats
	}
	stats.TotalEntries = len(keys)

	return stats
}

// Health reports whether the backing store is reachable
func (s *Service) Health(ctx context.Context) error {
	if err := s.redis.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the store client owned by the service
func (s *Service) Close() error {
	return s.redis.Close()
}

// Helper methods

func (s *Service) deriveRequest(query string, filters map[string]interface{}, uc models.UserContext) (string, []string) {
	normalized := s.normalizer.Normalize(query)
	segments := DeriveSegments(uc)
	return DeriveKey(normalized, filters, segments), segments
}

func (s *Service) entryKey(key string) string {
	return s.config.Prefix + ":entry:" + key
}

func (s *Service) entryPattern() string {
	return s.config.Prefix + ":entry:*"
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OpTimeout > 0 {
		return context.WithTimeout(ctx, s.config.OpTimeout)
	}
	return ctx, func() {}
}

func (s *Service) writeEntry(ctx context.Context, key string, results []CachedResult, segments []string, uc models.UserContext, cfg TierConfig) {
	entry := CacheEntry{
		Key:     key,
		Results: results,
		Context: EntryContext{
			CachedAt:     time.Now().UnixMilli(),
			UserSegments: segments,
			Metadata: EntryMetadata{
				Industries: uc.Industries,
				Tier:       uc.SubscriptionTier,
			},
		},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("Failed to marshal cache entry, skipping write", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	if err := s.redis.Set(ctx, s.entryKey(key), data, cfg.TTL); err != nil {
		s.logger.Warn("Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	if err := s.index.Add(ctx, key, segments); err != nil {
		s.logger.Warn("Failed to update segment index", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	s.recordWrite()
}

// removeEntry deletes an entry and its segment index memberships
func (s *Service) removeEntry(ctx context.Context, key string, segments []string) {
	if _, err := s.redis.Del(ctx, s.entryKey(key)); err != nil {
		s.logger.Warn("Failed to delete cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := s.index.Remove(ctx, key, segments); err != nil {
		s.logger.Warn("Failed to clean segment index", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Service) recordHit() {
	s.hitCount.Add(1)
	if s.config.EnableMetrics {
		s.metrics.IncrementCounterWithLabels("search_cache.hit", 1, nil)
	}
}

func (s *Service) recordMiss(missType string) {
	s.missCount.Add(1)
	if s.config.EnableMetrics {
		s.metrics.IncrementCounterWithLabels("search_cache.miss", 1, map[string]string{
			"type": missType,
		})
	}
}

func (s *Service) recordWrite() {
	if s.config.EnableMetrics {
		s.metrics.IncrementCounterWithLabels("search_cache.write", 1, nil)
	}
}

// entryForKey loads and decodes an entry by its already-derived key
func (s *Service) entryForKey(ctx context.Context, key string) (*CacheEntry, error) {
	raw, found, err := s.redis.Get(ctx, s.entryKey(key))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	return &entry, nil
}
