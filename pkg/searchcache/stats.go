package searchcache

import (
	"context"
	"strconv"
	"time"

	"github.com/launchify/search-cache/pkg/models"
	"github.com/launchify/search-cache/pkg/observability"
)

const (
	statsFieldHits         = "hits"
	statsFieldLastAccessed = "last_accessed"
)

// StatsTracker maintains per-key access statistics in Redis: a hash for
// the hit counter and last-access timestamp, plus a set accumulating
// every segment list seen for the key.
//
// Counters use HINCRBY and segment accumulation uses SADD, so concurrent
// accesses on the same key never lose updates to a read-modify-write
// race. Every update re-arms a fixed TTL window: stats for an actively
// hit key never expire while traffic continues.
type StatsTracker struct {
	redis  *ResilientRedisClient
	prefix string
	ttl    time.Duration
	logger observability.Logger
}

// NewStatsTracker creates a stats tracker. ttl is the re-armed expiry
// window for stats keys.
func NewStatsTracker(redis *ResilientRedisClient, prefix string, ttl time.Duration, logger observability.Logger) *StatsTracker {
	if logger == nil {
		logger = observability.NewLogger("searchcache.stats")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &StatsTracker{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (t *StatsTracker) statsKey(key string) string {
	return t.prefix + ":stats:" + key
}

func (t *StatsTracker) segmentsKey(key string) string {
	return t.prefix + ":stats:" + key + ":segments"
}

// Get returns the stats record for a key. A key with no recorded
// accesses yields a zero-valued record, never an error for pure absence.
func (t *StatsTracker) Get(ctx context.Context, key string) (*KeyStats, error) {
	fields, err := t.redis.HGetAll(ctx, t.statsKey(key))
	if err != nil {
		return nil, err
	}

	stats := &KeyStats{
		LastAccessed: time.Now(),
		UserSegments: []string{},
	}

	if len(fields) == 0 {
		return stats, nil
	}

	if v, ok := fields[statsFieldHits]; ok {
		if hits, err := strconv.ParseInt(v, 10, 64); err == nil {
			stats.Hits = hits
		}
	}
	if v, ok := fields[statsFieldLastAccessed]; ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			stats.LastAccessed = time.UnixMilli(ms)
		}
	}

	segments, err := t.redis.SMembers(ctx, t.segmentsKey(key))
	if err != nil {
		t.logger.Warn("Failed to load accumulated segments", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return stats, nil
	}
	stats.UserSegments = segments

	return stats, nil
}

// RecordAccess increments the hit counter, refreshes the last-access
// timestamp, unions in the requester's derived segments, and re-arms
// the stats TTL.
func (t *StatsTracker) RecordAccess(ctx context.Context, key string, uc models.UserContext) error {
	return t.recordAccess(ctx, key, DeriveSegments(uc))
}

func (t *StatsTracker) recordAccess(ctx context.Context, key string, segments []string) error {
	statsKey := t.statsKey(key)
	segmentsKey := t.segmentsKey(key)

	if _, err := t.redis.HIncrBy(ctx, statsKey, statsFieldHits, 1); err != nil {
		return err
	}
	if err := t.redis.HSet(ctx, statsKey, statsFieldLastAccessed, time.Now().UnixMilli()); err != nil {
		return err
	}

	if len(segments) > 0 {
		members := make([]interface{}, len(segments))
		for i, s := range segments {
			members[i] = s
		}
		if err := t.redis.SAdd(ctx, segmentsKey, members...); err != nil {
			return err
		}
		if err := t.redis.Expire(ctx, segmentsKey, t.ttl); err != nil {
			return err
		}
	}

	return t.redis.Expire(ctx, statsKey, t.ttl)
}

// Delete drops the stats record for a key. Used when stats were seeded
// synthetically and need to be withdrawn; routine expiry is TTL-driven.
func (t *StatsTracker) Delete(ctx context.Context, key string) error {
	_, err := t.redis.Del(ctx, t.statsKey(key), t.segmentsKey(key))
	return err
}
