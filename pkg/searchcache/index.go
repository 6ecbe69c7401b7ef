package searchcache

import (
	"context"
	"time"
)

// segmentIndex is the reverse index from segment to the cache keys
// written under it. Cache keys are content hashes with no segment
// prefix, so invalidating "everything touching segment X" cannot be a
// key-pattern scan; the index makes it O(entries-for-segment) instead.
//
// Index sets carry their own TTL, re-armed on every write, so an index
// for a segment that stops receiving writes ages out on its own.
// Members whose entries expired early are dropped when the index is
// swept by invalidation.
type segmentIndex struct {
	redis  *ResilientRedisClient
	prefix string
	ttl    time.Duration
}

func newSegmentIndex(redis *ResilientRedisClient, prefix string, entryTTL time.Duration) *segmentIndex {
	return &segmentIndex{
		redis:  redis,
		prefix: prefix,
		// Outlive the longest-lived entries so the index never expires
		// from under a live entry.
		ttl: 2 * entryTTL,
	}
}

func (ix *segmentIndex) indexKey(segment string) string {
	return ix.prefix + ":segments:" + segment
}

// Add registers a cache key under each of its segments
func (ix *segmentIndex) Add(ctx context.Context, cacheKey string, segments []string) error {
	for _, segment := range segments {
		key := ix.indexKey(segment)
		if err := ix.redis.SAdd(ctx, key, cacheKey); err != nil {
			return err
		}
		if err := ix.redis.Expire(ctx, key, ix.ttl); err != nil {
			return err
		}
	}
	return nil
}

// Remove unregisters a cache key from each of its segments
func (ix *segmentIndex) Remove(ctx context.Context, cacheKey string, segments []string) error {
	for _, segment := range segments {
		if err := ix.redis.SRem(ctx, ix.indexKey(segment), cacheKey); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns all cache keys registered under a segment
func (ix *segmentIndex) Keys(ctx context.Context, segment string) ([]string, error) {
	return ix.redis.SMembers(ctx, ix.indexKey(segment))
}

// Drop deletes the whole index set for a segment
func (ix *segmentIndex) Drop(ctx context.Context, segment string) error {
	_, err := ix.redis.Del(ctx, ix.indexKey(segment))
	return err
}
