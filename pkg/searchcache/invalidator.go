package searchcache

import (
	"context"

	"github.com/launchify/search-cache/pkg/models"
	"github.com/launchify/search-cache/pkg/observability"
)

// Selector picks what to invalidate. Exactly one field must be set per
// call.
type Selector struct {
	// Key deletes a single entry by its derived cache key
	Key string
	// Pattern deletes every entry whose full Redis key matches the glob
	Pattern string
	// UserContext deletes every entry registered under any of the
	// user's derived segments. Coarse and potentially expensive; meant
	// for "this user's world materially changed" events such as a
	// profile edit or tier upgrade, not routine traffic.
	UserContext *models.UserContext
}

const invalidateBatchSize = 500

// Invalidate removes cached entries matching the selector. It is
// idempotent: invalidating an already-absent key or pattern is a no-op,
// never an error.
func (s *Service) Invalidate(ctx context.Context, sel Selector) error {
	modes := 0
	if sel.Key != "" {
		modes++
	}
	if sel.Pattern != "" {
		modes++
	}
	if sel.UserContext != nil {
		modes++
	}
	if modes != 1 {
		return ErrInvalidSelector
	}

	ctx, span := observability.StartSpan(ctx, "search_cache.invalidate")
	defer span.End()

	switch {
	case sel.Key != "":
		return s.invalidateKey(ctx, sel.Key)
	case sel.Pattern != "":
		return s.invalidatePattern(ctx, sel.Pattern)
	default:
		return s.invalidateUserContext(ctx, *sel.UserContext)
	}
}

func (s *Service) invalidateKey(ctx context.Context, key string) error {
	// Read the entry first so its segment index memberships can be
	// cleaned up along with it. An unreadable or absent entry still
	// gets its key deleted.
	entry, err := s.entryForKey(ctx, key)
	if err != nil {
		s.logger.Warn("Could not decode entry during invalidation", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	deleted, err := s.redis.Del(ctx, s.entryKey(key))
	if err != nil {
		return err
	}

	if entry != nil {
		if err := s.index.Remove(ctx, key, entry.Context.UserSegments); err != nil {
			s.logger.Warn("Failed to clean segment index", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	s.recordInvalidation("key", deleted)
	return nil
}

func (s *Service) invalidatePattern(ctx context.Context, pattern string) error {
	keys, err := s.redis.ScanKeys(ctx, pattern)
	if err != nil {
		return err
	}

	var deleted int64
	for start := 0; start < len(keys); start += invalidateBatchSize {
		end := start + invalidateBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		n, err := s.redis.Del(ctx, keys[start:end]...)
		if err != nil {
			return err
		}
		deleted += n
	}

	s.recordInvalidation("pattern", deleted)
	return nil
}

// invalidateUserContext sweeps the segment reverse index instead of the
// flat keyspace: cache keys are content hashes, so no key pattern could
// ever select by segment.
func (s *Service) invalidateUserContext(ctx context.Context, uc models.UserContext) error {
	segments := DeriveSegments(uc)

	var deleted int64
	for _, segment := range segments {
		keys, err := s.index.Keys(ctx, segment)
		if err != nil {
			return err
		}

		for start := 0; start < len(keys); start += invalidateBatchSize {
			end := start + invalidateBatchSize
			if end > len(keys) {
				end = len(keys)
			}
			entryKeys := make([]string, 0, end-start)
			for _, key := range keys[start:end] {
				entryKeys = append(entryKeys, s.entryKey(key))
			}
			n, err := s.redis.Del(ctx, entryKeys...)
			if err != nil {
				return err
			}
			deleted += n
		}

		// The index members are gone with their entries; dropping the
		// set also sheds members whose entries had already expired.
		if err := s.index.Drop(ctx, segment); err != nil {
			s.logger.Warn("Failed to drop segment index", map[string]interface{}{
				"segment": segment,
				"error":   err.Error(),
			})
		}
	}

	s.recordInvalidation("user_context", deleted)
	return nil
}

func (s *Service) recordInvalidation(mode string, deleted int64) {
	if deleted > 0 {
		s.logger.Info("Invalidated cache entries", map[string]interface{}{
			"mode":    mode,
			"deleted": deleted,
		})
	}
	if s.config.EnableMetrics {
		s.metrics.IncrementCounterWithLabels("search_cache.invalidations", float64(deleted), map[string]string{
			"mode": mode,
		})
	}
}
