package searchcache

import (
	"time"

	"github.com/launchify/search-cache/pkg/models"
)

// CachedResult is one record produced by the external search engine.
// The cache treats the payload as opaque; Data carries whatever the
// engine returned for the matched profile or listing.
type CachedResult struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entity_type,omitempty"`
	Score      float64                `json:"score,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EntryMetadata is the free-form part of the context envelope
type EntryMetadata struct {
	Industries []string                `json:"industries,omitempty"`
	Tier       models.SubscriptionTier `json:"tier,omitempty"`
}

// EntryContext is the envelope stored alongside cached results. It
// records when the entry was written and for which segments, so later
// reads can judge relevance for a different requester.
type EntryContext struct {
	CachedAt     int64         `json:"cached_at"` // epoch milliseconds
	UserSegments []string      `json:"user_segments"`
	Metadata     EntryMetadata `json:"metadata"`
}

// CacheEntry is the stored form of one cached result set
type CacheEntry struct {
	Key     string         `json:"key"`
	Results []CachedResult `json:"results"`
	Context EntryContext   `json:"context"`
}

// KeyStats tracks per-key access statistics. Stats exist independently
// of entries: a key accumulates hits before it ever crosses the
// caching threshold.
type KeyStats struct {
	Hits         int64
	LastAccessed time.Time
	UserSegments []string
}

// CacheStats is a point-in-time snapshot of aggregate cache performance
type CacheStats struct {
	TotalEntries int       `json:"total_entries"`
	TotalHits    int64     `json:"total_hits"`
	TotalMisses  int64     `json:"total_misses"`
	HitRate      float64   `json:"hit_rate"`
	Timestamp    time.Time `json:"timestamp"`
}

// PopularQuery is one historically popular query reported by the
// analytics source, with the dominant requester profile it was issued
// under.
type PopularQuery struct {
	Query            string                  `json:"query"`
	Filters          map[string]interface{}  `json:"filters,omitempty"`
	UserType         models.UserType         `json:"user_type"`
	SubscriptionTier models.SubscriptionTier `json:"subscription_tier"`
	Count            int                     `json:"count"`
}
