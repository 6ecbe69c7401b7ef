package searchcache

import (
	"fmt"
	"time"

	"github.com/launchify/search-cache/pkg/models"
)

// TierConfig holds the caching policy applied to one subscriber class
type TierConfig struct {
	// TTL is the store-native expiry for cached entries
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
	// MaxSize is the soft cap on total cached entries enforced by the
	// size optimizer
	MaxSize int `mapstructure:"max_size" json:"max_size"`
	// MinHits is the number of recorded accesses a key needs before its
	// results are cached at all
	MinHits int64 `mapstructure:"min_hits" json:"min_hits"`
}

// Config configures the search cache
type Config struct {
	// Prefix namespaces every Redis key the cache touches
	Prefix string `mapstructure:"prefix" json:"prefix"`
	// Default applies to Basic through Silver subscribers
	Default TierConfig `mapstructure:"default" json:"default"`
	// Premium applies to Gold and Platinum subscribers
	Premium TierConfig `mapstructure:"premium" json:"premium"`
	// StatsTTL is the re-armed expiry window for per-key stats
	StatsTTL time.Duration `mapstructure:"stats_ttl" json:"stats_ttl"`
	// RelevanceThreshold is the minimum segment-overlap ratio for a
	// cached entry to be served to a requester
	RelevanceThreshold float64 `mapstructure:"relevance_threshold" json:"relevance_threshold"`
	// OpTimeout bounds every store operation issued on the request path
	OpTimeout time.Duration `mapstructure:"op_timeout" json:"op_timeout"`
	// EnableMetrics enables metrics collection
	EnableMetrics bool `mapstructure:"enable_metrics" json:"enable_metrics"`
}

// DefaultConfig returns production defaults. Premium subscribers get a
// longer TTL, a larger share of the cache, and a lower caching
// threshold, so their queries become cacheable sooner.
func DefaultConfig() *Config {
	return &Config{
		Prefix: "search:cache",
		Default: TierConfig{
			TTL:     time.Hour,
			MaxSize: 1000,
			MinHits: 3,
		},
		Premium: TierConfig{
			TTL:     2 * time.Hour,
			MaxSize: 2000,
			MinHits: 2,
		},
		StatsTTL:           24 * time.Hour,
		RelevanceThreshold: 0.7,
		OpTimeout:          500 * time.Millisecond,
		EnableMetrics:      true,
	}
}

// ForTier selects the tier configuration for a requester
func (c *Config) ForTier(tier models.SubscriptionTier) TierConfig {
	if tier.IsPremium() {
		return c.Premium
	}
	return c.Default
}

// Validate checks the configuration for values the cache cannot run with
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrInvalidConfig)
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("%w: relevance threshold must be between 0 and 1", ErrInvalidConfig)
	}
	for name, tc := range map[string]TierConfig{"default": c.Default, "premium": c.Premium} {
		if tc.TTL <= 0 {
			return fmt.Errorf("%w: %s ttl must be positive", ErrInvalidConfig, name)
		}
		if tc.MaxSize <= 0 {
			return fmt.Errorf("%w: %s max_size must be positive", ErrInvalidConfig, name)
		}
		if tc.MinHits < 0 {
			return fmt.Errorf("%w: %s min_hits must not be negative", ErrInvalidConfig, name)
		}
	}
	if c.StatsTTL <= 0 {
		return fmt.Errorf("%w: stats_ttl must be positive", ErrInvalidConfig)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("%w: op_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
