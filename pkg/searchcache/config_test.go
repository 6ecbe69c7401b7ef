package searchcache

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchify/search-cache/pkg/models"
)

func TestConfig_ForTier(t *testing.T) {
	config := DefaultConfig()

	for _, tier := range []models.SubscriptionTier{
		models.TierBasic, models.TierChrome, models.TierBronze, models.TierSilver,
	} {
		tc := config.ForTier(tier)
		assert.Equal(t, time.Hour, tc.TTL, string(tier))
		assert.Equal(t, int64(3), tc.MinHits, string(tier))
	}

	for _, tier := range []models.SubscriptionTier{models.TierGold, models.TierPlatinum} {
		tc := config.ForTier(tier)
		assert.Equal(t, 2*time.Hour, tc.TTL, string(tier))
		assert.Equal(t, int64(2), tc.MinHits, string(tier))
	}

	// Unknown tiers fall back to the default policy.
	assert.Equal(t, config.Default, config.ForTier(models.SubscriptionTier("Trial")))
}

func TestConfig_Validate(t *testing.T) {
	mutations := map[string]func(*Config){
		"empty prefix":           func(c *Config) { c.Prefix = "" },
		"threshold above one":    func(c *Config) { c.RelevanceThreshold = 1.1 },
		"negative threshold":     func(c *Config) { c.RelevanceThreshold = -0.1 },
		"zero default ttl":       func(c *Config) { c.Default.TTL = 0 },
		"zero premium ttl":       func(c *Config) { c.Premium.TTL = 0 },
		"zero default max size":  func(c *Config) { c.Default.MaxSize = 0 },
		"negative premium hits":  func(c *Config) { c.Premium.MinHits = -1 },
		"zero stats ttl":         func(c *Config) { c.StatsTTL = 0 },
		"zero operation timeout": func(c *Config) { c.OpTimeout = 0 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			mutate(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigFromViper(t *testing.T) {
	t.Run("empty viper keeps defaults", func(t *testing.T) {
		config, err := LoadConfigFromViper(viper.New())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), config)
	})

	t.Run("set keys override", func(t *testing.T) {
		v := viper.New()
		v.Set("search.cache.prefix", "match:search")
		v.Set("search.cache.default.ttl", "30m")
		v.Set("search.cache.premium.min_hits", 1)
		v.Set("search.cache.relevance_threshold", 0.5)
		v.Set("search.cache.enable_metrics", false)

		config, err := LoadConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "match:search", config.Prefix)
		assert.Equal(t, 30*time.Minute, config.Default.TTL)
		assert.Equal(t, int64(1), config.Premium.MinHits)
		assert.Equal(t, 0.5, config.RelevanceThreshold)
		assert.False(t, config.EnableMetrics)

		// Untouched keys keep their defaults.
		assert.Equal(t, 2*time.Hour, config.Premium.TTL)
		assert.Equal(t, 24*time.Hour, config.StatsTTL)
	})

	t.Run("invalid overlay is rejected", func(t *testing.T) {
		v := viper.New()
		v.Set("search.cache.relevance_threshold", 1.5)

		config, err := LoadConfigFromViper(v)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, config)
	})
}

func TestLoadWarmerConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set("search.cache.warmer.window", "48h")
	v.Set("search.cache.warmer.limit", 25)

	config := LoadWarmerConfigFromViper(v)
	assert.Equal(t, 48*time.Hour, config.Window)
	assert.Equal(t, 25, config.Limit)
	assert.Equal(t, 5*time.Minute, config.CycleTimeout)
}

func TestLoadEvictorConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set("search.cache.evictor.max_entries", 5000)

	config := LoadEvictorConfigFromViper(v)
	assert.Equal(t, 5000, config.MaxEntries)
	assert.Zero(t, config.BatchSize)
}

func TestJobInterval(t *testing.T) {
	assert.Equal(t, 5*time.Minute, JobInterval(viper.New()))

	v := viper.New()
	v.Set("search.cache.job_interval", "90s")
	assert.Equal(t, 90*time.Second, JobInterval(v))
}
