package searchcache

import (
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper overlays configuration from a viper instance onto
// the defaults. Only keys that are present override; everything else
// keeps its default. The viper instance is injected rather than read
// from the package-level singleton so composition roots can scope
// configuration however they like.
func LoadConfigFromViper(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()

	if prefix := v.GetString("search.cache.prefix"); prefix != "" {
		config.Prefix = prefix
	}

	loadTierConfig(v, "search.cache.default", &config.Default)
	loadTierConfig(v, "search.cache.premium", &config.Premium)

	if ttl := v.GetDuration("search.cache.stats_ttl"); ttl > 0 {
		config.StatsTTL = ttl
	}
	if threshold := v.GetFloat64("search.cache.relevance_threshold"); threshold > 0 {
		config.RelevanceThreshold = threshold
	}
	if timeout := v.GetDuration("search.cache.op_timeout"); timeout > 0 {
		config.OpTimeout = timeout
	}
	if v.IsSet("search.cache.enable_metrics") {
		config.EnableMetrics = v.GetBool("search.cache.enable_metrics")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadTierConfig(v *viper.Viper, prefix string, tc *TierConfig) {
	if ttl := v.GetDuration(prefix + ".ttl"); ttl > 0 {
		tc.TTL = ttl
	}
	if maxSize := v.GetInt(prefix + ".max_size"); maxSize > 0 {
		tc.MaxSize = maxSize
	}
	if minHits := v.GetInt64(prefix + ".min_hits"); minHits > 0 {
		tc.MinHits = minHits
	}
}

// LoadWarmerConfigFromViper overlays warmer configuration from viper
func LoadWarmerConfigFromViper(v *viper.Viper) WarmerConfig {
	config := DefaultWarmerConfig()

	if window := v.GetDuration("search.cache.warmer.window"); window > 0 {
		config.Window = window
	}
	if limit := v.GetInt("search.cache.warmer.limit"); limit > 0 {
		config.Limit = limit
	}
	if timeout := v.GetDuration("search.cache.warmer.cycle_timeout"); timeout > 0 {
		config.CycleTimeout = timeout
	}

	return config
}

// LoadEvictorConfigFromViper overlays evictor configuration from viper
func LoadEvictorConfigFromViper(v *viper.Viper) EvictorConfig {
	var config EvictorConfig

	if maxEntries := v.GetInt("search.cache.evictor.max_entries"); maxEntries > 0 {
		config.MaxEntries = maxEntries
	}
	if batchSize := v.GetInt("search.cache.evictor.batch_size"); batchSize > 0 {
		config.BatchSize = batchSize
	}

	return config
}

// JobInterval returns the shared interval for background jobs, default
// five minutes.
func JobInterval(v *viper.Viper) time.Duration {
	if interval := v.GetDuration("search.cache.job_interval"); interval > 0 {
		return interval
	}
	return 5 * time.Minute
}
