package config

import "time"

// CacheConfig defines settings for the in-memory entity cache. When Enabled
// is false the cache manager becomes a no-op and every read goes to the
// database. SweepInterval controls how often the background sweeper removes
// expired entries. The per-entity TTLs bound how stale a cached listing can
// get when an invalidation call is missed.
type CacheConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	CategoryTTL   time.Duration
	EquipmentTTL  time.Duration
	ShareTTL      time.Duration
	TranslateTTL  time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getenv("CACHE_ENABLED", "true") == "true",
		SweepInterval: parseDur(getenv("CACHE_SWEEP_INTERVAL", "60s")),
		CategoryTTL:   parseDur(getenv("CACHE_CATEGORY_TTL", "5m")),
		EquipmentTTL:  parseDur(getenv("CACHE_EQUIPMENT_TTL", "2m")),
		ShareTTL:      parseDur(getenv("CACHE_SHARE_TTL", "10m")),
		TranslateTTL:  parseDur(getenv("CACHE_TRANSLATE_TTL", "30m")),
	}
}
