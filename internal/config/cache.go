package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// Routes lists the echo route paths whose GET responses are cached.
type CacheConfig struct {
	Enabled      bool
	Routes       map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Only the catalog listing is
// cached by default.
func LoadCacheConfig() CacheConfig {
	routes := map[string]bool{}
	for _, r := range splitList(envStr("CACHE_ROUTES", "/api/books")) {
		routes[strings.TrimRight(r, "/")] = true
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Routes:       routes,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache:books"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
