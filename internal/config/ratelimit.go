package config

import "time"

// RateLimitConfig describes one request budget: at most Max requests per
// Window for each key.  The Redis limiter expresses this as a bucket of Max
// tokens refilled in full every Window.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	Max         int
	KeyStrategy string
	Prefix      string
	Debug       bool
}

// LoadRateLimitConfig returns the general API budget (100 requests per 15
// minutes by default).
func LoadRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Window:      envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		Max:         envInt("RATE_LIMIT_MAX", 100),
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	})
}

// LoadAuthRateLimitConfig returns the stricter budget applied to /api/auth.
// It shares the general window unless AUTH_RATE_LIMIT_WINDOW is set.
func LoadAuthRateLimitConfig() RateLimitConfig {
	general := LoadRateLimitConfig()
	return normalize(RateLimitConfig{
		Enabled:     general.Enabled,
		Window:      envDur("AUTH_RATE_LIMIT_WINDOW", general.Window),
		Max:         envInt("AUTH_RATE_LIMIT_MAX", 5),
		KeyStrategy: general.KeyStrategy,
		Prefix:      general.Prefix + ":auth",
		Debug:       general.Debug,
	})
}

// TTL is how long an idle key is kept in Redis.
func (c RateLimitConfig) TTL() time.Duration { return 2 * c.Window }

func normalize(c RateLimitConfig) RateLimitConfig {
	if c.Max < 1 {
		c.Max = 1
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}
