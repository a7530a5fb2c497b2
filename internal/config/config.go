// Package config loads application configuration from environment variables.
// The Config value is built once at startup and passed down explicitly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string        // APP_ENV (development, production, test)
	Port           string        // PORT, HTTP port to listen on
	StoreDriver    string        // STORE_DRIVER, mysql or memory
	DB             DBConfig      // DB_* connection settings, required for mysql
	JWTSecret      string        // JWT_SECRET, empty disables login/verify with a 500
	TokenTTL       time.Duration // TOKEN_TTL, lifetime of issued tokens
	FrontendURLs   []string      // FRONTEND_URL, comma separated CORS origins
	RequestTimeout time.Duration // REQUEST_TIMEOUT, per request storage deadline
	LogLevel       string        // LOG_LEVEL

	RateLimit     RateLimitConfig
	AuthRateLimit RateLimitConfig
	Cache         CacheConfig
	Events        EventsConfig
	Redis         RedisConfig
}

// DBConfig groups the MySQL connection parameters.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// Load reads configuration values from the environment.  Missing required
// variables are reported together in the returned error.
func Load() (Config, error) {
	cfg := Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envStr("PORT", "3001"),
		StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       envDur("TOKEN_TTL", 7*24*time.Hour),
		FrontendURLs:   splitList(envStr("FRONTEND_URL", "http://localhost:3000")),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		RateLimit:      LoadRateLimitConfig(),
		AuthRateLimit:  LoadAuthRateLimitConfig(),
		Cache:          LoadCacheConfig(),
		Events:         LoadEventsConfig(),
		Redis:          LoadRedisConfig(),
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		var missing []string
		cfg.DB = DBConfig{
			User: must("DB_USER", &missing),
			Pass: os.Getenv("DB_PASS"),
			Host: must("DB_HOST", &missing),
			Port: envStr("DB_PORT", "3306"),
			Name: must("DB_NAME", &missing),
		}
		if len(missing) > 0 {
			return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// DSN renders the go-sql-driver connection string for the configured database.
// parseTime=true -> DATETIME -> time.Time | loc=UTC + time_zone='+00:00' so
// CURRENT_TIMESTAMP defaults are written in UTC too
func (d DBConfig) DSN() string {
	auth := d.User
	if d.Pass != "" {
		auth = d.User + ":" + d.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&time_zone=%%27%%2B00%%3A00%%27", auth, d.Host, d.Port, d.Name)
}

// must retrieves a required environment variable and records its name when
// it is unset or empty.
func must(key string, missing *[]string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		*missing = append(*missing, key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
