// Package config loads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs. Secrets intentionally have
// no defaults: when they are absent the gate answers with a server
// error instead of admitting anyone.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	// Gate secrets. Both must be set for check-ins to succeed.
	PassSecret string
	GateKey    string

	PassTTL     time.Duration
	SettingsTTL time.Duration

	// ASN lookup backends. The local MMDB takes precedence when both
	// are configured.
	ASNLookupURL   string
	ASNLookupToken string
	ASNMMDBPath    string

	// Comma separated CIDRs of proxies whose forwarded headers are
	// trusted. Empty means trust every peer (single-proxy deployments
	// behind Cloudflare).
	TrustedProxyCIDRs []string

	CORSOrigins []string

	RateLimit         int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// FromEnv builds a Config from environment variables. A .env file in
// the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        envOr("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		PassSecret: os.Getenv("OFFICE_PASS_SECRET"),
		GateKey:    os.Getenv("GATE_ACCESS_KEY"),

		PassTTL:     envDuration("OFFICE_PASS_TTL", 2*time.Minute),
		SettingsTTL: envDuration("SETTINGS_CACHE_TTL", 30*time.Second),

		ASNLookupURL:   os.Getenv("ASN_LOOKUP_URL"),
		ASNLookupToken: os.Getenv("ASN_LOOKUP_TOKEN"),
		ASNMMDBPath:    os.Getenv("ASN_MMDB_PATH"),

		TrustedProxyCIDRs: envList("TRUSTED_PROXY_CIDRS"),
		CORSOrigins:       envList("CORS_ORIGINS"),

		RateLimit:         envInt("RATE_LIMIT", 30),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitDisabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
