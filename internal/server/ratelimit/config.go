package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/resume-forge/internal/config"
)

// EndpointConfig is the limit for one endpoint.
type EndpointConfig struct {
	Path   string // exact path, or a prefix when it ends with "/"
	Method string
	Limit  int // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity; defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromConfig builds the limiter configuration from the service config, adding the
// per-endpoint limits.
func FromConfig(c config.RateLimitConfig) *Config {
	return &Config{
		Enabled:         c.Enabled,
		DefaultLimit:    c.DefaultLimit,
		DefaultWindow:   c.DefaultWindow,
		CleanupInterval: c.CleanupInterval,
		Whitelist:       ipSet(c.Whitelist),
		Blacklist:       ipSet(c.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-endpoint limits. Every workflow endpoint runs
// LLM stages and shares the strictest tier.
func DefaultEndpointConfigs() []EndpointConfig {
	expensive := func(path string) EndpointConfig {
		return EndpointConfig{Path: path, Method: "POST", Limit: 10, Window: time.Hour, Burst: 2}
	}
	return []EndpointConfig{
		expensive("/api/optimize"),
		expensive("/api/optimize-file"),
		expensive("/api/optimize/stream"),
		expensive("/api/career-guidance"),
		expensive("/api/quality-score"),

		{Path: "/api/download/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/auth/token", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/api/reports/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
