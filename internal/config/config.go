// Package config loads the service configuration from a YAML/JSON file, the environment and .env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RESUMEFORGE_SERVER_PORT.
const EnvPrefix = "RESUMEFORGE"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	MCPHTTP        bool          `mapstructure:"mcp_http"` // mount the MCP streamable transport at /mcp
}

// LLMConfig selects the text-generation provider backing every stage.
type LLMConfig struct {
	Provider        string            `mapstructure:"provider"` // gemini, genai, anthropic
	APIKey          string            `mapstructure:"api_key"`
	GeminiAPIKey    string            `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string            `mapstructure:"anthropic_api_key"`
	Backend         string            `mapstructure:"backend"` // genai only: gemini-api or vertex
	Project         string            `mapstructure:"project"`
	Location        string            `mapstructure:"location"`
	Models          map[string]string `mapstructure:"models"` // tier -> model name
	MaxAttempts     int               `mapstructure:"max_attempts"`
	StageBudget     time.Duration     `mapstructure:"stage_budget"`
	RetryBackoff    time.Duration     `mapstructure:"retry_backoff"`
}

// Key returns the API key for the configured provider.
func (c LLMConfig) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.Provider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// PipelineConfig bounds pipeline runs.
type PipelineConfig struct {
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
}

// StorageConfig selects where reports are persisted.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // none, sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// RateLimitConfig configures the per-client token buckets.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// FetchConfig configures job description retrieval from URLs.
type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	UseBrowser bool          `mapstructure:"use_browser"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 6 * time.Minute,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"https://*.onrender.com",
			},
			MaxUploadBytes: 10 << 20,
		},
		LLM: LLMConfig{
			Provider:     "gemini",
			Backend:      "gemini-api",
			MaxAttempts:  2,
			StageBudget:  60 * time.Second,
			RetryBackoff: time.Second,
		},
		Pipeline: PipelineConfig{
			RunTimeout:        5 * time.Minute,
			MaxConcurrentRuns: 4,
		},
		Storage: StorageConfig{
			Driver: "none",
		},
		Auth: AuthConfig{
			ExpirationHours: 24,
			BcryptCost:      12,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; ResumeForge/2.0)",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (or resumeforge.yaml in the usual places when path is
// empty), then applies environment overrides. A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("resumeforge")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.resumeforge")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// bindEnv maps the conventional unprefixed variables onto config keys.
func bindEnv(v *viper.Viper) error {
	binds := map[string][]string{
		"server.port":           {EnvPrefix + "_SERVER_PORT", "PORT"},
		"llm.gemini_api_key":    {EnvPrefix + "_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"llm.anthropic_api_key": {EnvPrefix + "_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"storage.dsn":           {EnvPrefix + "_STORAGE_DSN", "DATABASE_URL"},
		"auth.jwt_secret":       {EnvPrefix + "_AUTH_JWT_SECRET", "JWT_SECRET"},
		"log.level":             {EnvPrefix + "_LOG_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range binds {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.mcp_http", d.Server.MCPHTTP)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.backend", d.LLM.Backend)
	v.SetDefault("llm.project", "")
	v.SetDefault("llm.location", "")
	v.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)
	v.SetDefault("llm.stage_budget", d.LLM.StageBudget)
	v.SetDefault("llm.retry_backoff", d.LLM.RetryBackoff)

	v.SetDefault("pipeline.run_timeout", d.Pipeline.RunTimeout)
	v.SetDefault("pipeline.max_concurrent_runs", d.Pipeline.MaxConcurrentRuns)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", "")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.expiration_hours", d.Auth.ExpirationHours)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.default_limit", d.RateLimit.DefaultLimit)
	v.SetDefault("rate_limit.default_window", d.RateLimit.DefaultWindow)
	v.SetDefault("rate_limit.cleanup_interval", d.RateLimit.CleanupInterval)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.use_browser", d.Fetch.UseBrowser)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)

	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks ranges and fields that depend on each other.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("config error: 'server.max_upload_bytes' must be non-negative")
	}

	switch c.LLM.Provider {
	case "gemini", "genai", "anthropic":
	default:
		return fmt.Errorf("config error: unknown 'llm.provider' %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "genai" && c.LLM.Backend != "gemini-api" && c.LLM.Backend != "vertex" {
		return fmt.Errorf("config error: 'llm.backend' must be gemini-api or vertex, got %q", c.LLM.Backend)
	}
	if c.LLM.MaxAttempts < 1 || c.LLM.MaxAttempts > 5 {
		return fmt.Errorf("config error: 'llm.max_attempts' must be between 1 and 5, got %d", c.LLM.MaxAttempts)
	}
	if c.LLM.StageBudget <= 0 {
		return fmt.Errorf("config error: 'llm.stage_budget' must be positive")
	}

	if c.Pipeline.MaxConcurrentRuns < 1 {
		return fmt.Errorf("config error: 'pipeline.max_concurrent_runs' must be at least 1")
	}
	if c.Pipeline.RunTimeout <= 0 {
		return fmt.Errorf("config error: 'pipeline.run_timeout' must be positive")
	}
	// A run that times out still has to write its error response.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Pipeline.RunTimeout {
		return fmt.Errorf("config error: 'server.write_timeout' (%s) must be longer than 'pipeline.run_timeout' (%s)",
			c.Server.WriteTimeout, c.Pipeline.RunTimeout)
	}

	switch c.Storage.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config error: 'storage.dsn' is required for driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("config error: unknown 'storage.driver' %q", c.Storage.Driver)
	}

	if c.Auth.Enabled {
		if err := c.Auth.normalize(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit <= 0 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: rate limit default limit and window must be positive")
	}

	return nil
}

// MergeWithDefaults returns a copy with zero-valued fields filled from defaults.
// Bools are never merged since unset cannot be told apart from false.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.ReadTimeout == 0 {
		result.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if result.Server.WriteTimeout == 0 {
		result.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if len(result.Server.CORSOrigins) == 0 {
		result.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if result.Server.MaxUploadBytes == 0 {
		result.Server.MaxUploadBytes = defaults.Server.MaxUploadBytes
	}

	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.Backend == "" {
		result.LLM.Backend = defaults.LLM.Backend
	}
	if result.LLM.MaxAttempts == 0 {
		result.LLM.MaxAttempts = defaults.LLM.MaxAttempts
	}
	if result.LLM.StageBudget == 0 {
		result.LLM.StageBudget = defaults.LLM.StageBudget
	}
	if result.LLM.RetryBackoff == 0 {
		result.LLM.RetryBackoff = defaults.LLM.RetryBackoff
	}

	if result.Pipeline.RunTimeout == 0 {
		result.Pipeline.RunTimeout = defaults.Pipeline.RunTimeout
	}
	if result.Pipeline.MaxConcurrentRuns == 0 {
		result.Pipeline.MaxConcurrentRuns = defaults.Pipeline.MaxConcurrentRuns
	}

	if result.Storage.Driver == "" {
		result.Storage.Driver = defaults.Storage.Driver
	}

	if result.Auth.ExpirationHours == 0 {
		result.Auth.ExpirationHours = defaults.Auth.ExpirationHours
	}
	if result.Auth.BcryptCost == 0 {
		result.Auth.BcryptCost = defaults.Auth.BcryptCost
	}

	if result.RateLimit.DefaultLimit == 0 {
		result.RateLimit.DefaultLimit = defaults.RateLimit.DefaultLimit
	}
	if result.RateLimit.DefaultWindow == 0 {
		result.RateLimit.DefaultWindow = defaults.RateLimit.DefaultWindow
	}
	if result.RateLimit.CleanupInterval == 0 {
		result.RateLimit.CleanupInterval = defaults.RateLimit.CleanupInterval
	}

	if result.Fetch.Timeout == 0 {
		result.Fetch.Timeout = defaults.Fetch.Timeout
	}
	if result.Fetch.UserAgent == "" {
		result.Fetch.UserAgent = defaults.Fetch.UserAgent
	}

	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}

	return result
}
