package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8000
	DefaultReadTimeout    = 15 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 30

	DefaultUpstreamTimeout = 10 * time.Second

	DefaultPriceTTL   = 60 * time.Second
	DefaultListTTL    = 300 * time.Second
	DefaultHistoryTTL = 300 * time.Second

	DefaultStreamInterval = 30 * time.Second
)

// Config is the root of config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Stream   StreamConfig   `yaml:"stream"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8000).
	HTTPPort int `yaml:"http_port"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// AllowedOrigins lists the browser origins allowed by CORS and the
	// WebSocket upgrader. Empty or ["*"] allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client-IP token bucket applied to /api routes.
// RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// UpstreamConfig configures the external data providers.
type UpstreamConfig struct {
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	TaoStats  TaoStatsConfig  `yaml:"taostats"`

	// Timeout bounds each upstream HTTP request (default 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// CoinGeckoConfig selects the CoinGecko hosts. ProBaseURL is used instead of
// BaseURL when the key env var resolves to a non-empty value.
type CoinGeckoConfig struct {
	BaseURL    string `yaml:"base_url"`
	ProBaseURL string `yaml:"pro_base_url"`
	KeyEnv     string `yaml:"key_env"`
}

// Key returns the API key resolved from the environment.
func (c CoinGeckoConfig) Key() string { return env(c.KeyEnv) }

// TaoStatsConfig configures the network-metrics provider. Without a key the
// source is skipped.
type TaoStatsConfig struct {
	BaseURL string `yaml:"base_url"`
	KeyEnv  string `yaml:"key_env"`
}

// Key returns the API key resolved from the environment.
func (c TaoStatsConfig) Key() string { return env(c.KeyEnv) }

// CacheConfig selects the cache backend and the freshness windows.
type CacheConfig struct {
	// Backend is one of: memory | redis.
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`

	PriceTTL   time.Duration `yaml:"price_ttl"`
	ListTTL    time.Duration `yaml:"list_ttl"`
	HistoryTTL time.Duration `yaml:"history_ttl"`
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// Password returns the redis password resolved from the environment.
func (r RedisConfig) Password() string { return env(r.PasswordEnv) }

// AuthConfig configures the identity provider used for bearer tokens and
// the admin approve endpoint.
type AuthConfig struct {
	// KeyEnv names the env var holding the identity provider API key. When it
	// resolves to empty, every request is anonymous and admin calls get 503.
	KeyEnv string `yaml:"key_env"`

	// Endpoint overrides the identity provider base URL (tests, emulators).
	Endpoint string `yaml:"endpoint"`

	// AdminDomain is the email domain whose users may approve accounts.
	AdminDomain string `yaml:"admin_domain"`
}

// Key returns the identity provider API key resolved from the environment.
func (a AuthConfig) Key() string { return env(a.KeyEnv) }

// StreamConfig controls the stats WebSocket broadcast.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
	// Format is one of: json | text.
	Format string `yaml:"format"`
	// File, when set, receives logs in addition to stderr and is rotated.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func env(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values. It is what the
// server runs with when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     DefaultHTTPPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			RateLimit: RateLimitConfig{
				RPS:   DefaultRateLimitRPS,
				Burst: DefaultRateLimitBurst,
			},
		},
		Upstream: UpstreamConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:    "https://api.coingecko.com/api/v3",
				ProBaseURL: "https://pro-api.coingecko.com/api/v3",
				KeyEnv:     "COINGECKO_API_KEY",
			},
			TaoStats: TaoStatsConfig{
				BaseURL: "https://api.taostats.io",
				KeyEnv:  "TAOSTATS_API_KEY",
			},
			Timeout: DefaultUpstreamTimeout,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				PasswordEnv: "REDIS_PASSWORD",
				KeyPrefix:   "taoscope:",
			},
			PriceTTL:   DefaultPriceTTL,
			ListTTL:    DefaultListTTL,
			HistoryTTL: DefaultHistoryTTL,
		},
		Auth: AuthConfig{
			KeyEnv: "IDENTITY_API_KEY",
		},
		Stream: StreamConfig{
			Interval: DefaultStreamInterval,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if cfg.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must not be negative")
	}
	if cfg.Server.RateLimit.RPS > 0 && cfg.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate_limit.burst must be at least 1 when rps is set")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend %q unknown: want memory|redis", cfg.Cache.Backend)
	}
	for name, ttl := range map[string]time.Duration{
		"cache.price_ttl":   cfg.Cache.PriceTTL,
		"cache.list_ttl":    cfg.Cache.ListTTL,
		"cache.history_ttl": cfg.Cache.HistoryTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if cfg.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}
