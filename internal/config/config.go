// Package config loads the admin shell configuration.
//
// Values come from the process environment (optionally seeded from a .env file), with an
// optional YAML file named by ADMIN_CONFIG_FILE layered on top.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

// FileEnv names the environment variable pointing at the YAML overlay.
const FileEnv = "ADMIN_CONFIG_FILE"

// Config is the admin shell configuration.
type Config struct {
	Service   string `env:"ADMIN_SERVICE_NAME,default=miniapp-admin" yaml:"service"`
	Addr      string `env:"ADMIN_ADDR,default=:8080" yaml:"addr"`
	LogLevel  string `env:"ADMIN_LOG_LEVEL,default=info" yaml:"log_level"`
	LogFormat string `env:"ADMIN_LOG_FORMAT,default=json" yaml:"log_format"`

	ReadTimeout     time.Duration `env:"ADMIN_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"ADMIN_WRITE_TIMEOUT,default=15s" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"ADMIN_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`

	// CORSOrigins is a comma-separated list of origins allowed to call /api. "*" allows all.
	CORSOrigins    string `env:"ADMIN_CORS_ORIGINS" yaml:"cors_origins"`
	RateLimitRPS   int    `env:"ADMIN_RATE_LIMIT_RPS,default=20" yaml:"rate_limit_rps"`
	RateLimitBurst int    `env:"ADMIN_RATE_LIMIT_BURST,default=40" yaml:"rate_limit_burst"`

	Verifier VerifierConfig `yaml:"verifier"`

	// Theme supplies page colors for renders outside a host and for colors a host omits.
	Theme webapp.ThemeParams `yaml:"theme"`
}

// VerifierConfig points at the trusted backend that checks initData signatures.
type VerifierConfig struct {
	// URL is the backend base URL. Empty disables session verification.
	URL        string        `env:"ADMIN_VERIFIER_URL" yaml:"url"`
	Path       string        `env:"ADMIN_VERIFIER_PATH,default=/verify" yaml:"path"`
	ServiceKey string        `env:"ADMIN_VERIFIER_KEY" yaml:"service_key"`
	Timeout    time.Duration `env:"ADMIN_VERIFIER_TIMEOUT,default=5s" yaml:"timeout"`
	MaxRetries int           `env:"ADMIN_VERIFIER_RETRIES,default=2" yaml:"max_retries"`
	CacheTTL   time.Duration `env:"ADMIN_VERIFIER_CACHE_TTL,default=5m" yaml:"cache_ttl"`
	// RedisURL selects a shared verification cache. Empty means an in-process cache.
	RedisURL string `env:"ADMIN_REDIS_URL" yaml:"redis_url"`
}

// Enabled reports whether a verifier backend is configured.
func (v VerifierConfig) Enabled() bool {
	return strings.TrimSpace(v.URL) != ""
}

// Load reads envFile (if it exists), decodes the environment and applies the YAML overlay.
// An empty envFile skips .env loading.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFile overlays the fields present in the YAML file at path.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the shell cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%d burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if err := c.Theme.Validate(); err != nil {
		return fmt.Errorf("theme: %w", err)
	}

	if !c.Verifier.Enabled() {
		return nil
	}
	u, err := url.Parse(c.Verifier.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("verifier url must be an absolute http(s) URL, got %q", c.Verifier.URL)
	}
	if !strings.HasPrefix(c.Verifier.Path, "/") {
		return fmt.Errorf("verifier path must start with /, got %q", c.Verifier.Path)
	}
	if c.Verifier.RedisURL != "" {
		r, err := url.Parse(c.Verifier.RedisURL)
		if err != nil || (r.Scheme != "redis" && r.Scheme != "rediss") {
			return fmt.Errorf("redis url must use redis:// or rediss://, got %q", c.Verifier.RedisURL)
		}
	}
	return nil
}

// Origins returns the CORS origins as a list.
func (c *Config) Origins() []string {
	return ParseCSV(c.CORSOrigins)
}

// ParseCSV splits a comma-separated list, trimming blanks and dropping empty entries.
func ParseCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
