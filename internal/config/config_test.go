package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(FileEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "miniapp-admin", cfg.Service)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, "/verify", cfg.Verifier.Path)
	assert.Equal(t, 5*time.Minute, cfg.Verifier.CacheTTL)
	assert.False(t, cfg.Verifier.Enabled())
	assert.Empty(t, cfg.Origins())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("ADMIN_ADDR", ":9090")
	t.Setenv("ADMIN_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ADMIN_VERIFIER_URL", "https://auth.internal")
	t.Setenv("ADMIN_VERIFIER_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.True(t, cfg.Verifier.Enabled())
	assert.Equal(t, 2*time.Second, cfg.Verifier.Timeout)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("ADMIN_LOG_LEVEL", "warn")
	// Registered for cleanup so the value loaded from the file does not leak.
	t.Setenv("ADMIN_SERVICE_NAME", "")
	require.NoError(t, os.Unsetenv("ADMIN_SERVICE_NAME"))

	envFile := writeFile(t, ".env", "ADMIN_LOG_LEVEL=debug\nADMIN_SERVICE_NAME=shop-admin\n")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "shop-admin", cfg.Service)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv(FileEnv, "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := writeFile(t, "admin.yaml", `
addr: ":7000"
verifier:
  url: "http://verifier:8081"
  cache_ttl: 30s
  redis_url: "redis://cache:6379/0"
theme:
  bg_color: "#17212b"
  button_color: "#5288c1"
`)
	t.Setenv(FileEnv, path)
	t.Setenv("ADMIN_LOG_FORMAT", "text")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://verifier:8081", cfg.Verifier.URL)
	assert.Equal(t, "/verify", cfg.Verifier.Path)
	assert.Equal(t, 30*time.Second, cfg.Verifier.CacheTTL)
	assert.Equal(t, "#17212b", cfg.Theme.BgColor)
	assert.Equal(t, "#5288c1", cfg.Theme.ButtonColor)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Addr:           ":8080",
			LogLevel:       "info",
			LogFormat:      "json",
			RateLimitRPS:   1,
			RateLimitBurst: 1,
			Verifier:       VerifierConfig{Path: "/verify"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"empty addr":       func(c *Config) { c.Addr = "" },
		"bad level":        func(c *Config) { c.LogLevel = "loud" },
		"bad format":       func(c *Config) { c.LogFormat = "xml" },
		"zero rate":        func(c *Config) { c.RateLimitRPS = 0 },
		"bad theme":        func(c *Config) { c.Theme.BgColor = "red" },
		"relative url":     func(c *Config) { c.Verifier.URL = "verifier:8081" },
		"path without /":   func(c *Config) { c.Verifier.URL = "http://v"; c.Verifier.Path = "verify" },
		"bad redis scheme": func(c *Config) { c.Verifier.URL = "http://v"; c.Verifier.RedisURL = "http://cache" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
