package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sdsmcp.yaml")
	configYAML := `
providers:
  anthropic:
    api_key: dummy
    model: claude-test
pipeline:
  timeout: 10s
  batch_size: 5
  preferred_provider: anthropic
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "dummy", cfg.Provider("anthropic").APIKey)
	require.Equal(t, "claude-test", cfg.Provider("anthropic").Model)
	require.Equal(t, 10*time.Second, cfg.Pipeline.Timeout)
	require.Equal(t, 5, cfg.Pipeline.BatchSize)
	require.Equal(t, time.Second, cfg.Pipeline.BatchDelay)
	require.Equal(t, "anthropic", cfg.Pipeline.PreferredProvider)
	require.Equal(t, 256, cfg.Session.MaxEntries)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	require.Equal(t, 3, cfg.Pipeline.BatchSize)
	require.Equal(t, 1, cfg.Pipeline.Retries)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PREFERRED_AI_PROVIDER", "openai")
	t.Setenv("AI_BATCH_SIZE", "4")
	t.Setenv("AI_TIMEOUT_MS", "1500")
	t.Setenv("AI_BATCH_DELAY_MS", "250")
	t.Setenv("SDSMCP_SESSION_MAX_ENTRIES", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "sk-env", cfg.Provider("openai").APIKey)
	require.Equal(t, "openai", cfg.Pipeline.PreferredProvider)
	require.Equal(t, 4, cfg.Pipeline.BatchSize)
	require.Equal(t, 1500*time.Millisecond, cfg.Pipeline.Timeout)
	require.Equal(t, 250*time.Millisecond, cfg.Pipeline.BatchDelay)
	require.Equal(t, 8, cfg.Session.MaxEntries)
}

func TestValidateRejectsBadValues(t *testing.T) {
	valid := func() Config {
		return Config{
			Pipeline: PipelineConfig{Timeout: time.Second, BatchSize: 3},
			Session:  SessionConfig{MaxEntries: 1},
			Logging:  LoggingConfig{Level: "info"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"zero batch":         func(c *Config) { c.Pipeline.BatchSize = 0 },
		"negative retries":   func(c *Config) { c.Pipeline.Retries = -1 },
		"zero timeout":       func(c *Config) { c.Pipeline.Timeout = 0 },
		"negative delay":     func(c *Config) { c.Pipeline.BatchDelay = -time.Second },
		"unknown preferred":  func(c *Config) { c.Pipeline.PreferredProvider = "cohere" },
		"unknown provider":   func(c *Config) { c.Providers = map[string]ProviderConfig{"cohere": {}} },
		"bad log level":      func(c *Config) { c.Logging.Level = "loud" },
		"bad log format":     func(c *Config) { c.Logging.Format = "xml" },
		"zero session bound": func(c *Config) { c.Session.MaxEntries = 0 },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		require.Error(t, c.Validate(), name)
	}
}
