package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Pipeline  PipelineConfig            `mapstructure:"pipeline"`
	Session   SessionConfig             `mapstructure:"session"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Server    ServerConfig              `mapstructure:"server"`
	Output    OutputConfig              `mapstructure:"output"`
}

// ProviderConfig holds the credential and overrides for one upstream provider.
// For ollama the api_key slot carries the host URL.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// PipelineConfig tunes invocation and batching.
type PipelineConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	Retries           int           `mapstructure:"retries"`
	Backoff           time.Duration `mapstructure:"backoff"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchDelay        time.Duration `mapstructure:"batch_delay"`
	PreferredProvider string        `mapstructure:"preferred_provider"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// OutputConfig controls where exported documents are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// ProviderNames lists the providers this build knows how to talk to, in registry order.
var ProviderNames = []string{"anthropic", "openai", "gemini", "ollama"}

// millisecond-valued variables kept for compatibility with existing .env files.
var legacyMillis = map[string]string{
	"AI_TIMEOUT_MS":     "pipeline.timeout",
	"AI_BATCH_DELAY_MS": "pipeline.batch_delay",
}

// Load reads configuration from the provided path or, when empty, from an optional
// sdsmcp.yaml in . or configs. Environment variables override file values
// (prefix: SDSMCP_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SDSMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindPlainEnv(v); err != nil {
		return nil, err
	}

	if path == "" {
		v.SetConfigName("sdsmcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for env, key := range legacyMillis {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw + "ms")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", env, err)
		}
		v.Set(key, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("pipeline.timeout", 30*time.Second)
	v.SetDefault("pipeline.retries", 1)
	v.SetDefault("pipeline.backoff", time.Second)
	v.SetDefault("pipeline.batch_size", 3)
	v.SetDefault("pipeline.batch_delay", time.Second)
	v.SetDefault("pipeline.preferred_provider", "")

	v.SetDefault("session.max_entries", 256)
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("server.addr", ":8088")
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("output.dir", "output")

	for _, name := range ProviderNames {
		v.SetDefault("providers."+name+".api_key", "")
		v.SetDefault("providers."+name+".model", "")
		v.SetDefault("providers."+name+".base_url", "")
	}
}

// bindPlainEnv maps the conventional un-prefixed variable names onto config keys.
func bindPlainEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"providers.anthropic.api_key": {"SDSMCP_PROVIDERS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"providers.openai.api_key":    {"SDSMCP_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"providers.gemini.api_key":    {"SDSMCP_PROVIDERS_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"providers.ollama.api_key":    {"SDSMCP_PROVIDERS_OLLAMA_API_KEY", "OLLAMA_HOST"},
		"pipeline.preferred_provider": {"SDSMCP_PIPELINE_PREFERRED_PROVIDER", "PREFERRED_AI_PROVIDER"},
		"pipeline.batch_size":         {"SDSMCP_PIPELINE_BATCH_SIZE", "AI_BATCH_SIZE"},
		"pipeline.retries":            {"SDSMCP_PIPELINE_RETRIES", "AI_MAX_RETRIES"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.Timeout <= 0 {
		return errors.New("pipeline.timeout must be > 0")
	}
	if c.Pipeline.Retries < 0 {
		return errors.New("pipeline.retries must be >= 0")
	}
	if c.Pipeline.Backoff < 0 {
		return errors.New("pipeline.backoff must be >= 0")
	}
	if c.Pipeline.BatchSize <= 0 {
		return errors.New("pipeline.batch_size must be > 0")
	}
	if c.Pipeline.BatchDelay < 0 {
		return errors.New("pipeline.batch_delay must be >= 0")
	}

	if pref := strings.ToLower(strings.TrimSpace(c.Pipeline.PreferredProvider)); pref != "" && !knownProvider(pref) {
		return fmt.Errorf("pipeline.preferred_provider %q is not one of %s", c.Pipeline.PreferredProvider, strings.Join(ProviderNames, ", "))
	}
	for name := range c.Providers {
		if !knownProvider(name) {
			return fmt.Errorf("unknown provider %q", name)
		}
	}

	if c.Session.MaxEntries <= 0 {
		return errors.New("session.max_entries must be > 0")
	}
	if c.Session.TTL < 0 {
		return errors.New("session.ttl must be >= 0")
	}

	var lvl zapcore.Level
	if err := lvl.Set(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console or json, got %q", c.Logging.Format)
	}

	return nil
}

// Provider returns the configuration for name, or a zero value.
func (c *Config) Provider(name string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[name]
}

func knownProvider(name string) bool {
	for _, n := range ProviderNames {
		if n == name {
			return true
		}
	}
	return false
}
