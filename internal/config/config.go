package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/casebrief/internal/collector"
)

// envPrefix marks environment overrides, e.g. CASEBRIEF_MAX_QUESTIONS.
const envPrefix = "CASEBRIEF_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CASEBRIEF_*). Nested keys use a double
// underscore: CASEBRIEF_SERVER__PORT sets server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A configured slot table replaces the default one instead of merging
	// into it element by element.
	if k.Exists("slots") {
		cfg.Slots = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderGoogle:     true,
	ProviderOllama:     true,
	ProviderDeepSeek:   true,
	ProviderOpenRouter: true,
	ProviderNone:       true,
}

var validQualityTiers = map[QualityTier]bool{
	QualityLite:   true,
	QualityNormal: true,
	QualityMax:    true,
}

var validLogModes = map[string]bool{"": true, "dev": true, "prod": true}

var validExporters = map[string]bool{"": true, "none": true, "stdout": true, "otlp-http": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama, deepseek, openrouter, none", c.Provider)
	}
	if c.Provider != ProviderNone && c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Quality != "" && !validQualityTiers[c.Quality] {
		return fmt.Errorf("invalid quality %q: must be one of lite, normal, max", c.Quality)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.MaxQuestions < 0 {
		return fmt.Errorf("max_questions must be non-negative")
	}
	if c.ReaskLimit < 0 {
		return fmt.Errorf("reask_limit must be non-negative")
	}
	if c.OracleTimeoutSeconds < 0 {
		return fmt.Errorf("oracle_timeout_seconds must be non-negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("session_ttl_minutes must be non-negative")
	}

	if len(c.Slots) == 0 {
		return fmt.Errorf("at least one slot is required")
	}
	seen := make(map[string]bool, len(c.Slots))
	for i, s := range c.Slots {
		if s.Name == "" {
			return fmt.Errorf("slots[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("slots[%d]: duplicate slot %q", i, s.Name)
		}
		if s.MinLength < 0 {
			return fmt.Errorf("slots[%d]: min_length must be non-negative", i)
		}
		seen[s.Name] = true
	}
	if c.DefaultSlot != "" && !seen[c.DefaultSlot] {
		return fmt.Errorf("default_slot %q is not one of the configured slots", c.DefaultSlot)
	}

	if !validLogModes[c.LogMode] {
		return fmt.Errorf("invalid log_mode %q: must be dev or prod", c.LogMode)
	}
	if !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("invalid tracing.exporter %q: must be none, stdout, or otlp-http", c.Tracing.Exporter)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	return nil
}

// Policy converts the collector tunables into a collector.Policy.
func (c *Config) Policy() collector.Policy {
	return collector.Policy{
		MaxQuestions:  c.MaxQuestions,
		ReaskLimit:    c.ReaskLimit,
		DefaultSlot:   c.DefaultSlot,
		OracleTimeout: time.Duration(c.OracleTimeoutSeconds) * time.Second,
	}
}

// SessionTTL is how long a session snapshot stays in the cache.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// DBPath is the sqlite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "casebrief.db")
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}
