package config

import "github.com/ziadkadry99/casebrief/internal/collector"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderDeepSeek   ProviderType = "deepseek"
	ProviderOpenRouter ProviderType = "openrouter"
	// ProviderNone runs without an oracle: local thresholds and canned questions only.
	ProviderNone ProviderType = "none"
)

// Config is the top-level casebrief configuration, corresponding to .casebrief.yml.
type Config struct {
	Provider             ProviderType     `yaml:"provider" koanf:"provider"`
	Model                string           `yaml:"model" koanf:"model"`
	Quality              QualityTier      `yaml:"quality" koanf:"quality"`
	DataDir              string           `yaml:"data_dir" koanf:"data_dir"`
	MaxQuestions         int              `yaml:"max_questions" koanf:"max_questions"`
	ReaskLimit           int              `yaml:"reask_limit" koanf:"reask_limit"`
	DefaultSlot          string           `yaml:"default_slot" koanf:"default_slot"`
	OracleTimeoutSeconds int              `yaml:"oracle_timeout_seconds" koanf:"oracle_timeout_seconds"`
	RequestsPerMinute    int              `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Slots                []collector.Slot `yaml:"slots" koanf:"slots"`
	LogMode              string           `yaml:"log_mode" koanf:"log_mode"`
	RedisURL             string           `yaml:"redis_url" koanf:"redis_url"`
	SessionTTLMinutes    int              `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`
	Server               ServerConfig     `yaml:"server" koanf:"server"`
	Tracing              TracingConfig    `yaml:"tracing" koanf:"tracing"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port" koanf:"port"`
}

// TracingConfig selects the OpenTelemetry exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter" koanf:"exporter"`
	Endpoint string `yaml:"endpoint" koanf:"endpoint"`
}
