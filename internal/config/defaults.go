package config

import (
	"time"

	"github.com/ziadkadry99/casebrief/internal/collector"
)

// QualityPreset describes the model to use for a given quality tier.
type QualityPreset struct {
	Model string
}

// qualityPresets maps each provider+quality combination to its model choice.
// The oracle only classifies and phrases one question, so lite models are
// usually enough.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001"},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929"},
		QualityMax:    {Model: "claude-opus-4-6"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini"},
		QualityNormal: {Model: "gpt-4o"},
		QualityMax:    {Model: "gpt-4.1"},
	},
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-2.5-flash"},
		QualityNormal: {Model: "gemini-2.5-flash"},
		QualityMax:    {Model: "gemini-2.5-pro"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3"},
		QualityNormal: {Model: "llama3"},
		QualityMax:    {Model: "llama3:70b"},
	},
	ProviderDeepSeek: {
		QualityLite:   {Model: "deepseek-chat"},
		QualityNormal: {Model: "deepseek-chat"},
		QualityMax:    {Model: "deepseek-reasoner"},
	},
	ProviderOpenRouter: {
		QualityLite:   {Model: "openai/gpt-4o-mini"},
		QualityNormal: {Model: "anthropic/claude-sonnet-4.5"},
		QualityMax:    {Model: "anthropic/claude-opus-4.1"},
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	policy := collector.DefaultPolicy()
	return &Config{
		Provider:             ProviderAnthropic,
		Model:                "claude-haiku-4-5-20251001",
		Quality:              QualityLite,
		DataDir:              ".casebrief",
		MaxQuestions:         policy.MaxQuestions,
		ReaskLimit:           policy.ReaskLimit,
		DefaultSlot:          policy.DefaultSlot,
		OracleTimeoutSeconds: int(policy.OracleTimeout / time.Second),
		RequestsPerMinute:    60,
		Slots:                collector.DefaultSlots(),
		LogMode:              "prod",
		SessionTTLMinutes:    60,
		Server:               ServerConfig{Port: 8080},
		Tracing:              TracingConfig{Exporter: "none"},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Anthropic preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
