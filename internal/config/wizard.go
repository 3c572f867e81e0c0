package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path, and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to casebrief! Let's configure the intake assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for the sufficiency oracle",
		Items: []string{"anthropic", "openai", "google", "ollama", "deepseek", "openrouter", "none"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Quality tier.
	if cfg.Provider != ProviderNone {
		qualityPrompt := promptui.Select{
			Label: "Select quality tier",
			Items: []string{
				"lite   (fast and cheap, enough for most intakes)",
				"normal (balanced)",
				"max    (highest quality)",
			},
		}
		qualityIdx, _, err := qualityPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("quality selection: %w", err)
		}
		tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
		cfg.Quality = tiers[qualityIdx]
		cfg.Model = GetPreset(cfg.Provider, cfg.Quality).Model
	} else {
		cfg.Model = ""
	}

	// 3. Question budget.
	budgetPrompt := promptui.Prompt{
		Label:    "Maximum follow-up questions per intake",
		Default:  strconv.Itoa(cfg.MaxQuestions),
		Validate: validateNonNegativeInt,
	}
	budgetStr, err := budgetPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("question budget: %w", err)
	}
	cfg.MaxQuestions, _ = strconv.Atoi(strings.TrimSpace(budgetStr))

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory for the session database",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Optional Redis cache.
	redisPrompt := promptui.Prompt{
		Label:   "Redis URL for session caching (leave blank to disable)",
		Default: "",
	}
	cfg.RedisURL, err = redisPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running casebrief intake.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must be zero or more")
	}
	return nil
}
