package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama",
// "deepseek", "openrouter".
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey, err := requireEnv("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey, err := requireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "google":
		apiKey, err := requireEnv("GOOGLE_API_KEY")
		if err != nil {
			return nil, err
		}
		p, err := NewGoogleProvider(apiKey, model)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "deepseek":
		apiKey, err := requireEnv("DEEPSEEK_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewCompatProvider("deepseek", deepseekBaseURL, apiKey, model), nil

	case "openrouter":
		apiKey, err := requireEnv("OPENROUTER_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewCompatProvider("openrouter", openrouterBaseURL, apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is not set", name)
	}
	return v, nil
}
