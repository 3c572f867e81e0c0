package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Base URLs of OpenAI-compatible chat endpoints.
const (
	deepseekBaseURL   = "https://api.deepseek.com/v1"
	openrouterBaseURL = "https://openrouter.ai/api/v1"
)

// CompatProvider talks to any OpenAI-compatible chat completions endpoint.
type CompatProvider struct {
	name   string
	client openai.Client
	model  string
}

// NewCompatProvider creates a provider for an OpenAI-compatible endpoint.
func NewCompatProvider(name, baseURL, apiKey, model string) *CompatProvider {
	return &CompatProvider{
		name: name,
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		),
		model: model,
	}
}

func (p *CompatProvider) Name() string {
	return p.name
}

// Complete sends a chat completion. JSONMode is not forwarded; not every
// compatible backend honours response_format.
func (p *CompatProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(req.maxTokensOrDefault())),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.name)
	}

	return &CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}
