package llm

import "strings"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// defaultMaxTokens is used when a request leaves MaxTokens unset.
const defaultMaxTokens = 1024

// maxTokensOrDefault returns req.MaxTokens, or defaultMaxTokens when unset.
func (req CompletionRequest) maxTokensOrDefault() int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// splitSystem joins all system messages into one prompt and returns the
// remaining conversation turns. Providers with a dedicated system field use it.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}
