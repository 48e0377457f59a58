package agent

import "context"

// LLMClient abstracts the chat-completion model so agents can be tested
// against a mock and providers can be swapped via config.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the provider configuration handed to concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
