package llm

import (
	"strings"

	"github.com/pkg/errors"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	// ProviderMock echoes the last user message and needs no credential.
	// Use it to run the API offline.
	ProviderMock = "mock"
)

// New builds the Client for provider.  An empty provider means OpenAI.
func New(provider string, cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, errors.Errorf("unknown LLM provider %q", provider)
	}
}
