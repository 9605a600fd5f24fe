package llm

import (
	"context"
	"fmt"
)

// Client is an abstraction over LLM providers
type Client interface {
	// Generate runs one request and returns the raw text answer
	Generate(ctx context.Context, req Request) (string, error)
	// GetModel returns the provider model used for a tier
	GetModel(tier ModelTier) string
	// Provider names the backing provider
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// ClientOptions carries the provider credentials and model overrides.
type ClientOptions struct {
	Provider Provider
	APIKey   string
	Models   map[string]string
	Backend  string // genai: gemini-api or vertex
	Project  string // genai vertex only
	Location string // genai vertex only
}

// NewClient creates the client for the configured provider
func NewClient(ctx context.Context, opts ClientOptions) (Client, error) {
	config := DefaultConfig(opts.Provider).WithOverrides(opts.Models)

	switch opts.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, opts.APIKey)
	case ProviderGenAI:
		return NewGenAIClient(ctx, config, opts)
	case ProviderAnthropic:
		return NewAnthropicClient(config, opts.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", opts.Provider)
	}
}
