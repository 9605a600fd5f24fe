// Package llm provides the text-generation delegate the pipeline stages call, plus the
// provider clients behind it (Gemini, Google GenAI, Anthropic).
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cleanup and scoring stages
	TierLite ModelTier = "lite"
	// TierStandard is for rewriting stages
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for stages that need deeper reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini uses the generative-ai-go SDK
	ProviderGemini Provider = "gemini"
	// ProviderGenAI uses the unified google.golang.org/genai SDK (Gemini API or Vertex)
	ProviderGenAI Provider = "genai"
	// ProviderAnthropic uses the Anthropic Messages API
	ProviderAnthropic Provider = "anthropic"
)

// Config holds the model configuration for one provider
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default model set for a provider.
// Unknown providers get the Gemini models.
func DefaultConfig(provider Provider) *Config {
	switch provider {
	case ProviderAnthropic:
		return &Config{
			Provider: ProviderAnthropic,
			Models: map[ModelTier]string{
				TierLite:     "claude-3-5-haiku-latest",
				TierStandard: "claude-sonnet-4-5",
				TierAdvanced: "claude-opus-4-1",
			},
		}
	case ProviderGenAI:
		cfg := defaultGeminiModels()
		cfg.Provider = ProviderGenAI
		return cfg
	default:
		return defaultGeminiModels()
	}
}

func defaultGeminiModels() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithOverrides applies tier -> model overrides given as plain strings (from configuration).
func (c *Config) WithOverrides(models map[string]string) *Config {
	result := c
	for tier, model := range models {
		if model == "" {
			continue
		}
		result = result.WithModel(ModelTier(tier), model)
	}
	return result
}
