package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient implements Client on the unified Google GenAI SDK, which can target either
// the Gemini API (API key) or Vertex AI (project and location).
type GenAIClient struct {
	client *genai.Client
	config *Config
}

// NewGenAIClient creates a client for the backend named in opts.
func NewGenAIClient(ctx context.Context, config *Config, opts ClientOptions) (*GenAIClient, error) {
	cfg := &genai.ClientConfig{}

	switch opts.Backend {
	case "vertex":
		if strings.TrimSpace(opts.Project) == "" || strings.TrimSpace(opts.Location) == "" {
			return nil, errors.New("vertex backend requires project and location")
		}
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = opts.Project
		cfg.Location = opts.Location
	default:
		apiKey := strings.TrimSpace(opts.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		cfg.Backend = genai.BackendGeminiAPI
		cfg.APIKey = apiKey
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// Generate runs the request with the stage temperature and system instruction.
func (c *GenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if system := req.SystemPrompt(); system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(req.UserPrompt()), genCfg)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGenAI, Model: modelName, Cause: err}
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ErrEmptyOutput
	}
	return output, nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Provider returns ProviderGenAI
func (c *GenAIClient) Provider() Provider {
	return ProviderGenAI
}

// Close is a no-op; the GenAI client holds no closable resources.
func (c *GenAIClient) Close() error {
	return nil
}
