package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini completion client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

// DefaultGeminiConfig returns sensible defaults. Low temperature keeps
// the structured-JSON output stable.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		Model:           "gemini-2.0-flash",
		Timeout:         60 * time.Second,
		Temperature:     0.3,
		MaxOutputTokens: 4096,
	}
}

// GeminiClient implements LLMClient on the Google Gemini API.
type GeminiClient struct {
	client          *genai.Client
	model           string
	timeout         time.Duration
	temperature     float32
	maxOutputTokens int32
}

// NewGeminiClient creates a Gemini completion client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := config.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &GeminiClient{
		client:          client,
		model:           model,
		timeout:         timeout,
		temperature:     float32(config.Temperature),
		maxOutputTokens: int32(maxTokens),
	}, nil
}

// Complete sends the prompt and returns the raw completion text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.temperature),
			TopP:            genai.Ptr[float32](1),
			TopK:            genai.Ptr[float32](1),
			MaxOutputTokens: c.maxOutputTokens,
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return text, nil
}
