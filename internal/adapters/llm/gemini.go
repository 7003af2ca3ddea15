// Package llm provides the Gemini LLM adapter.
// Clean Architecture: Adapter implementing ports.LLMService.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// GeminiAdapter implements ports.LLMService using Google's Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiAdapter creates a Gemini adapter. The API key is required;
// callers that have none run in rule-engine-only mode and never
// construct this adapter.
func NewGeminiAdapter(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiAdapter{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Generate produces a response for the prompt. Upstream failures are
// reported inside the result so callers can branch to their fallback
// without unwrapping errors.
func (a *GeminiAdapter) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (*entities.LLMResult, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			MaxOutputTokens: int32(maxTokens),
		})
	if err != nil {
		a.logger.Error("gemini generation failed", zap.Error(err))
		return &entities.LLMResult{
			Success: false,
			Model:   a.model,
			Error:   err.Error(),
		}, nil
	}

	text := resp.Text()
	if text == "" {
		return &entities.LLMResult{
			Success: false,
			Model:   a.model,
			Error:   "empty response",
		}, nil
	}

	return &entities.LLMResult{
		Success: true,
		Text:    text,
		Model:   a.model,
	}, nil
}

// GenerateWithFallback returns the generated text, or fallback when
// generation fails for any reason.
func (a *GeminiAdapter) GenerateWithFallback(ctx context.Context, prompt, fallback string, temperature float32, maxTokens int) string {
	result, err := a.Generate(ctx, prompt, temperature, maxTokens)
	if err != nil || !result.Success {
		a.logger.Warn("using fallback response", zap.String("reason", resultError(result, err)))
		return fallback
	}
	return result.Text
}

// CheckConnection verifies the API is reachable with a minimal request.
func (a *GeminiAdapter) CheckConnection(ctx context.Context) bool {
	result, err := a.Generate(ctx, "Say 'hello' to test the connection.", 0.1, 10)
	return err == nil && result.Success
}

// Model reports the configured model name.
func (a *GeminiAdapter) Model() string {
	return a.model
}

func resultError(result *entities.LLMResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil {
		return result.Error
	}
	return "unknown"
}
