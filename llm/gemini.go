package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider is the hard-fallback backend using the Google Generative AI
// client.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// NewGeminiProviderWithClient wraps an existing Gemini client
func NewGeminiProviderWithClient(client *genai.Client, model string) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string { return "gemini" }

// Complete sends a generation request to Gemini
func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(float32(temperature))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		if strings.Contains(err.Error(), "429") {
			return "", &RateLimitError{Provider: p.Name(), Err: err}
		}
		return "", fmt.Errorf("generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("API returned no candidates")
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	content := builder.String()
	if content == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	return content, nil
}
