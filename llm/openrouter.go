package llm

import (
	"context"
	"net/http"
)

const (
	openRouterAPI          = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "meta-llama/llama-3.1-8b-instruct"
)

// OpenRouterProvider is the secondary backend, wire-compatible with the
// OpenAI chat API.
type OpenRouterProvider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenRouterProvider creates a new OpenRouter provider
func NewOpenRouterProvider(apiKey, model string) *OpenRouterProvider {
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &OpenRouterProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string { return "openrouter-llama" }

// Complete sends a chat completion request to OpenRouter
func (p *OpenRouterProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	return chatCompletionRequest(ctx, p.client, openRouterAPI, p.apiKey, p.Name(), p.model, systemPrompt, userPrompt, temperature)
}
