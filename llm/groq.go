package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	groqAPI          = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel = "llama-3.3-70b-versatile"
)

// GroqProvider is the primary backend, an OpenAI-compatible chat API.
type GroqProvider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

// Name returns the provider name
func (p *GroqProvider) Name() string { return "groq" }

// Complete sends a chat completion request to Groq
func (p *GroqProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	return chatCompletionRequest(ctx, p.client, groqAPI, p.apiKey, p.Name(), p.model, systemPrompt, userPrompt, temperature)
}

// chatMessage is one message in an OpenAI-compatible chat request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest performs an OpenAI-compatible chat completion call.
// HTTP 429 is classified as a rate-limit failure so the gateway backs off
// before falling through.
func chatCompletionRequest(ctx context.Context, client *http.Client, url, apiKey, provider, model, systemPrompt, userPrompt string, temperature float64) (string, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"temperature": temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: provider, Err: fmt.Errorf("API status %d", resp.StatusCode)}
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	content := apiResp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	return content, nil
}
