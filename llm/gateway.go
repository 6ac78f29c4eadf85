package llm

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"
)

// ProviderNone tags the sentinel completion returned when every backend
// failed. Callers distinguish degraded output by this field, never by
// inspecting text content.
const ProviderNone = "none"

const (
	defaultProviderTimeout = 120 * time.Second
	rateLimitBackoff       = time.Second
)

// Completion is the uniform result of a gateway call.
type Completion struct {
	Provider string `json:"llm_used"`
	Text     string `json:"content"`
}

// Degraded reports whether this completion is the sentinel placeholder.
func (c Completion) Degraded() bool { return c.Provider == ProviderNone }

// JSONResult is the outcome of CompleteJSON. Raw always holds valid JSON:
// either the (possibly repaired) model output, or the sentinel payload when
// Uninterpretable is set. Callers must treat Uninterpretable identically to a
// gateway-level failure.
type JSONResult struct {
	Provider        string
	Raw             json.RawMessage
	Uninterpretable bool
}

// Degraded reports whether the result carries no usable model output.
func (r JSONResult) Degraded() bool { return r.Provider == ProviderNone || r.Uninterpretable }

// SentinelPayload is the machine-readable placeholder emitted when no
// provider produced usable output.
type SentinelPayload struct {
	RiskLevel   string `json:"risk_level"`
	Explanation string `json:"explanation"`
	Regulation  string `json:"regulation"`
}

func sentinelPayload(explanation string) SentinelPayload {
	return SentinelPayload{
		RiskLevel:   "UNKNOWN",
		Explanation: explanation,
		Regulation:  "N/A",
	}
}

// Chat is the completion surface consumed by the pipeline components. The
// Gateway implements it; tests substitute fakes.
type Chat interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) Completion
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) JSONResult
}

// Gateway routes completions across an ordered provider chain with fallback.
// It never returns an error: provider-level faults are recovered here and
// surface only as the sentinel completion.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
	backoff   time.Duration
	sleep     func(time.Duration)
}

// GatewayOption is a functional option for Gateway
type GatewayOption func(*Gateway)

// WithProviders sets the ordered provider chain
func WithProviders(providers ...Provider) GatewayOption {
	return func(g *Gateway) {
		g.providers = providers
	}
}

// WithProviderTimeout bounds each individual provider call
func WithProviderTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithRateLimitBackoff sets the pause taken after a rate-limited failure
// before trying the next provider
func WithRateLimitBackoff(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.backoff = d
	}
}

// NewGateway creates a new gateway
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		timeout: defaultProviderTimeout,
		backoff: rateLimitBackoff,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGatewayFromEnv wires the provider chain from environment variables,
// skipping backends whose API keys are unset. Priority order is Groq,
// OpenRouter, then Gemini as the hard fallback.
func NewGatewayFromEnv(ctx context.Context) *Gateway {
	var providers []Provider

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		providers = append(providers, NewGroqProvider(key, os.Getenv("GROQ_MODEL")))
	} else {
		log.Println("Warning: GROQ_API_KEY not set; Groq provider disabled")
	}

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		providers = append(providers, NewOpenRouterProvider(key, os.Getenv("OPENROUTER_MODEL")))
	} else {
		log.Println("Warning: OPENROUTER_API_KEY not set; OpenRouter provider disabled")
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		gemini, err := NewGeminiProvider(ctx, key, os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.Printf("Warning: failed to initialize Gemini provider: %v", err)
		} else {
			providers = append(providers, gemini)
		}
	} else {
		log.Println("Warning: GEMINI_API_KEY not set; Gemini provider disabled")
	}

	return NewGateway(WithProviders(providers...))
}

// Complete tries providers in priority order and returns the first usable
// response. On rate limit it pauses briefly and advances; on any other
// failure it logs and advances immediately. When every provider fails it
// returns the sentinel completion instead of an error.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) Completion {
	for i, p := range g.providers {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		text, err := p.Complete(callCtx, systemPrompt, userPrompt, temperature)
		cancel()

		if err == nil {
			return Completion{Provider: p.Name(), Text: text}
		}

		if IsRateLimit(err) {
			if i == len(g.providers)-1 {
				log.Printf("Warning: %s rate limit hit, no providers left", p.Name())
				continue
			}
			log.Printf("Warning: %s rate limit hit, falling back to next provider", p.Name())
			g.sleep(g.backoff)
			continue
		}

		log.Printf("Warning: %s error: %v", p.Name(), err)
	}

	payload, _ := json.Marshal(sentinelPayload("LLM unavailable. Manual compliance review required."))
	return Completion{Provider: ProviderNone, Text: string(payload)}
}

// CompleteJSON runs Complete and parses the text as a JSON object or array.
// If parsing fails it extracts the first balanced object/array substring and
// reparses; if that also fails it returns an uninterpretable result carrying
// the sentinel payload.
func (g *Gateway) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) JSONResult {
	result := g.Complete(ctx, systemPrompt, userPrompt, temperature)

	if raw, ok := parseJSONValue(result.Text); ok {
		return JSONResult{Provider: result.Provider, Raw: raw}
	}

	if extracted, ok := extractBalancedJSON(result.Text); ok {
		if raw, ok := parseJSONValue(extracted); ok {
			return JSONResult{Provider: result.Provider, Raw: raw}
		}
	}

	payload, _ := json.Marshal(sentinelPayload("Invalid JSON from LLM. Manual review required."))
	return JSONResult{Provider: result.Provider, Raw: payload, Uninterpretable: true}
}

// parseJSONValue accepts only object or array roots.
func parseJSONValue(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// extractBalancedJSON locates the first balanced {...} or [...] substring,
// tracking string literals and escapes so braces inside strings don't count.
func extractBalancedJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
