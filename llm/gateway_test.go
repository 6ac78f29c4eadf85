package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	p.calls++
	return p.text, p.err
}

func newTestGateway(providers ...Provider) *Gateway {
	g := NewGateway(
		WithProviders(providers...),
		WithRateLimitBackoff(0),
		WithProviderTimeout(time.Second),
	)
	g.sleep = func(time.Duration) {}
	return g
}

func TestComplete_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "groq", text: "hello"}
	secondary := &fakeProvider{name: "openrouter-llama", text: "unused"}
	g := newTestGateway(primary, secondary)

	result := g.Complete(context.Background(), "sys", "user", 0.2)

	assert.Equal(t, "groq", result.Provider)
	assert.Equal(t, "hello", result.Text)
	assert.False(t, result.Degraded())
	assert.Equal(t, 0, secondary.calls)
}

func TestComplete_RateLimitFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "groq", err: &RateLimitError{Provider: "groq", Err: errors.New("429")}}
	secondary := &fakeProvider{name: "openrouter-llama", text: "from secondary"}
	g := newTestGateway(primary, secondary)

	slept := false
	g.sleep = func(time.Duration) { slept = true }

	result := g.Complete(context.Background(), "sys", "user", 0.2)

	assert.Equal(t, "openrouter-llama", result.Provider)
	assert.Equal(t, "from secondary", result.Text)
	assert.True(t, slept, "rate limit should pause before falling back")
}

func TestComplete_GenericErrorFallsBackWithoutBackoff(t *testing.T) {
	primary := &fakeProvider{name: "groq", err: errors.New("boom")}
	secondary := &fakeProvider{name: "openrouter-llama", text: "ok"}
	g := newTestGateway(primary, secondary)

	slept := false
	g.sleep = func(time.Duration) { slept = true }

	result := g.Complete(context.Background(), "sys", "user", 0.2)

	assert.Equal(t, "openrouter-llama", result.Provider)
	assert.False(t, slept, "generic errors should advance immediately")
}

func TestComplete_LastProviderRateLimitSkipsBackoff(t *testing.T) {
	primary := &fakeProvider{name: "groq", err: errors.New("down")}
	last := &fakeProvider{name: "gemini", err: &RateLimitError{Provider: "gemini", Err: errors.New("429")}}
	g := newTestGateway(primary, last)

	slept := false
	g.sleep = func(time.Duration) { slept = true }

	result := g.Complete(context.Background(), "sys", "user", 0.2)

	assert.Equal(t, ProviderNone, result.Provider)
	assert.False(t, slept, "no next provider to protect, so no pause")
}

func TestComplete_AllProvidersFailReturnsSentinel(t *testing.T) {
	combos := [][]Provider{
		{},
		{&fakeProvider{name: "groq", err: errors.New("down")}},
		{
			&fakeProvider{name: "groq", err: &RateLimitError{Provider: "groq", Err: errors.New("429")}},
			&fakeProvider{name: "openrouter-llama", err: errors.New("down")},
			&fakeProvider{name: "gemini", err: errors.New("down")},
		},
	}

	for _, providers := range combos {
		g := newTestGateway(providers...)
		result := g.Complete(context.Background(), "sys", "user", 0.2)

		assert.Equal(t, ProviderNone, result.Provider)
		assert.True(t, result.Degraded())

		var payload SentinelPayload
		require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
		assert.Equal(t, "UNKNOWN", payload.RiskLevel)
		assert.Contains(t, payload.Explanation, "Manual compliance review")
	}
}

func TestCompleteJSON_ValidObject(t *testing.T) {
	p := &fakeProvider{name: "groq", text: `{"risk_level":"high","explanation":"bad"}`}
	g := newTestGateway(p)

	result := g.CompleteJSON(context.Background(), "sys", "user", 0)

	require.False(t, result.Uninterpretable)
	assert.Equal(t, "groq", result.Provider)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Raw, &parsed))
	assert.Equal(t, "high", parsed["risk_level"])
}

func TestCompleteJSON_RepairsEmbeddedObject(t *testing.T) {
	p := &fakeProvider{name: "groq", text: "Sure, here is the JSON:\n{\"severity\": \"low\", \"note\": \"has a } in a string\"}\nHope that helps!"}
	g := newTestGateway(p)

	result := g.CompleteJSON(context.Background(), "sys", "user", 0)

	require.False(t, result.Uninterpretable)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Raw, &parsed))
	assert.Equal(t, "low", parsed["severity"])
}

func TestCompleteJSON_RepairsEmbeddedArray(t *testing.T) {
	p := &fakeProvider{name: "groq", text: `prefix [{"clause_id":"1"},{"clause_id":"2"}] suffix`}
	g := newTestGateway(p)

	result := g.CompleteJSON(context.Background(), "sys", "user", 0)

	require.False(t, result.Uninterpretable)
	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Raw, &parsed))
	assert.Len(t, parsed, 2)
}

func TestCompleteJSON_UninterpretableOutput(t *testing.T) {
	p := &fakeProvider{name: "groq", text: "I cannot help with that."}
	g := newTestGateway(p)

	result := g.CompleteJSON(context.Background(), "sys", "user", 0)

	assert.True(t, result.Uninterpretable)
	assert.True(t, result.Degraded())
	assert.Equal(t, "groq", result.Provider)

	var payload SentinelPayload
	require.NoError(t, json.Unmarshal(result.Raw, &payload))
	assert.Equal(t, "UNKNOWN", payload.RiskLevel)
}

func TestExtractBalancedJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{`noise {"a":{"b":2}} trailing`, `{"a":{"b":2}}`, true},
		{`text [1,2,[3]] more`, `[1,2,[3]]`, true},
		{`{"s":"brace } inside"}`, `{"s":"brace } inside"}`, true},
		{`{"s":"escaped \" quote}"}`, `{"s":"escaped \" quote}"}`, true},
		{`{"unterminated": true`, "", false},
		{`no json here`, "", false},
	}

	for _, tc := range cases {
		got, ok := extractBalancedJSON(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
