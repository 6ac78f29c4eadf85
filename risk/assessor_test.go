package risk

import (
	"context"
	"encoding/json"
	"testing"

	"contractguard-backend/llm"
	"contractguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	results []llm.JSONResult
	calls   int
}

func (f *fakeChat) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) llm.Completion {
	return llm.Completion{}
}

func (f *fakeChat) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) llm.JSONResult {
	result := f.results[f.calls%len(f.results)]
	f.calls++
	return result
}

func jsonResult(provider, raw string) llm.JSONResult {
	return llm.JSONResult{Provider: provider, Raw: json.RawMessage(raw)}
}

func TestAssess_ParsesRiskLevelShape(t *testing.T) {
	chat := &fakeChat{results: []llm.JSONResult{jsonResult("groq",
		`{"risk_level":"high","risk_score":82,"risk_factors":["unlimited liability"],"missing_controls":["cap"],"regulation_violations":["GDPR"],"explanation":"  uncapped exposure  "}`)}}

	verdict := NewAssessor(chat).Assess(context.Background(), "clause text")

	assert.Equal(t, models.SeverityHigh, verdict.Severity)
	assert.Equal(t, "high", verdict.RawLevel)
	assert.Equal(t, 82, verdict.Score)
	assert.Equal(t, []string{"unlimited liability"}, verdict.Factors)
	assert.Equal(t, "uncapped exposure", verdict.RiskReason)
	assert.Equal(t, verdict.Explanation, verdict.RiskReason)
	assert.Equal(t, "groq", verdict.Provider)
}

func TestAssess_SeverityKeyWinsOverRiskLevel(t *testing.T) {
	chat := &fakeChat{results: []llm.JSONResult{jsonResult("groq",
		`{"severity":"low","risk_level":"high","explanation":"fine"}`)}}

	verdict := NewAssessor(chat).Assess(context.Background(), "clause text")

	assert.Equal(t, models.SeverityLow, verdict.Severity)
	assert.Equal(t, "low", verdict.RawLevel)
}

func TestAssess_SeverityNormalization(t *testing.T) {
	cases := map[string]models.Severity{
		"low":      models.SeverityLow,
		"LOW":      models.SeverityLow,
		"Medium":   models.SeverityMedium,
		"HIGH":     models.SeverityHigh,
		"critical": models.SeverityMedium,
		"severe":   models.SeverityMedium,
		"UNKNOWN":  models.SeverityMedium,
		"":         models.SeverityMedium,
	}

	for raw, want := range cases {
		payload, err := json.Marshal(map[string]string{"risk_level": raw, "explanation": "x"})
		require.NoError(t, err)
		chat := &fakeChat{results: []llm.JSONResult{jsonResult("groq", string(payload))}}

		verdict := NewAssessor(chat).Assess(context.Background(), "clause")
		assert.Equal(t, want, verdict.Severity, "raw label %q", raw)
		assert.Contains(t, []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh}, verdict.Severity)
	}
}

func TestAssess_DegradedGatewayYieldsSafeDefault(t *testing.T) {
	chat := &fakeChat{results: []llm.JSONResult{{
		Provider:        llm.ProviderNone,
		Raw:             json.RawMessage(`{"risk_level":"UNKNOWN","explanation":"LLM unavailable. Manual compliance review required.","regulation":"N/A"}`),
		Uninterpretable: false,
	}}}

	verdict := NewAssessor(chat).Assess(context.Background(), "clause")

	assert.Equal(t, models.SeverityMedium, verdict.Severity)
	assert.Equal(t, "UNKNOWN", verdict.RawLevel)
	assert.Equal(t, llm.ProviderNone, verdict.Provider)
	assert.NotEmpty(t, verdict.RiskReason)
}

func TestAssess_NonObjectPayloadYieldsSafeDefault(t *testing.T) {
	chat := &fakeChat{results: []llm.JSONResult{jsonResult("groq", `["not","an","object"]`)}}

	verdict := NewAssessor(chat).Assess(context.Background(), "clause")

	assert.Equal(t, models.SeverityMedium, verdict.Severity)
	assert.Contains(t, verdict.RiskReason, "Manual review required")
}

func TestAssessAll_PreservesOrder(t *testing.T) {
	chat := &fakeChat{results: []llm.JSONResult{
		jsonResult("groq", `{"risk_level":"low","explanation":"a"}`),
		jsonResult("groq", `{"risk_level":"high","explanation":"b"}`),
		jsonResult("groq", `{"risk_level":"medium","explanation":"c"}`),
	}}

	clauses := []models.Clause{
		{ID: "1", Text: "one"},
		{ID: "2", Text: "two"},
		{ID: "3", Text: "three"},
	}

	assessed := NewAssessor(chat).AssessAll(context.Background(), clauses)

	require.Len(t, assessed, 3)
	assert.Equal(t, "1", assessed[0].Clause.ID)
	assert.Equal(t, models.SeverityLow, assessed[0].Risk.Severity)
	assert.Equal(t, "2", assessed[1].Clause.ID)
	assert.Equal(t, models.SeverityHigh, assessed[1].Risk.Severity)
	assert.Equal(t, "3", assessed[2].Clause.ID)
	assert.Equal(t, models.SeverityMedium, assessed[2].Risk.Severity)
}
