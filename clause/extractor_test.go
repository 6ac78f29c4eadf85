package clause

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
	json llm.JSONResult
	text llm.Completion
}

func (f *fakeChat) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) llm.Completion {
	return f.text
}

func (f *fakeChat) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) llm.JSONResult {
	return f.json
}

func TestExtract_ParsesClauseList(t *testing.T) {
	raw := `[
		{"clause_id":"1","clause_heading":"1. Confidentiality","clause_text":"1. Confidentiality\nKeep it secret.","clause_type":"Confidentiality","rationale":"Covers secrecy."},
		{"clause_heading":"2. Payment","clause_text":"2. Payment\nPay net 30.","clause_type":"Payment","rationale":"Covers fees."}
	]`
	chat := &fakeChat{json: llm.JSONResult{Provider: "groq", Raw: json.RawMessage(raw)}}
	extractor := NewExtractor(chat)

	clauses, err := extractor.Extract(context.Background(), "contract text")
	require.NoError(t, err)
	require.Len(t, clauses, 2)

	assert.Equal(t, "1", clauses[0].ID)
	assert.Equal(t, models.ClauseConfidentiality, clauses[0].Type)
	assert.Equal(t, "groq", clauses[0].Provider)

	// Missing clause_id defaults to the 1-based position.
	assert.Equal(t, "2", clauses[1].ID)
	assert.Equal(t, models.ClausePayment, clauses[1].Type)
}

func TestExtract_UnknownTypeFallsBackToOther(t *testing.T) {
	raw := `[{"clause_id":"1","clause_text":"1. Misc\nStuff.","clause_type":"Miscellaneous"}]`
	chat := &fakeChat{json: llm.JSONResult{Provider: "groq", Raw: json.RawMessage(raw)}}

	clauses, err := NewExtractor(chat).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, models.ClauseOther, clauses[0].Type)
}

func TestExtract_DegradedGatewayIsError(t *testing.T) {
	chat := &fakeChat{json: llm.JSONResult{
		Provider:        llm.ProviderNone,
		Raw:             json.RawMessage(`{"risk_level":"UNKNOWN"}`),
		Uninterpretable: true,
	}}

	_, err := NewExtractor(chat).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoUsableOutput)
}

func TestExtract_ObjectInsteadOfListIsError(t *testing.T) {
	chat := &fakeChat{json: llm.JSONResult{Provider: "groq", Raw: json.RawMessage(`{"clause_id":"1"}`)}}

	_, err := NewExtractor(chat).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNotAClauseList)
}

func TestClauseHeadingLine(t *testing.T) {
	c := models.Clause{Text: "3. Confidentiality\nOld body."}
	assert.Equal(t, "3. Confidentiality", c.HeadingLine())
}
