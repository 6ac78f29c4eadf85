package clause

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"contractguard-backend/llm"
	"contractguard-backend/models"
)

var (
	ErrNoUsableOutput = errors.New("no usable model output for clause extraction")
	ErrNotAClauseList = errors.New("model output is not a clause list")
)

const extractionSystemPrompt = `You are a senior legal analyst AI.
Your task is to extract ALL meaningful legal clauses from a contract.
Output MUST be a valid JSON array.

Each clause object must contain:
- clause_id (string)
- clause_heading (string or null)
- clause_text (full clause text)
- clause_type (categorize into: Confidentiality, Termination, Indemnity, Liability, Payment, Data Protection, IP, SLA, Assignment, Governing Law, Dispute Resolution, Other)
- rationale (1 sentence why this classification is correct)`

const extractionUserPromptTemplate = `Extract all clauses from the following contract text:

<CONTRACT_TEXT>
%s
</CONTRACT_TEXT>

Return ONLY a JSON array of objects with the exact schema described.
DO NOT add commentary or text outside JSON.`

// Extractor turns normalized contract text into an ordered sequence of
// clause records. It treats every input as an independent document; chunking
// and chunk-prefixed clause ids are the caller's responsibility.
type Extractor struct {
	chat llm.Chat
}

// NewExtractor creates a new clause extractor
func NewExtractor(chat llm.Chat) *Extractor {
	return &Extractor{chat: chat}
}

// clausePayload mirrors the JSON schema requested from the model.
type clausePayload struct {
	ClauseID      string `json:"clause_id"`
	ClauseHeading string `json:"clause_heading"`
	ClauseText    string `json:"clause_text"`
	ClauseType    string `json:"clause_type"`
	Rationale     string `json:"rationale"`
}

// Extract extracts clauses from contract text, preserving the model's
// discovery order. Every clause gets a non-empty id: missing ids default to
// the 1-based position. A degraded gateway result is an error here, since
// the rest of the pipeline has nothing to work with.
func (e *Extractor) Extract(ctx context.Context, text string) ([]models.Clause, error) {
	result := e.chat.CompleteJSON(ctx, extractionSystemPrompt, fmt.Sprintf(extractionUserPromptTemplate, text), 0.0)
	if result.Degraded() {
		return nil, ErrNoUsableOutput
	}

	var payloads []clausePayload
	if err := json.Unmarshal(result.Raw, &payloads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAClauseList, err)
	}

	clauses := make([]models.Clause, 0, len(payloads))
	for i, p := range payloads {
		id := strings.TrimSpace(p.ClauseID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		clauses = append(clauses, models.Clause{
			ID:        id,
			Heading:   strings.TrimSpace(p.ClauseHeading),
			Text:      p.ClauseText,
			Type:      normalizeClauseType(p.ClauseType),
			Rationale: strings.TrimSpace(p.Rationale),
			Provider:  result.Provider,
		})
	}

	return clauses, nil
}

// normalizeClauseType maps free-form model labels onto the fixed taxonomy.
func normalizeClauseType(raw string) models.ClauseType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confidentiality":
		return models.ClauseConfidentiality
	case "termination":
		return models.ClauseTermination
	case "indemnity", "indemnification":
		return models.ClauseIndemnity
	case "liability":
		return models.ClauseLiability
	case "payment":
		return models.ClausePayment
	case "data protection", "dataprotection":
		return models.ClauseDataProtection
	case "ip", "intellectual property":
		return models.ClauseIP
	case "sla", "service level", "service levels":
		return models.ClauseSLA
	case "assignment":
		return models.ClauseAssignment
	case "governing law", "governinglaw":
		return models.ClauseGoverningLaw
	case "dispute resolution", "disputeresolution":
		return models.ClauseDisputeResolution
	default:
		return models.ClauseOther
	}
}
