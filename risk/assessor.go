package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"contractguard-backend/llm"
	"contractguard-backend/models"
)

const assessmentSystemPrompt = `You are a Senior Regulatory Compliance Officer specializing in contract law.
Your task is to evaluate LEGAL RISK for each contract clause.

You MUST output ONLY valid JSON in the following structure:

{
  "risk_level": "low" | "medium" | "high",
  "risk_score": number (0-100),
  "risk_factors": [ list of key concerns ],
  "missing_controls": [ list of missing protections ],
  "regulation_violations": [ list of violated or implicated regulations ],
  "explanation": "short summary written for compliance analysts"
}

Rules:
- Base risk on the meaning of the clause, not keywords.
- Evaluate confidentiality, liability, indemnity, data protection, IP, and regulatory exposure.
- Consider GDPR, HIPAA, SOC2, ISO27001, and general contract law.
- Be strict. If uncertain, classify as medium risk.`

const assessmentUserPromptTemplate = `Evaluate the legal and regulatory risk of the following clause:

<CLAUSE_TEXT>
%s
</CLAUSE_TEXT>

Return ONLY the JSON object described in the system prompt.`

// Assessor scores clause risk via the model gateway. It never returns an
// error: any provider-layer fault or unparseable payload degrades to the
// UNKNOWN/medium verdict.
type Assessor struct {
	chat llm.Chat
}

// NewAssessor creates a new risk assessor
func NewAssessor(chat llm.Chat) *Assessor {
	return &Assessor{chat: chat}
}

// riskPayload tolerates both payload shapes the model produces: some runs
// label severity "risk_level", others "severity". The shape is resolved here
// exactly once; downstream code only ever sees the canonical verdict.
type riskPayload struct {
	RiskLevel            string   `json:"risk_level"`
	Severity             string   `json:"severity"`
	RiskScore            float64  `json:"risk_score"`
	RiskFactors          []string `json:"risk_factors"`
	MissingControls      []string `json:"missing_controls"`
	RegulationViolations []string `json:"regulation_violations"`
	Explanation          string   `json:"explanation"`
}

// Assess evaluates one clause's text and returns a normalized verdict.
func (a *Assessor) Assess(ctx context.Context, clauseText string) models.RiskVerdict {
	result := a.chat.CompleteJSON(ctx, assessmentSystemPrompt, fmt.Sprintf(assessmentUserPromptTemplate, clauseText), 0.0)

	var payload riskPayload
	if err := json.Unmarshal(result.Raw, &payload); err != nil {
		log.Printf("Warning: risk payload not an object, using safe default: %v", err)
		payload = riskPayload{
			RiskLevel:   "UNKNOWN",
			Explanation: "Invalid JSON from LLM. Manual review required.",
		}
	}

	rawLevel := payload.Severity
	if rawLevel == "" {
		rawLevel = payload.RiskLevel
	}

	explanation := strings.TrimSpace(payload.Explanation)

	return models.RiskVerdict{
		Severity:            models.NormalizeSeverity(rawLevel),
		RawLevel:            rawLevel,
		Score:               int(payload.RiskScore),
		Factors:             payload.RiskFactors,
		MissingControls:     payload.MissingControls,
		ViolatedRegulations: payload.RegulationViolations,
		Explanation:         explanation,
		RiskReason:          explanation,
		Provider:            result.Provider,
	}
}

// AssessAll assesses every clause in order. Per-clause calls are independent;
// the returned slice matches the input order one-to-one.
func (a *Assessor) AssessAll(ctx context.Context, clauses []models.Clause) []models.AssessedClause {
	assessed := make([]models.AssessedClause, 0, len(clauses))
	for _, c := range clauses {
		log.Printf("Evaluating risk for clause %s", c.ID)
		assessed = append(assessed, models.AssessedClause{
			Clause: c,
			Risk:   a.Assess(ctx, c.Text),
		})
	}
	return assessed
}
