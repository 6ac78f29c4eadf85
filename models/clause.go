package models

import "strings"

// ClauseType categorizes a clause into the fixed taxonomy used by the
// extraction prompt and the regulatory required-clause checks.
type ClauseType string

const (
	ClauseConfidentiality   ClauseType = "Confidentiality"
	ClauseTermination       ClauseType = "Termination"
	ClauseIndemnity         ClauseType = "Indemnity"
	ClauseLiability         ClauseType = "Liability"
	ClausePayment           ClauseType = "Payment"
	ClauseDataProtection    ClauseType = "Data Protection"
	ClauseIP                ClauseType = "IP"
	ClauseSLA               ClauseType = "SLA"
	ClauseAssignment        ClauseType = "Assignment"
	ClauseGoverningLaw      ClauseType = "Governing Law"
	ClauseDisputeResolution ClauseType = "Dispute Resolution"
	ClauseOther             ClauseType = "Other"
)

// Clause is one extracted contract clause. Clauses are created once during
// extraction and never mutated afterwards; risk and amendment data live in
// associated records, which keeps the original text of non-amended clauses
// verbatim by construction.
type Clause struct {
	ID        string     `json:"clause_id"`
	Heading   string     `json:"clause_heading,omitempty"`
	Text      string     `json:"clause_text"`
	Type      ClauseType `json:"clause_type"`
	Rationale string     `json:"rationale,omitempty"`
	Provider  string     `json:"llm_used,omitempty"`
}

// HeadingLine returns the first line of the clause text, used to preserve
// numbering and title when an amendment replaces the clause body.
func (c Clause) HeadingLine() string {
	line, _, _ := strings.Cut(c.Text, "\n")
	return strings.TrimSpace(line)
}

// Severity is the normalized ordinal risk classification.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// NormalizeSeverity maps whatever label a model returned onto the closed
// {low, medium, high} set. Anything unrecognized becomes medium, the
// conservative default for unparseable or unexpected values.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// SeverityRank orders severities for escalation: critical > high > medium > low.
func SeverityRank(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

// RiskVerdict is the structured risk assessment attached 1:1 to a clause.
// Severity is always one of low/medium/high; RawLevel keeps the label the
// model actually produced so escalation logic can still see "critical".
type RiskVerdict struct {
	Severity            Severity `json:"severity"`
	RawLevel            string   `json:"risk_level,omitempty"`
	Score               int      `json:"risk_score"`
	Factors             []string `json:"risk_factors,omitempty"`
	MissingControls     []string `json:"missing_controls,omitempty"`
	ViolatedRegulations []string `json:"regulation_violations,omitempty"`
	Explanation         string   `json:"explanation"`
	RiskReason          string   `json:"risk_reason"`
	Provider            string   `json:"llm_used,omitempty"`
}

// AssessedClause pairs a clause with its risk verdict.
type AssessedClause struct {
	Clause Clause      `json:"clause"`
	Risk   RiskVerdict `json:"risk"`
}
