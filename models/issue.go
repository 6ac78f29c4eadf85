package models

// IssueType identifies what kind of compliance finding an issue records.
type IssueType string

const (
	IssueMissingClause    IssueType = "missing_clause"
	IssueHighRiskClause   IssueType = "high_risk_clause"
	IssueRegulatoryUpdate IssueType = "regulatory_update"
)

// Issue is one compliance finding. Field names are part of the external
// report contract and must stay stable across runs so consumers can diff
// two reports.
type Issue struct {
	Regulation     string     `json:"regulation"`
	Type           IssueType  `json:"issue_type"`
	ClauseID       string     `json:"clause_id,omitempty"`
	ClauseType     ClauseType `json:"clause_type,omitempty"`
	RequiredClause string     `json:"required_clause,omitempty"`
	Severity       string     `json:"severity"`
	Explanation    string     `json:"explanation,omitempty"`
	Title          string     `json:"title,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Source         string     `json:"source"`
}

// Overall compliance statuses.
const (
	StatusCompliant    = "COMPLIANT"
	StatusNonCompliant = "NON-COMPLIANT"
)

// ComplianceReport is the aggregate outcome of one analysis run. Reports are
// immutable once written; a new run produces a new report.
type ComplianceReport struct {
	TotalClauses     int      `json:"total_clauses_analyzed"`
	TotalIssues      int      `json:"total_issues_detected"`
	Issues           []Issue  `json:"issues"`
	AmendedClauseIDs []string `json:"amended_clauses"`
	InsertedClauses  []string `json:"inserted_clauses,omitempty"`
	OverallStatus    string   `json:"overall_status"`
	Severity         string   `json:"severity"`
}
