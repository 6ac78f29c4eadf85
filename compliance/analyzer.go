package compliance

import (
	"sort"
	"strings"

	"contractguard-backend/models"
	"contractguard-backend/regulatory"
)

// Analyzer derives a document-level compliance verdict from per-clause risk
// verdicts, the baseline regulation catalog, and live regulatory feed deltas.
type Analyzer struct{}

// NewAnalyzer creates a new gap analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze builds the compliance report. Issue order is fixed: baseline
// regulation checks, then per-clause risk findings, then feed updates —
// deterministic for a fixed input. Duplicate issues referencing the same
// clause are kept as-is, never deduplicated.
func (a *Analyzer) Analyze(assessed []models.AssessedClause, regulations models.Regulations, deltas []regulatory.FeedDelta) models.ComplianceReport {
	issues := make([]models.Issue, 0)

	issues = append(issues, a.missingClauseIssues(assessed, regulations)...)
	issues = append(issues, a.highRiskIssues(assessed)...)
	issues = append(issues, a.feedUpdateIssues(deltas)...)

	return models.ComplianceReport{
		TotalClauses:     len(assessed),
		TotalIssues:      len(issues),
		Issues:           issues,
		AmendedClauseIDs: []string{},
		OverallStatus:    overallStatus(issues),
		Severity:         topSeverity(issues),
	}
}

// missingClauseIssues flags required clauses no extracted clause covers,
// matching against both normalized clause types and clause text.
func (a *Analyzer) missingClauseIssues(assessed []models.AssessedClause, regulations models.Regulations) []models.Issue {
	clauseTypes := make(map[string]bool, len(assessed))
	clauseTexts := make([]string, 0, len(assessed))
	for _, c := range assessed {
		clauseTypes[normalize(string(c.Clause.Type))] = true
		clauseTexts = append(clauseTexts, normalize(c.Clause.Text))
	}

	names := make([]string, 0, len(regulations))
	for name := range regulations {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []models.Issue
	for _, name := range names {
		for _, required := range regulations[name].RequiredClauses {
			if a.covered(normalize(required), clauseTypes, clauseTexts) {
				continue
			}
			issues = append(issues, models.Issue{
				Regulation:     name,
				Type:           models.IssueMissingClause,
				RequiredClause: required,
				Severity:       string(models.SeverityHigh),
				Source:         "baseline_regulation",
			})
		}
	}
	return issues
}

func (a *Analyzer) covered(required string, clauseTypes map[string]bool, clauseTexts []string) bool {
	if clauseTypes[required] {
		return true
	}
	for _, text := range clauseTexts {
		if strings.Contains(text, required) {
			return true
		}
	}
	return false
}

// highRiskIssues escalates clauses whose raw model label was high or
// critical. The comparison deliberately uses the raw label, not the
// normalized severity, so "critical" still escalates even though the
// normalized verdict maps it to medium.
func (a *Analyzer) highRiskIssues(assessed []models.AssessedClause) []models.Issue {
	var issues []models.Issue
	for _, c := range assessed {
		level := normalize(c.Risk.RawLevel)
		if level == "" {
			level = normalize(string(c.Risk.Severity))
		}
		if level != "high" && level != "critical" {
			continue
		}

		regulation := "General"
		if len(c.Risk.ViolatedRegulations) > 0 {
			regulation = strings.Join(c.Risk.ViolatedRegulations, ", ")
		}

		issues = append(issues, models.Issue{
			Regulation:  regulation,
			Type:        models.IssueHighRiskClause,
			ClauseID:    c.Clause.ID,
			ClauseType:  c.Clause.Type,
			Severity:    level,
			Explanation: c.Risk.Explanation,
			Source:      "risk_engine",
		})
	}
	return issues
}

// feedUpdateIssues records informational issues for live regulatory changes.
func (a *Analyzer) feedUpdateIssues(deltas []regulatory.FeedDelta) []models.Issue {
	var issues []models.Issue
	for _, delta := range deltas {
		if !delta.Changed {
			continue
		}
		for _, entry := range delta.NewEntries {
			issues = append(issues, models.Issue{
				Regulation: delta.Source,
				Type:       models.IssueRegulatoryUpdate,
				Severity:   string(models.SeverityMedium),
				Title:      entry.Title,
				Summary:    entry.Summary,
				Source:     delta.TrackerName,
			})
		}
	}
	return issues
}

func overallStatus(issues []models.Issue) string {
	for _, issue := range issues {
		switch normalize(issue.Severity) {
		case "high", "critical":
			return models.StatusNonCompliant
		}
	}
	return models.StatusCompliant
}

func topSeverity(issues []models.Issue) string {
	top := string(models.SeverityLow)
	for _, issue := range issues {
		if models.SeverityRank(issue.Severity) > models.SeverityRank(top) {
			top = normalize(issue.Severity)
		}
	}
	return top
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
