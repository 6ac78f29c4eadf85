package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractguard-backend/models"
	"contractguard-backend/regulatory"
)

func lowRiskClause(id string, clauseType models.ClauseType, text string) models.AssessedClause {
	return models.AssessedClause{
		Clause: models.Clause{ID: id, Text: text, Type: clauseType},
		Risk: models.RiskVerdict{
			Severity: models.SeverityLow,
			RawLevel: "low",
			Score:    10,
		},
	}
}

// fullCoverage returns clauses whose text mentions every required clause of
// the default GDPR/HIPAA catalog, so no missing-clause issues fire.
func fullCoverage() []models.AssessedClause {
	return []models.AssessedClause{
		lowRiskClause("1", models.ClauseDataProtection,
			"1. Data Protection\nData processing, data retention, breach notification and data subject rights are governed here."),
		lowRiskClause("2", models.ClauseConfidentiality,
			"2. Security\nPHI protection, access controls and audit controls apply to all systems."),
	}
}

func TestAnalyze_CleanRunIsCompliant(t *testing.T) {
	a := NewAnalyzer()

	report := a.Analyze(fullCoverage(), regulatory.DefaultRegulations(), nil)

	assert.Equal(t, 2, report.TotalClauses)
	assert.Zero(t, report.TotalIssues)
	assert.Empty(t, report.Issues)
	assert.Equal(t, models.StatusCompliant, report.OverallStatus)
	assert.Equal(t, "low", report.Severity)
	assert.NotNil(t, report.AmendedClauseIDs)
	assert.Empty(t, report.AmendedClauseIDs)
}

func TestAnalyze_MissingRequiredClause(t *testing.T) {
	a := NewAnalyzer()

	// Coverage minus breach notification.
	assessed := []models.AssessedClause{
		lowRiskClause("1", models.ClauseDataProtection,
			"1. Data Protection\nData processing, data retention and data subject rights are governed here."),
		lowRiskClause("2", models.ClauseConfidentiality,
			"2. Security\nPHI protection, access controls and audit controls apply."),
	}

	report := a.Analyze(assessed, regulatory.DefaultRegulations(), nil)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, models.IssueMissingClause, issue.Type)
	assert.Equal(t, "GDPR", issue.Regulation)
	assert.Equal(t, "Breach Notification", issue.RequiredClause)
	assert.Equal(t, "high", issue.Severity)
	assert.Equal(t, "baseline_regulation", issue.Source)
	assert.Equal(t, models.StatusNonCompliant, report.OverallStatus)
	assert.Equal(t, "high", report.Severity)
}

func TestAnalyze_CoverageByClauseType(t *testing.T) {
	a := NewAnalyzer()

	regulations := models.Regulations{
		"GDPR": {RequiredClauses: []string{"Confidentiality"}},
	}
	assessed := []models.AssessedClause{
		lowRiskClause("1", models.ClauseConfidentiality, "1. NDA\nKeep it secret."),
	}

	report := a.Analyze(assessed, regulations, nil)
	assert.Empty(t, report.Issues)
}

func TestAnalyze_HighRiskClauseEscalates(t *testing.T) {
	a := NewAnalyzer()

	assessed := fullCoverage()
	assessed = append(assessed, models.AssessedClause{
		Clause: models.Clause{ID: "3", Text: "3. Liability\nUnlimited liability.", Type: models.ClauseLiability},
		Risk: models.RiskVerdict{
			Severity:            models.SeverityHigh,
			RawLevel:            "HIGH",
			Score:               85,
			ViolatedRegulations: []string{"GDPR"},
			Explanation:         "Unlimited liability with no carve-outs.",
		},
	})

	report := a.Analyze(assessed, regulatory.DefaultRegulations(), nil)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, models.IssueHighRiskClause, issue.Type)
	assert.Equal(t, "3", issue.ClauseID)
	assert.Equal(t, models.ClauseLiability, issue.ClauseType)
	assert.Equal(t, "high", issue.Severity)
	assert.Equal(t, "GDPR", issue.Regulation)
	assert.Equal(t, "risk_engine", issue.Source)
	assert.Equal(t, models.StatusNonCompliant, report.OverallStatus)
}

func TestAnalyze_CriticalRawLabelEscalates(t *testing.T) {
	a := NewAnalyzer()

	assessed := fullCoverage()
	assessed = append(assessed, models.AssessedClause{
		Clause: models.Clause{ID: "4", Text: "4. Indemnity\nBroad indemnity.", Type: models.ClauseIndemnity},
		Risk: models.RiskVerdict{
			// Normalization folds "critical" into medium, but the raw
			// label still drives escalation.
			Severity:    models.SeverityMedium,
			RawLevel:    "critical",
			Explanation: "Uncapped indemnity obligation.",
		},
	})

	report := a.Analyze(assessed, regulatory.DefaultRegulations(), nil)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, "critical", report.Issues[0].Severity)
	assert.Equal(t, "General", report.Issues[0].Regulation)
	assert.Equal(t, models.StatusNonCompliant, report.OverallStatus)
	assert.Equal(t, "critical", report.Severity)
}

func TestAnalyze_MediumRiskDoesNotEscalate(t *testing.T) {
	a := NewAnalyzer()

	assessed := fullCoverage()
	assessed = append(assessed, models.AssessedClause{
		Clause: models.Clause{ID: "5", Text: "5. Payment\nNet 90.", Type: models.ClausePayment},
		Risk:   models.RiskVerdict{Severity: models.SeverityMedium, RawLevel: "medium"},
	})

	report := a.Analyze(assessed, regulatory.DefaultRegulations(), nil)

	assert.Empty(t, report.Issues)
	assert.Equal(t, models.StatusCompliant, report.OverallStatus)
}

func TestAnalyze_FeedDeltaProducesUpdateIssues(t *testing.T) {
	a := NewAnalyzer()

	deltas := []regulatory.FeedDelta{
		{
			Source:      "GDPR",
			TrackerName: "gdpr_live_tracker",
			Changed:     true,
			NewEntries: []regulatory.FeedEntry{
				{Title: "New EDPB guidance", Summary: "Guidance on AI systems."},
			},
		},
		{
			Source:      "HIPAA",
			TrackerName: "hipaa_live_tracker",
			Changed:     false,
			NewEntries:  []regulatory.FeedEntry{{Title: "Ignored, not changed"}},
		},
	}

	report := a.Analyze(fullCoverage(), regulatory.DefaultRegulations(), deltas)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, models.IssueRegulatoryUpdate, issue.Type)
	assert.Equal(t, "GDPR", issue.Regulation)
	assert.Equal(t, "New EDPB guidance", issue.Title)
	assert.Equal(t, "medium", issue.Severity)
	assert.Equal(t, "gdpr_live_tracker", issue.Source)

	// Informational updates never flip the overall verdict.
	assert.Equal(t, models.StatusCompliant, report.OverallStatus)
	assert.Equal(t, "medium", report.Severity)
}

func TestAnalyze_IssueOrderIsDeterministic(t *testing.T) {
	a := NewAnalyzer()

	assessed := []models.AssessedClause{
		{
			Clause: models.Clause{ID: "1", Text: "1. Misc\nNothing useful.", Type: models.ClauseOther},
			Risk:   models.RiskVerdict{Severity: models.SeverityHigh, RawLevel: "high", Explanation: "Bad."},
		},
	}
	regulations := models.Regulations{
		"HIPAA": {RequiredClauses: []string{"PHI Protection"}},
		"GDPR":  {RequiredClauses: []string{"Data Processing"}},
	}
	deltas := []regulatory.FeedDelta{
		{Source: "GDPR", TrackerName: "gdpr_live_tracker", Changed: true,
			NewEntries: []regulatory.FeedEntry{{Title: "Update"}}},
	}

	report := a.Analyze(assessed, regulations, deltas)

	// Baseline checks (regulations sorted by name), then risk findings,
	// then feed updates.
	require.Len(t, report.Issues, 4)
	assert.Equal(t, models.IssueMissingClause, report.Issues[0].Type)
	assert.Equal(t, "GDPR", report.Issues[0].Regulation)
	assert.Equal(t, models.IssueMissingClause, report.Issues[1].Type)
	assert.Equal(t, "HIPAA", report.Issues[1].Regulation)
	assert.Equal(t, models.IssueHighRiskClause, report.Issues[2].Type)
	assert.Equal(t, models.IssueRegulatoryUpdate, report.Issues[3].Type)
	assert.Equal(t, 4, report.TotalIssues)
}

func TestAnalyze_DuplicateFindingsAreKept(t *testing.T) {
	a := NewAnalyzer()

	clause := models.AssessedClause{
		Clause: models.Clause{ID: "1", Text: "1. Misc\nRisky.", Type: models.ClauseOther},
		Risk:   models.RiskVerdict{Severity: models.SeverityHigh, RawLevel: "high"},
	}

	regulations := models.Regulations{
		"GDPR": {RequiredClauses: []string{"Data Processing", "Data Processing"}},
	}

	report := a.Analyze([]models.AssessedClause{clause}, regulations, nil)

	// Two identical missing-clause findings plus the high-risk finding.
	assert.Len(t, report.Issues, 3)
}
