// Package notify pushes human-readable pipeline events to external channels.
// Notifications are best-effort: senders log failures and never propagate
// them, so an unreachable webhook cannot fail an analysis run.
package notify

import (
	"context"
	"strconv"
	"strings"
)

// Event types accepted by the notification channel.
const (
	EventComplianceAlert    = "COMPLIANCE_ALERT"
	EventHighRiskClause     = "HIGH_RISK_CLAUSE"
	EventRegulatoryUpdate   = "REGULATORY_UPDATE"
	EventAutoContractUpdate = "AUTO_CONTRACT_UPDATE"
	EventPipelineFailure    = "PIPELINE_FAILURE"
	EventComplianceSummary  = "COMPLIANCE_SUMMARY"
)

// Event severities. Anything below INFO is considered noise and dropped
// before sending.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityInfo     = "INFO"
)

// Event is one structured notification.
type Event struct {
	Type           string
	Severity       string
	Summary        string
	ContractName   string
	Jurisdiction   string
	Details        map[string]string
	ActionRequired string
	SourceModule   string
}

// Notifier delivers events to a channel.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier discards every event. Used when no webhook is configured.
type NopNotifier struct{}

// Notify discards the event
func (NopNotifier) Notify(ctx context.Context, event Event) {}

// RegulatoryUpdateEvent builds the standard event for a live-feed change.
func RegulatoryUpdateEvent(source, message string) Event {
	return Event{
		Type:           EventRegulatoryUpdate,
		Severity:       SeverityInfo,
		Summary:        source + " regulatory update detected",
		Details:        map[string]string{"message": message},
		ActionRequired: "Review impacted contracts",
		SourceModule:   source + " Live Tracker",
	}
}

// ComplianceAlertEvent builds the standard event for high-risk findings.
func ComplianceAlertEvent(contractName, jurisdiction string, highRiskCount int) Event {
	return Event{
		Type:         EventComplianceAlert,
		Severity:     SeverityHigh,
		Summary:      "High-risk compliance issues detected",
		ContractName: contractName,
		Jurisdiction: jurisdiction,
		Details: map[string]string{
			"high_risk_issue_count": strconv.Itoa(highRiskCount),
		},
		ActionRequired: "Immediate legal review required",
		SourceModule:   "Compliance Gap Analyzer",
	}
}

// HighRiskClauseEvent builds the per-clause event for an escalated clause.
func HighRiskClauseEvent(contractName, clauseID, clauseType, explanation, severity string) Event {
	eventSeverity := SeverityHigh
	if strings.EqualFold(severity, "critical") {
		eventSeverity = SeverityCritical
	}
	return Event{
		Type:         EventHighRiskClause,
		Severity:     eventSeverity,
		Summary:      "High-risk clause detected",
		ContractName: contractName,
		Details: map[string]string{
			"clause_id":   clauseID,
			"clause_type": clauseType,
			"explanation": explanation,
		},
		ActionRequired: "Review clause " + clauseID,
		SourceModule:   "Risk Assessor",
	}
}

// AutoContractUpdateEvent builds the event fired when a run rewrote the
// contract (amended clauses or an appended addendum).
func AutoContractUpdateEvent(contractName string, amendedClauseIDs, insertedClauses []string) Event {
	return Event{
		Type:         EventAutoContractUpdate,
		Severity:     SeverityInfo,
		Summary:      "Contract automatically updated",
		ContractName: contractName,
		Details: map[string]string{
			"amended_clauses":  strconv.Itoa(len(amendedClauseIDs)),
			"inserted_clauses": strconv.Itoa(len(insertedClauses)),
		},
		ActionRequired: "Review the rewritten contract before execution",
		SourceModule:   "Contract Patcher",
	}
}

// RunSummary carries the figures reported when a run completes.
type RunSummary struct {
	ContractName    string
	Jurisdiction    string
	OverallStatus   string
	Severity        string // report severity: low/medium/high/critical
	TotalIssues     int
	AmendedClauses  int
	InsertedClauses int
	ContractUpdated bool
}

// ComplianceSummaryEvent builds the completion event sent exactly once per
// successful run. Event severity tracks the report severity: critical and
// high escalate, everything else is informational.
func ComplianceSummaryEvent(s RunSummary) Event {
	severity := SeverityInfo
	switch strings.ToLower(s.Severity) {
	case "critical":
		severity = SeverityCritical
	case "high":
		severity = SeverityHigh
	}
	return Event{
		Type:         EventComplianceSummary,
		Severity:     severity,
		Summary:      "Contract compliance analysis completed",
		ContractName: s.ContractName,
		Jurisdiction: s.Jurisdiction,
		Details: map[string]string{
			"overall_status":   s.OverallStatus,
			"total_issues":     strconv.Itoa(s.TotalIssues),
			"amended_clauses":  strconv.Itoa(s.AmendedClauses),
			"inserted_clauses": strconv.Itoa(s.InsertedClauses),
			"contract_updated": strconv.FormatBool(s.ContractUpdated),
		},
		SourceModule: "Pipeline Orchestrator",
	}
}

// PipelineFailureEvent builds the standard event for a failed run.
func PipelineFailureEvent(contractName string, runErr error) Event {
	return Event{
		Type:           EventPipelineFailure,
		Severity:       SeverityCritical,
		Summary:        "Contract compliance pipeline failed",
		ContractName:   contractName,
		Details:        map[string]string{"error": runErr.Error()},
		ActionRequired: "Investigate and rerun pipeline",
		SourceModule:   "Pipeline Orchestrator",
	}
}
