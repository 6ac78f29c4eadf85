package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var messages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		messages = append(messages, payload["text"])
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &messages
}

func TestSlackNotify_SendsFormattedMessage(t *testing.T) {
	server, messages := captureServer(t)
	n := NewSlackNotifier(server.URL)

	n.Notify(context.Background(), Event{
		Type:           EventComplianceAlert,
		Severity:       "high",
		Summary:        "High-risk compliance issues detected",
		ContractName:   "msa_acme",
		Jurisdiction:   "EU",
		Details:        map[string]string{"high_risk_issue_count": "2"},
		ActionRequired: "Immediate legal review required",
		SourceModule:   "Compliance Gap Analyzer",
	})

	require.Len(t, *messages, 1)
	text := (*messages)[0]
	assert.Contains(t, text, "*COMPLIANCE_ALERT* | Severity: *HIGH*")
	assert.Contains(t, text, "*Summary:* High-risk compliance issues detected")
	assert.Contains(t, text, "*Contract:* msa_acme")
	assert.Contains(t, text, "*Jurisdiction:* EU")
	assert.Contains(t, text, "*High Risk Issue Count:* 2")
	assert.Contains(t, text, "*Action Required:* Immediate legal review required")
	assert.Contains(t, text, "_Source: Compliance Gap Analyzer_")
}

func TestSlackNotify_DropsLowSeverityNoise(t *testing.T) {
	server, messages := captureServer(t)
	n := NewSlackNotifier(server.URL)

	n.Notify(context.Background(), Event{Type: EventComplianceAlert, Severity: "medium", Summary: "x"})
	n.Notify(context.Background(), Event{Type: EventComplianceAlert, Severity: "low", Summary: "x"})

	assert.Empty(t, *messages)
}

func TestSlackNotify_RejectsUnknownEventType(t *testing.T) {
	server, messages := captureServer(t)
	n := NewSlackNotifier(server.URL)

	n.Notify(context.Background(), Event{Type: "RANDOM_EVENT", Severity: SeverityHigh})

	assert.Empty(t, *messages)
}

func TestSlackNotify_MissingWebhookIsANoOp(t *testing.T) {
	n := NewSlackNotifier("")
	// Must not panic or block.
	n.Notify(context.Background(), RegulatoryUpdateEvent("GDPR", "1 new GDPR updates detected."))
}

func TestSlackNotify_ServerErrorIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)
	n.Notify(context.Background(), RegulatoryUpdateEvent("GDPR", "update"))
}

func TestRegulatoryUpdateEvent(t *testing.T) {
	event := RegulatoryUpdateEvent("HIPAA", "2 new HIPAA updates detected.")

	assert.Equal(t, EventRegulatoryUpdate, event.Type)
	assert.Equal(t, SeverityInfo, event.Severity)
	assert.Equal(t, "HIPAA regulatory update detected", event.Summary)
	assert.Equal(t, "2 new HIPAA updates detected.", event.Details["message"])
	assert.Equal(t, "HIPAA Live Tracker", event.SourceModule)
}

func TestHighRiskClauseEvent(t *testing.T) {
	event := HighRiskClauseEvent("msa_acme", "3", "Liability", "Unlimited liability.", "high")

	assert.Equal(t, EventHighRiskClause, event.Type)
	assert.Equal(t, SeverityHigh, event.Severity)
	assert.Equal(t, "3", event.Details["clause_id"])
	assert.Equal(t, "Liability", event.Details["clause_type"])

	critical := HighRiskClauseEvent("msa_acme", "3", "Liability", "Severe exposure.", "critical")
	assert.Equal(t, SeverityCritical, critical.Severity)
}

func TestAutoContractUpdateEvent(t *testing.T) {
	event := AutoContractUpdateEvent("msa_acme", []string{"3", "7"}, []string{"Breach Notification"})

	assert.Equal(t, EventAutoContractUpdate, event.Type)
	assert.Equal(t, SeverityInfo, event.Severity)
	assert.Equal(t, "2", event.Details["amended_clauses"])
	assert.Equal(t, "1", event.Details["inserted_clauses"])
}

func TestComplianceSummaryEvent(t *testing.T) {
	event := ComplianceSummaryEvent(RunSummary{
		ContractName:    "msa_acme",
		Jurisdiction:    "EU",
		OverallStatus:   "NON-COMPLIANT",
		Severity:        "high",
		TotalIssues:     3,
		AmendedClauses:  1,
		ContractUpdated: true,
	})

	assert.Equal(t, EventComplianceSummary, event.Type)
	assert.Equal(t, SeverityHigh, event.Severity)
	assert.Equal(t, "NON-COMPLIANT", event.Details["overall_status"])
	assert.Equal(t, "3", event.Details["total_issues"])
	assert.Equal(t, "true", event.Details["contract_updated"])

	clean := ComplianceSummaryEvent(RunSummary{Severity: "low", OverallStatus: "COMPLIANT"})
	assert.Equal(t, SeverityInfo, clean.Severity)
}

func TestPipelineFailureEvent(t *testing.T) {
	event := PipelineFailureEvent("msa_acme", assert.AnError)

	assert.Equal(t, EventPipelineFailure, event.Type)
	assert.Equal(t, SeverityCritical, event.Severity)
	assert.Equal(t, "msa_acme", event.ContractName)
	assert.NotEmpty(t, event.Details["error"])
}
