package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

const slackTimeout = 10 * time.Second

var allowedEvents = map[string]bool{
	EventComplianceAlert:    true,
	EventHighRiskClause:     true,
	EventRegulatoryUpdate:   true,
	EventAutoContractUpdate: true,
	EventPipelineFailure:    true,
	EventComplianceSummary:  true,
}

var allowedSeverities = map[string]bool{
	SeverityCritical: true,
	SeverityHigh:     true,
	SeverityInfo:     true,
}

// SlackNotifier posts events to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: slackTimeout},
	}
}

// Notify validates, formats, and posts the event. Low and medium severities
// are dropped as noise; delivery failures are logged and swallowed.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) {
	if n.webhookURL == "" {
		log.Println("Warning: Slack webhook URL not configured")
		return
	}

	if !allowedEvents[event.Type] {
		log.Printf("Warning: invalid Slack event type: %q", event.Type)
		return
	}

	severity := strings.ToUpper(strings.TrimSpace(event.Severity))
	if !allowedSeverities[severity] {
		return
	}
	event.Severity = severity

	payload, err := json.Marshal(map[string]string{"text": formatMessage(event)})
	if err != nil {
		log.Printf("Warning: failed to marshal Slack payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("Warning: failed to create Slack request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("Warning: Slack notification failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("Warning: Slack notification failed: %s", string(body))
	}
}

// formatMessage renders the event as readable Slack markdown. Slack is for
// humans; the structured report stays in the JSON outputs.
func formatMessage(event Event) string {
	lines := []string{
		fmt.Sprintf("*%s* | Severity: *%s*", event.Type, event.Severity),
	}

	if event.Summary != "" {
		lines = append(lines, fmt.Sprintf("*Summary:* %s", event.Summary))
	}
	if event.ContractName != "" {
		lines = append(lines, fmt.Sprintf("*Contract:* %s", event.ContractName))
		if event.Jurisdiction != "" {
			lines = append(lines, fmt.Sprintf("*Jurisdiction:* %s", event.Jurisdiction))
		}
	}

	keys := make([]string, 0, len(event.Details))
	for key := range event.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("*%s:* %s", titleize(key), event.Details[key]))
	}

	if event.ActionRequired != "" {
		lines = append(lines, fmt.Sprintf("*Action Required:* %s", event.ActionRequired))
	}
	if event.SourceModule != "" {
		lines = append(lines, fmt.Sprintf("_Source: %s_", event.SourceModule))
	}

	return strings.Join(lines, "\n")
}

// titleize turns a snake_case detail key into a display label.
func titleize(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
