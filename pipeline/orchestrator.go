// Package pipeline runs the full contract compliance analysis: clause
// extraction, risk assessment, regulatory tracking, gap analysis, amendment
// generation, and contract patching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"contractguard-backend/amend"
	"contractguard-backend/clause"
	"contractguard-backend/compliance"
	"contractguard-backend/models"
	"contractguard-backend/notify"
	"contractguard-backend/patch"
	"contractguard-backend/regulatory"
	"contractguard-backend/risk"
	"contractguard-backend/textutil"
)

const (
	// Contracts longer than this are split into word chunks before
	// extraction so each model call stays within context limits.
	defaultChunkThreshold = 45000

	defaultChunkWords   = 1500
	defaultChunkOverlap = 200
)

// ProgressFunc receives coarse progress updates as the run advances.
type ProgressFunc func(percent int, message string)

// RunRequest describes one analysis run.
type RunRequest struct {
	RunID        string
	ContractName string
	Jurisdiction string
	Text         string
}

// RunResult is the complete outcome of a successful run.
type RunResult struct {
	Header          string
	Clauses         []models.AssessedClause
	Report          models.ComplianceReport
	Amendments      map[string]string
	PatchedText     string
	PatchWarnings   []string
	ContractUpdated bool
}

// Orchestrator wires the pipeline stages together. Construction is cheap;
// all model and network traffic happens inside Run.
type Orchestrator struct {
	extractor   *clause.Extractor
	assessor    *risk.Assessor
	generator   *amend.Generator
	analyzer    *compliance.Analyzer
	regulations models.Regulations
	trackers    []*regulatory.Tracker
	notifier    notify.Notifier
	progress    ProgressFunc

	chunkThreshold int
	chunkWords     int
	chunkOverlap   int
}

// Option is a functional option for Orchestrator
type Option func(*Orchestrator)

// WithTrackers sets the live regulatory feed trackers consulted each run
func WithTrackers(trackers ...*regulatory.Tracker) Option {
	return func(o *Orchestrator) {
		o.trackers = trackers
	}
}

// WithNotifier sets the notification channel for run events
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithProgress sets the progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithChunking overrides the chunking parameters
func WithChunking(threshold, words, overlap int) Option {
	return func(o *Orchestrator) {
		o.chunkThreshold = threshold
		o.chunkWords = words
		o.chunkOverlap = overlap
	}
}

// NewOrchestrator creates a pipeline over the given components.
func NewOrchestrator(extractor *clause.Extractor, assessor *risk.Assessor, generator *amend.Generator, regulations models.Regulations, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:      extractor,
		assessor:       assessor,
		generator:      generator,
		analyzer:       compliance.NewAnalyzer(),
		regulations:    regulations,
		notifier:       notify.NopNotifier{},
		chunkThreshold: defaultChunkThreshold,
		chunkWords:     defaultChunkWords,
		chunkOverlap:   defaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline end to end. Degradations inside a stage (feed
// unavailable, model fallback, unmatched amendment) are absorbed and
// reported in the result; Run itself fails only when extraction produces
// nothing to analyze. A COMPLIANCE_SUMMARY notification is sent on success;
// on failure a PIPELINE_FAILURE notification is sent before the error is
// returned.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	return o.RunWithProgress(ctx, req, o.progress)
}

// RunWithProgress is Run with a per-call progress callback, for callers that
// track several concurrent runs over one orchestrator. Every run ends with
// exactly one terminal notification: COMPLIANCE_SUMMARY on success,
// PIPELINE_FAILURE on error.
func (o *Orchestrator) RunWithProgress(ctx context.Context, req RunRequest, progress ProgressFunc) (*RunResult, error) {
	result, err := o.run(ctx, req, progress)
	if err != nil {
		o.notifier.Notify(ctx, notify.PipelineFailureEvent(req.ContractName, err))
		return nil, err
	}
	o.notifier.Notify(ctx, notify.ComplianceSummaryEvent(notify.RunSummary{
		ContractName:    req.ContractName,
		Jurisdiction:    req.Jurisdiction,
		OverallStatus:   result.Report.OverallStatus,
		Severity:        result.Report.Severity,
		TotalIssues:     result.Report.TotalIssues,
		AmendedClauses:  len(result.Report.AmendedClauseIDs),
		InsertedClauses: len(result.Report.InsertedClauses),
		ContractUpdated: result.ContractUpdated,
	}))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, req RunRequest, progress ProgressFunc) (*RunResult, error) {
	updateProgress := func(percent int, message string) {
		if progress != nil {
			progress(percent, message)
		}
	}

	updateProgress(10, "Extracting text")
	text := textutil.NormalizeText(req.Text)
	if text == "" {
		return nil, errors.New("contract text is empty")
	}
	header := textutil.FirstParagraph(text)

	updateProgress(30, "Extracting Clauses")
	clauses, err := o.extractClauses(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("clause extraction failed: %w", err)
	}
	log.Printf("Total clauses extracted: %d", len(clauses))

	updateProgress(50, "Analysing Risks")
	assessed := o.assessor.AssessAll(ctx, clauses)

	deltas := o.trackFeeds(ctx)

	report := o.analyzer.Analyze(assessed, o.regulations, deltas)
	log.Printf("Compliance issues detected: %d", report.TotalIssues)
	o.alertOnHighRisk(ctx, req, report)

	updateProgress(70, "Suggesting Improvements")
	amendments := o.generateAmendments(ctx, assessed)

	updateProgress(90, "Rewriting Contract")
	patched, warnings := patch.Patch(text, amendments)
	patched, inserted := o.draftMissingClauses(ctx, patched, report)

	report.AmendedClauseIDs = sortedKeys(amendments)
	report.InsertedClauses = inserted

	if len(amendments) > 0 || len(inserted) > 0 {
		o.notifier.Notify(ctx, notify.AutoContractUpdateEvent(req.ContractName, report.AmendedClauseIDs, report.InsertedClauses))
	}

	updateProgress(100, "Completed")
	return &RunResult{
		Header:          header,
		Clauses:         assessed,
		Report:          report,
		Amendments:      amendments,
		PatchedText:     patched,
		PatchWarnings:   warnings,
		ContractUpdated: len(amendments) > 0 || len(inserted) > 0,
	}, nil
}

// extractClauses extracts from the whole text, or chunk by chunk for large
// contracts. Chunked clause ids are prefixed with their chunk index so ids
// stay unique across the document.
func (o *Orchestrator) extractClauses(ctx context.Context, text string) ([]models.Clause, error) {
	if len(text) <= o.chunkThreshold {
		return o.extractor.Extract(ctx, text)
	}

	log.Println("Large contract detected, chunking enabled")
	chunks := textutil.ChunkText(text, o.chunkWords, o.chunkOverlap)

	var clauses []models.Clause
	for i, chunk := range chunks {
		log.Printf("Processing chunk %d/%d", i+1, len(chunks))
		extracted, err := o.extractor.Extract(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		for j := range extracted {
			extracted[j].ID = fmt.Sprintf("chunk%d_%s", i, extracted[j].ID)
		}
		clauses = append(clauses, extracted...)
	}
	return clauses, nil
}

// trackFeeds polls every configured feed tracker and emits a notification
// for each detected change. Tracker faults degrade to no-update deltas.
func (o *Orchestrator) trackFeeds(ctx context.Context) []regulatory.FeedDelta {
	deltas := make([]regulatory.FeedDelta, 0, len(o.trackers))
	for _, tracker := range o.trackers {
		delta := tracker.DetectChanges(ctx)
		log.Printf("%s: %s", delta.Source, delta.Message)
		if delta.Changed && delta.Message != "" {
			o.notifier.Notify(ctx, notify.RegulatoryUpdateEvent(delta.Source, delta.Message))
		}
		deltas = append(deltas, delta)
	}
	return deltas
}

// alertOnHighRisk emits one event per escalated clause plus a single
// aggregate alert when any issue reached high or critical.
func (o *Orchestrator) alertOnHighRisk(ctx context.Context, req RunRequest, report models.ComplianceReport) {
	highCount := 0
	escalated := false
	for _, issue := range report.Issues {
		switch strings.ToLower(issue.Severity) {
		case "high":
			highCount++
			escalated = true
		case "critical":
			escalated = true
		default:
			continue
		}
		if issue.Type == models.IssueHighRiskClause {
			o.notifier.Notify(ctx, notify.HighRiskClauseEvent(
				req.ContractName, issue.ClauseID, string(issue.ClauseType), issue.Explanation, issue.Severity))
		}
	}
	if escalated {
		o.notifier.Notify(ctx, notify.ComplianceAlertEvent(req.ContractName, req.Jurisdiction, highCount))
	}
}

// generateAmendments rewrites eligible high-risk clauses. The gate is strict:
// only normalized severity exactly "high" with a non-empty risk reason is
// rewritten; critical stays untouched for human review. A model outage for
// one clause skips that clause, never the run.
func (o *Orchestrator) generateAmendments(ctx context.Context, assessed []models.AssessedClause) map[string]string {
	amendments := make(map[string]string)

	for _, c := range assessed {
		if c.Risk.Severity != models.SeverityHigh {
			continue
		}

		reason := strings.TrimSpace(c.Risk.RiskReason)
		if reason == "" {
			reason = strings.TrimSpace(c.Risk.Explanation)
		}
		if reason == "" {
			log.Printf("Warning: skipping clause %s, no clear risk reason", c.Clause.ID)
			continue
		}

		regulation := strings.Join(c.Risk.ViolatedRegulations, ", ")
		log.Printf("Amending high-risk clause %s", c.Clause.ID)

		body, err := o.generator.Amend(ctx, c.Clause.Text, reason, regulation)
		if err != nil {
			log.Printf("Warning: amendment for clause %s skipped: %v", c.Clause.ID, err)
			continue
		}

		// Keep the number and title so patching preserves document structure.
		amendments[c.Clause.ID] = c.Clause.HeadingLine() + "\n" + body
	}

	return amendments
}

// draftMissingClauses drafts each missing required clause and appends them as
// a regulatory addendum. Drafting is best-effort; an unavailable model leaves
// the gap reported but unfilled.
func (o *Orchestrator) draftMissingClauses(ctx context.Context, text string, report models.ComplianceReport) (string, []string) {
	var drafted []string
	var inserted []string

	for _, issue := range report.Issues {
		if issue.Type != models.IssueMissingClause {
			continue
		}
		clauseText, err := o.generator.Draft(ctx, issue.RequiredClause, issue.Regulation)
		if err != nil {
			log.Printf("Warning: drafting %q skipped: %v", issue.RequiredClause, err)
			continue
		}
		drafted = append(drafted, clauseText)
		inserted = append(inserted, issue.RequiredClause)
	}

	return patch.AppendAddendum(text, drafted), inserted
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
