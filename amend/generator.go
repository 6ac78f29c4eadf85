package amend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contractguard-backend/llm"
)

// ErrModelUnavailable reports that every completion backend failed, so no
// replacement text could be drafted. The caller skips the clause; the
// sentinel placeholder must never be spliced into a contract.
var ErrModelUnavailable = errors.New("no completion backend available for amendment")

const amendSystemPrompt = `You are a senior contract and compliance lawyer.

Rewrite ONLY the clause provided to resolve the identified HIGH RISK.
Do NOT add new obligations beyond what is necessary to fix the risk.
Do NOT introduce new clauses, headings, or definitions.
Preserve the original structure, numbering, and legal tone.

Return ONLY the rewritten clause text.`

const draftSystemPrompt = `You are a senior compliance lawyer.
Draft a legally sound contract clause.`

// Generator drafts replacement clause bodies and new compliance clauses via
// the model gateway.
type Generator struct {
	chat llm.Chat
}

// NewGenerator creates a new amendment generator
func NewGenerator(chat llm.Chat) *Generator {
	return &Generator{chat: chat}
}

// Amend requests a rewritten body for one high-risk clause. It returns body
// text only; the caller re-attaches the original heading line so numbering
// stays intact. Eligibility gating (severity exactly high, non-empty reason)
// is the caller's responsibility.
func (g *Generator) Amend(ctx context.Context, clauseText, reason, regulation string) (string, error) {
	if regulation == "" {
		regulation = "General Compliance"
	}

	userPrompt := fmt.Sprintf(`Original Clause:
%s

Issue:
%s

Regulatory Context:
%s`, clauseText, reason, regulation)

	result := g.chat.Complete(ctx, amendSystemPrompt, userPrompt, 0.0)
	if result.Degraded() {
		return "", ErrModelUnavailable
	}

	return strings.TrimSpace(result.Text), nil
}

// Draft generates a brand-new compliance clause for the regulatory addendum.
func (g *Generator) Draft(ctx context.Context, clauseName, regulation string) (string, error) {
	userPrompt := fmt.Sprintf(`Draft a '%s' clause required under %s.
The clause must be clear, enforceable, and enterprise-ready.`, clauseName, regulation)

	result := g.chat.Complete(ctx, draftSystemPrompt, userPrompt, 0.0)
	if result.Degraded() {
		return "", ErrModelUnavailable
	}

	return strings.TrimSpace(result.Text), nil
}
