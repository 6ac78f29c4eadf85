package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider is one text-completion backend. Adding or removing a backend is a
// list edit on the Gateway, not a code branch change.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// RateLimitError marks a provider failure as rate-limiting rather than a
// generic fault. The gateway backs off briefly before moving to the next
// provider; all other failures advance immediately.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is classified as a rate-limit failure.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
