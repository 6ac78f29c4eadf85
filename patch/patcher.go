// Package patch splices per-clause replacement text back into the full
// original contract. The document is parsed once into an ordered span list
// keyed by clause-number anchors, then rebuilt by mapping each span through
// the amendments table. Untouched spans are copied from the original
// verbatim, so applying an empty amendment set returns the input
// byte-for-byte, and application order cannot change the result.
package patch

import (
	"regexp"
	"sort"
	"strings"
)

// anchorRe matches a clause-number line: the id, an optional trailing dot,
// then whitespace. The mandatory whitespace after the (optional) dot is what
// keeps "1" from matching "10. ..." — the captured id is compared exactly.
var anchorRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s`)

// span is one contiguous slice of the original document. ID is empty for
// text before the first anchored line.
type span struct {
	id    string
	start int
	end   int
}

// Patch replaces the spans named by amendments and preserves everything
// else. Each clause id is applied at most once (the first matching span
// wins). Ids with no matching span are reported as warnings and leave the
// document untouched for that id — one failed clause never aborts the patch.
func Patch(original string, amendments map[string]string) (string, []string) {
	if len(amendments) == 0 {
		return original, nil
	}

	spans := parseSpans(original)

	applied := make(map[string]bool, len(amendments))
	var builder strings.Builder
	for _, s := range spans {
		text := original[s.start:s.end]
		replacement, ok := amendments[s.id]
		if !ok || applied[s.id] {
			builder.WriteString(text)
			continue
		}
		applied[s.id] = true
		builder.WriteString(strings.TrimSpace(replacement))
		builder.WriteString(trailingWhitespace(text))
	}

	var warnings []string
	for id := range amendments {
		if !applied[id] {
			warnings = append(warnings, "clause "+id+" not replaced (no matching span)")
		}
	}
	sort.Strings(warnings)

	return builder.String(), warnings
}

// parseSpans walks the document line by line. A line matching the anchor
// pattern opens a new span owned by that clause id; the span runs until the
// next anchored line or end of document, newlines included.
func parseSpans(text string) []span {
	spans := []span{{start: 0}}
	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var next int
		if lineEnd < 0 {
			next = len(text)
		} else {
			next = offset + lineEnd + 1
		}

		line := text[offset:next]
		if m := anchorRe.FindStringSubmatch(line); m != nil {
			spans[len(spans)-1].end = offset
			spans = append(spans, span{id: m[1], start: offset})
		}
		offset = next
	}
	spans[len(spans)-1].end = len(text)

	// Drop the empty leading span produced when the document starts on an
	// anchored line.
	if spans[0].start == spans[0].end {
		spans = spans[1:]
	}
	return spans
}

// trailingWhitespace returns the whitespace suffix of s, so a replaced span
// keeps the same separation from the clause that follows it.
func trailingWhitespace(s string) string {
	trimmed := strings.TrimRight(s, " \t\n\r")
	return s[len(trimmed):]
}

// AppendAddendum appends newly drafted compliance clauses as an explicit
// regulatory addendum block at the end of the document.
func AppendAddendum(text string, clauses []string) string {
	if len(clauses) == 0 {
		return text
	}

	var builder strings.Builder
	builder.WriteString(text)
	builder.WriteString("\n\n--- REGULATORY ADDENDUM ---\n")
	for _, clause := range clauses {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(clause))
		builder.WriteString("\n")
	}
	return builder.String()
}
