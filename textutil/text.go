package textutil

import (
	"regexp"
	"strings"
)

var (
	crlfRe       = regexp.MustCompile(`\r\n`)
	multiBlankRe = regexp.MustCompile(`\n{2,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// NormalizeText collapses line-ending noise from upstream text extraction:
// CRLF to LF, runs of blank lines to one blank line, runs of spaces/tabs to
// a single space.
func NormalizeText(text string) string {
	t := crlfRe.ReplaceAllString(text, "\n")
	t = multiBlankRe.ReplaceAllString(t, "\n\n")
	t = spaceRunRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// ChunkText splits text into word-based chunks of at most maxWords words,
// with overlap words repeated between consecutive chunks.
func ChunkText(text string, maxWords, overlap int) []string {
	words := strings.Fields(text)
	var chunks []string
	i := 0
	for i < len(words) {
		j := i + maxWords
		if j > len(words) {
			j = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:j], " "))
		if j-overlap > i {
			i = j - overlap
		} else {
			i = j
		}
	}
	return chunks
}

// FirstParagraph returns the first blank-line-delimited paragraph, used as
// the contract's original header string.
func FirstParagraph(text string) string {
	para, _, _ := strings.Cut(text, "\n\n")
	return strings.TrimSpace(para)
}
