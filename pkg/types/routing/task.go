package routing

import (
	"strings"
)

// stopWords are filtered out of normalized terms and derived triggers. The
// list is deliberately small; trigger matching works on technical vocabulary,
// not prose.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "do": true, "for": true, "from": true,
	"has": true, "have": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "me": true, "my": true, "of": true, "on": true, "or": true,
	"our": true, "please": true,
	"should": true, "that": true, "the": true, "this": true, "to": true,
	"want": true, "we": true, "what": true, "when": true, "which": true,
	"with": true, "you": true, "your": true,
}

// IsStopWord reports whether the normalized token is filtered from matching.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// NormalizeText lowercases s and replaces every character outside
// [a-z0-9-] with a space. Hyphens survive so compound ids like
// "docker-compose" stay one token.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the normalized, stop-word-free tokens of s in order.
func Tokenize(s string) []string {
	fields := strings.Fields(NormalizeText(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if len(f) < 2 || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Slugify turns free text into a stable identifier: lowercase, tokens joined
// by hyphens. "Docker Compose: Local Stacks" becomes "docker-compose-local-stacks".
func Slugify(s string) string {
	return strings.ReplaceAll(NormalizeText(s), " ", "-")
}

// NewTask builds the per-request task view. hint may be empty.
func NewTask(raw string, hint Domain) *Task {
	return &Task{
		RawText:        raw,
		NormalizedText: NormalizeText(raw),
		Terms:          Tokenize(raw),
		DomainHint:     hint,
	}
}
