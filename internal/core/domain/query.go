package domain

import "strings"

// DefaultMaxResults is the result bound applied when the user does not ask
// for one.
const DefaultMaxResults = 5

// Query is an immutable user question. Created once at input time and never
// mutated afterwards.
type Query struct {
	// Text is the raw natural-language question.
	Text string

	// MaxResults is the result-count bound for content searches triggered
	// by this query. Always positive and never above the configured limit.
	MaxResults int
}

// NewQuery builds a Query, trimming the text and clamping maxResults into
// [1, limit]. A non-positive maxResults takes DefaultMaxResults (itself
// clamped, so a limit below the default still holds).
func NewQuery(text string, maxResults, limit int) Query {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return Query{
		Text:       strings.TrimSpace(text),
		MaxResults: ClampLimit(maxResults, limit),
	}
}

// ClampLimit bounds a requested result count into [1, limit]. The backend is
// untrusted: whatever it asks for, the content source never sees a value
// above the configured limit.
func ClampLimit(requested, limit int) int {
	if requested < 1 {
		requested = 1
	}
	if limit > 0 && requested > limit {
		return limit
	}
	return requested
}
