package services

import "github.com/quillstack-labs/wpask-cli/internal/core/domain"

// Registry holds the immutable, priority-ordered list of backend candidates.
// It hands out a fresh Cursor per query, so backend demotion within one
// query never leaks into the next: every query starts again from the
// primary.
type Registry struct {
	candidates []domain.BackendCandidate
}

// NewRegistry builds a registry from model identifiers in priority order.
// The first entry is the primary; the rest are fallbacks. Duplicates are
// dropped so a candidate can never be tried twice in one query.
func NewRegistry(models []string) *Registry {
	seen := make(map[string]struct{}, len(models))
	candidates := make([]domain.BackendCandidate, 0, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		candidates = append(candidates, domain.BackendCandidate{Model: m, Rank: len(candidates)})
	}
	return &Registry{candidates: candidates}
}

// Len returns the number of candidates.
func (r *Registry) Len() int { return len(r.candidates) }

// Cursor returns a fresh per-query cursor positioned at the primary.
func (r *Registry) Cursor() *Cursor {
	return &Cursor{candidates: r.candidates}
}

// Cursor walks the candidate list for a single query. Demotion is
// append-only: Advance never revisits an earlier candidate, and the cursor
// is discarded with the query.
type Cursor struct {
	candidates []domain.BackendCandidate
	pos        int
}

// Current returns the active candidate. ok is false when the registry is
// empty or the cursor has advanced past the last candidate (Exhausted).
func (c *Cursor) Current() (domain.BackendCandidate, bool) {
	if c.pos >= len(c.candidates) {
		return domain.BackendCandidate{}, false
	}
	return c.candidates[c.pos], true
}

// Advance marks the current candidate exhausted for this query and moves to
// the next one. ok is false when no candidate remains, a fatal condition
// for the query, never a silent retry of the primary.
func (c *Cursor) Advance() (domain.BackendCandidate, bool) {
	if c.pos < len(c.candidates) {
		c.pos++
	}
	return c.Current()
}
