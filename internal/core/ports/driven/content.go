package driven

import (
	"context"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// ContentSource fetches WordPress content for a query. Implementations own
// network retry, backoff and the per-call timeout for a single upstream call.
//
// Search is a faithful pass-through of whatever the upstream returns within
// limit: no client-side relevance filtering happens here. Relevance judgment
// belongs to the model. Records missing an ID or URL are dropped before
// return; every returned record is citable.
//
// Failures carry a *domain.QueryError with one of the source kinds:
// KindSourceUnavailable (network/timeout, already retried),
// KindSourceAuthError (credential rejection, never retried) or
// KindSourceProtocolError (unexpected response shape).
type ContentSource interface {
	// Search returns at most limit records in upstream order. limit must be
	// positive; callers clamp it before it gets here.
	Search(ctx context.Context, query string, limit int) ([]domain.ContentRecord, error)

	// Ping validates the endpoint is reachable with the configured
	// credentials. Used at startup before committing to a session.
	Ping(ctx context.Context) error
}
