package driving

import (
	"context"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// AskService answers natural-language queries through the tool-calling
// session.
//
// Ask drives one query start-to-finish: it opens turns on the active model
// backend, resolves tool invocations against the content source, and emits
// ordered StreamEvents to emit. Exactly one terminal event (final or failed)
// ends the sequence, and it is the last call to emit. The returned error is
// non-nil exactly when the terminal event was a failure, carrying the same
// classification.
//
// Ask is single-flight: callers must not start a second query before the
// first returns. Cancelling ctx terminates the query with KindCancelled.
type AskService interface {
	Ask(ctx context.Context, query domain.Query, emit domain.EventSink) error
}
