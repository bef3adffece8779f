package driven

import (
	"context"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// ToolSchema describes the single search capability offered to the backend.
type ToolSchema struct {
	// Name is the tool name the backend invokes.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Parameters is the JSON-schema properties map for the tool arguments.
	Parameters map[string]any

	// Required lists the mandatory argument names.
	Required []string
}

// TurnRequest opens one turn of a conversation against a specific model.
type TurnRequest struct {
	// Model is the backend candidate identifier for this turn.
	Model string

	// Messages is the transcript so far. The slice is read-only to the
	// adapter; the session keeps appending to its own transcript.
	Messages []domain.Message

	// Tool is the search capability schema, offered on every turn.
	Tool ToolSchema
}

// ChunkKind tags a TurnChunk variant.
type ChunkKind int

// Turn chunk kinds.
const (
	// ChunkText carries an incremental answer text delta.
	ChunkText ChunkKind = iota

	// ChunkToolCall carries a fully assembled tool-call request.
	ChunkToolCall

	// ChunkDone signals the backend's terminal stop for this turn.
	ChunkDone
)

// TurnChunk is one unit of a backend turn stream.
type TurnChunk struct {
	Kind ChunkKind

	// Text delta, for ChunkText.
	Text string

	// ToolCall, for ChunkToolCall. The adapter assembles streamed argument
	// fragments into one complete call before emitting it.
	ToolCall domain.ToolCall
}

// TurnStream is the incremental output of one backend turn. Finite, consumed
// exactly once, not restartable: a new turn always opens a fresh stream.
//
// Recv blocks until the next chunk arrives, the stream ends, or ctx (from
// OpenTurn) is cancelled. After a ChunkDone or an error, Recv must not be
// called again. Errors carry a *domain.QueryError with one of the backend
// kinds (KindBackendUnavailable, KindBackendAuthError,
// KindBackendQuotaExceeded, KindBackendProtocolError).
type TurnStream interface {
	Recv() (TurnChunk, error)

	// Close releases the underlying connection. Safe to call at any point,
	// including after an error.
	Close() error
}

// ChatBackend opens streaming chat-completion turns against one provider.
// The model identifier varies per turn; connection configuration (base URL,
// API key, timeout) is fixed at construction.
type ChatBackend interface {
	// OpenTurn starts a turn and returns its chunk stream. Failures to open
	// (connection, auth, quota, bad status) are classified the same way as
	// stream errors.
	OpenTurn(ctx context.Context, req TurnRequest) (TurnStream, error)

	// Ping validates the provider is reachable with the configured key.
	Ping(ctx context.Context) error
}
