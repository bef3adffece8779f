package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driving"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.AskService = (*Session)(nil)

// Default orchestration bounds.
const (
	// DefaultToolRoundLimit caps tool-call rounds per query.
	DefaultToolRoundLimit = 3

	// DefaultBackendRetries is how many extra attempts a candidate gets on
	// transient failures before it counts as failed.
	DefaultBackendRetries = 2
)

// SessionConfig bounds the tool-calling session. Supplied at process start
// and immutable afterwards.
type SessionConfig struct {
	// MaxResultsLimit caps the limit argument of any tool invocation,
	// regardless of what the backend asks for.
	MaxResultsLimit int

	// ToolRoundLimit caps tool-call rounds per query (default 3).
	ToolRoundLimit int

	// BackendRetries is the extra-attempt budget per candidate for
	// transient backend failures (default 2).
	BackendRetries int
}

// Session drives one user query at a time through the active model backend,
// exposing the WordPress search capability as an invocable tool and
// resolving tool invocations until the backend produces a final answer.
//
// Single-flight by contract: callers must not start a second query before
// the first reaches a terminal state. The per-query transcript and registry
// cursor are exclusively owned by the active query, so no locking exists
// anywhere in here.
type Session struct {
	source   driven.ContentSource
	backend  driven.ChatBackend
	registry *Registry
	cfg      SessionConfig
}

// NewSession creates a session over the given collaborators. Zero config
// fields take the package defaults.
func NewSession(source driven.ContentSource, backend driven.ChatBackend, registry *Registry, cfg SessionConfig) *Session {
	if cfg.ToolRoundLimit <= 0 {
		cfg.ToolRoundLimit = DefaultToolRoundLimit
	}
	if cfg.BackendRetries < 0 {
		cfg.BackendRetries = DefaultBackendRetries
	}
	if cfg.MaxResultsLimit <= 0 {
		cfg.MaxResultsLimit = domain.DefaultMaxResults
	}
	return &Session{source: source, backend: backend, registry: registry, cfg: cfg}
}

// turnOutcome is what one consumed backend turn produced.
type turnOutcome struct {
	text string           // accumulated answer text for this turn
	call *domain.ToolCall // non-nil when the turn ended in a tool request
}

// Ask runs the query through the state machine:
//
//	Idle → AwaitingBackend → (ToolRequested → AwaitingTool → AwaitingBackend)* → Answered | Failed
//
// emitting ordered StreamEvents along the way. Exactly one terminal event
// ends the sequence; the returned error is non-nil iff it was a failure.
func (s *Session) Ask(ctx context.Context, query domain.Query, emit domain.EventSink) error {
	r := newRelay(emit)

	if strings.TrimSpace(query.Text) == "" {
		return r.Fail(domain.KindProtocolError, "empty query")
	}

	cursor := s.registry.Cursor()
	current, ok := cursor.Current()
	if !ok {
		return r.Fail(domain.KindBackendUnavailable, "no model backends configured")
	}

	logger.Section("Query Orchestration")
	logger.Debug("Query: %q (max results %d)", query.Text, query.MaxResults)

	transcript := domain.NewTranscript(systemPrompt, query.Text)
	citations := newCitationSet()
	rounds := 0
	retriesLeft := s.cfg.BackendRetries

	for {
		if err := ctx.Err(); err != nil {
			return r.Fail(domain.KindCancelled, "query cancelled")
		}

		logger.Debug("Opening turn on %s (transcript %d entries)", current.Model, transcript.Len())
		outcome, err := s.runTurn(ctx, current.Model, transcript, r)
		if err != nil {
			kind := domain.KindOf(err)
			if kind == domain.KindCancelled {
				return r.Fail(domain.KindCancelled, "query cancelled")
			}
			if kind == domain.KindProtocolError {
				// Session invariant violation, not a backend-level failure:
				// fatal for the query, no fallback.
				return r.Fail(kind, domain.MessageOf(err))
			}

			if kind.Retryable() && retriesLeft > 0 {
				retriesLeft--
				logger.Warn("Backend %s transient failure (%s), retrying (%d left)",
					current.Model, kind, retriesLeft)
				continue
			}

			// Non-retryable for this candidate (or retries spent): advance.
			// The transcript is preserved: switching models resumes the
			// same conversation from the start of the current turn.
			logger.Warn("Backend %s failed: %s", current.Model, domain.MessageOf(err))
			next, ok := cursor.Advance()
			if !ok {
				return r.Fail(kind, domain.MessageOf(err))
			}
			current = next
			retriesLeft = s.cfg.BackendRetries
			logger.Info("Falling back to %s", current.Model)
			continue
		}

		if outcome.call == nil {
			// Terminal answer: the final message plus every citable record
			// surfaced during this query.
			transcript.AppendAssistant(outcome.text)
			answer := &domain.Answer{
				Text:      outcome.text,
				Citations: citations.list(),
				Model:     current.Model,
			}
			logger.Info("Answered by %s with %d citations", current.Model, len(answer.Citations))
			return r.Final(answer)
		}

		// ToolRequested. Enforce the round cap before dispatching.
		rounds++
		if rounds > s.cfg.ToolRoundLimit {
			return r.Fail(domain.KindRoundLimitExceeded, "tool-call round limit exceeded")
		}

		args, err := parseToolArgs(outcome.call.Arguments, query)
		if err != nil {
			// Malformed arguments are a backend defect: advance, same as
			// any other non-retryable backend failure.
			logger.Warn("Backend %s sent malformed tool arguments", current.Model)
			next, ok := cursor.Advance()
			if !ok {
				return r.Fail(domain.KindOf(err), domain.MessageOf(err))
			}
			current = next
			retriesLeft = s.cfg.BackendRetries
			continue
		}

		inv := s.dispatchTool(ctx, r, transcript, outcome, args)
		if err := ctx.Err(); err != nil {
			return r.Fail(domain.KindCancelled, "query cancelled")
		}
		if inv.Err == nil {
			citations.add(inv.Records)
		}
		// AwaitingTool → AwaitingBackend: resume the same candidate with
		// the extended transcript.
	}
}

// runTurn opens a turn on model and consumes its stream, forwarding text
// deltas as fragments. It returns the assembled outcome, or a classified
// error when the backend failed or violated the tool-calling contract.
func (s *Session) runTurn(ctx context.Context, model string, transcript *domain.Transcript, r *relay) (turnOutcome, error) {
	stream, err := s.backend.OpenTurn(ctx, driven.TurnRequest{
		Model:    model,
		Messages: transcript.Messages(),
		Tool:     searchToolSchema(),
	})
	if err != nil {
		return turnOutcome{}, err
	}
	defer stream.Close()

	var text strings.Builder
	var call *domain.ToolCall

	for {
		chunk, err := stream.Recv()
		if err != nil {
			return turnOutcome{}, err
		}

		switch chunk.Kind {
		case driven.ChunkText:
			text.WriteString(chunk.Text)
			if err := r.Fragment(chunk.Text); err != nil {
				return turnOutcome{}, domain.NewQueryError(domain.KindProtocolError, err.Error(), err)
			}

		case driven.ChunkToolCall:
			if call != nil {
				// One outstanding invocation at a time; a second request
				// before the first resolves violates the protocol.
				return turnOutcome{}, domain.Errorf(domain.KindProtocolError,
					"backend requested a second tool call before the first resolved")
			}
			c := chunk.ToolCall
			call = &c

		case driven.ChunkDone:
			return turnOutcome{text: text.String(), call: call}, nil
		}
	}
}

// dispatchTool resolves one tool invocation synchronously and folds the
// result, success or structured error, back into the transcript as a
// tool-result entry. The backend sees either outcome and decides what to do
// next; source failures do not terminate the query here.
func (s *Session) dispatchTool(ctx context.Context, r *relay, transcript *domain.Transcript, outcome turnOutcome, args toolArgs) *domain.ToolInvocation {
	call := *outcome.call
	if call.ID == "" {
		call.ID = uuid.NewString()
	}

	limit := domain.ClampLimit(args.MaxResults, s.cfg.MaxResultsLimit)
	inv := &domain.ToolInvocation{
		ID:    call.ID,
		Name:  call.Name,
		Query: args.Query,
		Limit: limit,
	}

	r.ToolStarted(inv) //nolint:errcheck // ordering enforced by construction
	transcript.AppendToolRequest(outcome.text, call)

	logger.Debug("Tool %s: query=%q limit=%d", call.Name, args.Query, limit)
	records, err := s.source.Search(ctx, args.Query, limit)
	if err != nil {
		var qe *domain.QueryError
		if !errors.As(err, &qe) {
			qe = domain.NewQueryError(domain.KindSourceUnavailable, err.Error(), err)
		}
		inv.Err = qe
		logger.Warn("Tool call failed: %s", qe.Message)
		transcript.AppendToolResult(call.ID, "Search failed: "+qe.Message)
	} else {
		inv.Records = records
		logger.Debug("Tool call returned %d records", len(records))
		transcript.AppendToolResult(call.ID, formatRecordsForModel(records))
	}

	r.ToolFinished(inv) //nolint:errcheck
	return inv
}

// citationSet accumulates citable records across tool rounds in first-seen
// order, keyed by URL.
type citationSet struct {
	seen  map[string]struct{}
	order []domain.ContentRecord
}

func newCitationSet() *citationSet {
	return &citationSet{seen: make(map[string]struct{})}
}

func (c *citationSet) add(records []domain.ContentRecord) {
	for _, rec := range records {
		if !rec.Citable() {
			continue
		}
		if _, dup := c.seen[rec.URL]; dup {
			continue
		}
		c.seen[rec.URL] = struct{}{}
		c.order = append(c.order, rec)
	}
}

func (c *citationSet) list() []domain.ContentRecord {
	return c.order
}
