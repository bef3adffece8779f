package services

import (
	"errors"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// Relay misuse errors. These indicate a bug in the session, never a
// condition a user can cause.
var (
	errRelayClosed      = errors.New("relay: sequence already terminated")
	errRelayToolPending = errors.New("relay: tool invocation still unresolved")
	errRelayNoTool      = errors.New("relay: no tool invocation pending")
)

// relay converts the session's progress into the ordered StreamEvent
// sequence consumed by exactly one subscriber per query.
//
// Guarantees enforced here: events go out in emission order, exactly one
// terminal event closes the sequence, and a tool-started is always resolved
// by tool-finished (or the terminal failed) before any further fragment.
// Emission is synchronous: a slow subscriber blocks the session, and no
// event is ever dropped.
type relay struct {
	sink        domain.EventSink
	closed      bool
	toolPending bool
}

func newRelay(sink domain.EventSink) *relay {
	return &relay{sink: sink}
}

// Fragment forwards incremental answer text. Empty fragments are not
// events; the backend occasionally streams them around tool-call chunks.
func (r *relay) Fragment(text string) error {
	if r.closed {
		return errRelayClosed
	}
	if r.toolPending {
		return errRelayToolPending
	}
	if text == "" {
		return nil
	}
	r.sink(domain.StreamEvent{Kind: domain.EventFragment, Fragment: text})
	return nil
}

// ToolStarted announces an invocation about to run. At most one invocation
// may be outstanding at a time.
func (r *relay) ToolStarted(inv *domain.ToolInvocation) error {
	if r.closed {
		return errRelayClosed
	}
	if r.toolPending {
		return errRelayToolPending
	}
	r.toolPending = true
	r.sink(domain.StreamEvent{Kind: domain.EventToolStarted, Invocation: inv})
	return nil
}

// ToolFinished resolves the pending invocation.
func (r *relay) ToolFinished(inv *domain.ToolInvocation) error {
	if r.closed {
		return errRelayClosed
	}
	if !r.toolPending {
		return errRelayNoTool
	}
	r.toolPending = false
	r.sink(domain.StreamEvent{Kind: domain.EventToolFinished, Invocation: inv})
	return nil
}

// Final terminates the sequence with the answer.
func (r *relay) Final(answer *domain.Answer) error {
	if r.closed {
		return errRelayClosed
	}
	if r.toolPending {
		return errRelayToolPending
	}
	r.closed = true
	r.sink(domain.StreamEvent{Kind: domain.EventFinal, Final: answer})
	return nil
}

// Fail terminates the sequence with a classified failure and returns the
// matching *domain.QueryError for the caller to propagate. A pending tool
// invocation is allowed here: failed is a valid resolution for it. Calling
// Fail after the sequence terminated emits nothing and only returns the
// error.
func (r *relay) Fail(kind domain.ErrorKind, message string) error {
	err := domain.Errorf(kind, "%s", message)
	if r.closed {
		return err
	}
	r.closed = true
	r.toolPending = false
	r.sink(domain.StreamEvent{Kind: domain.EventFailed, ErrKind: kind, ErrMessage: message})
	return err
}
