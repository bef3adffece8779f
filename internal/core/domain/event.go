package domain

// EventKind tags a StreamEvent variant.
type EventKind string

// Stream event kinds, in the order they may appear. Exactly one terminal
// event (final or failed) ends every query's sequence.
const (
	// EventFragment carries incremental answer text.
	EventFragment EventKind = "fragment"

	// EventToolStarted announces a tool invocation about to run.
	EventToolStarted EventKind = "tool_started"

	// EventToolFinished carries the resolved invocation.
	EventToolFinished EventKind = "tool_finished"

	// EventFinal is the terminal success event.
	EventFinal EventKind = "final"

	// EventFailed is the terminal failure event.
	EventFailed EventKind = "failed"
)

// Answer is the terminal payload of a successful query.
type Answer struct {
	// Text is the backend's final message.
	Text string

	// Citations are the citable records surfaced by every resolved tool
	// invocation during the query, in first-seen order without duplicates.
	Citations []ContentRecord

	// Model is the backend candidate that produced the answer.
	Model string
}

// StreamEvent is one unit of the ordered output sequence delivered to the
// presentation layer during a query. Only the fields for its Kind are set.
type StreamEvent struct {
	Kind EventKind

	// Fragment text, for EventFragment.
	Fragment string

	// Invocation, for EventToolStarted and EventToolFinished. On
	// tool-started only ID, Name, Query and Limit are populated.
	Invocation *ToolInvocation

	// Final answer, for EventFinal.
	Final *Answer

	// Failure classification and message, for EventFailed.
	ErrKind    ErrorKind
	ErrMessage string
}

// Terminal reports whether the event ends the sequence.
func (e StreamEvent) Terminal() bool {
	return e.Kind == EventFinal || e.Kind == EventFailed
}

// EventSink receives stream events in strict arrival order. Delivery is
// synchronous: a slow consumer blocks the producer, events are never dropped.
type EventSink func(StreamEvent)
