package domain

// Message roles. These follow the chat-completions convention used by the
// backend wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a backend-issued request to run the search capability.
type ToolCall struct {
	// ID correlates the call with its eventual tool-result message.
	ID string

	// Name is the tool name the backend asked for.
	Name string

	// Arguments is the raw JSON argument payload as streamed by the backend.
	Arguments string
}

// Message is one {role, content} entry in a Transcript.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall

	// ToolCallID is set on tool-result messages and names the call being
	// answered.
	ToolCallID string
}

// Transcript is the append-only conversation log for a single query. It
// spans every turn and every backend switch within that query and is
// discarded when the query reaches a terminal state. It is exclusively
// owned by the session; nothing else mutates it.
type Transcript struct {
	messages []Message
}

// NewTranscript starts a transcript with the system prompt and user query.
func NewTranscript(systemPrompt, userQuery string) *Transcript {
	t := &Transcript{}
	if systemPrompt != "" {
		t.append(Message{Role: RoleSystem, Content: systemPrompt})
	}
	t.append(Message{Role: RoleUser, Content: userQuery})
	return t
}

func (t *Transcript) append(m Message) {
	t.messages = append(t.messages, m)
}

// AppendAssistant records a plain assistant message.
func (t *Transcript) AppendAssistant(content string) {
	t.append(Message{Role: RoleAssistant, Content: content})
}

// AppendToolRequest records the assistant message that carried a tool call.
// The partial assistant text, if any, is kept alongside the call.
func (t *Transcript) AppendToolRequest(content string, call ToolCall) {
	t.append(Message{Role: RoleAssistant, Content: content, ToolCalls: []ToolCall{call}})
}

// AppendToolResult records the resolved tool output for a prior call.
func (t *Transcript) AppendToolResult(callID, content string) {
	t.append(Message{Role: RoleTool, Content: content, ToolCallID: callID})
}

// Messages returns the ordered entries. The returned slice shares the
// transcript's backing array; callers must not mutate it.
func (t *Transcript) Messages() []Message {
	return t.messages
}

// Len returns the number of entries.
func (t *Transcript) Len() int { return len(t.messages) }

// ToolInvocation correlates a single tool-call request with its resolved
// result. Created when the backend requests the capability, resolved exactly
// once, then folded back into the transcript. Never reused across turns.
type ToolInvocation struct {
	// ID is the backend's tool-call identifier, or a generated one when the
	// backend omits it.
	ID string

	// Name is the requested tool name.
	Name string

	// Query and Limit are the arguments after clamping.
	Query string
	Limit int

	// Records holds the result on success.
	Records []ContentRecord

	// Err holds the structured failure when the source call did not succeed.
	Err *QueryError
}

// Resolved reports whether the invocation carries either a result or an
// error marker.
func (inv *ToolInvocation) Resolved() bool {
	return inv.Records != nil || inv.Err != nil
}
