// Package relay defines the domain types and contracts for a stateful
// tool-calling orchestration loop: a Provider proposes tool calls, Handlers
// execute them, and the agent loop relays results back until the provider
// returns plain text.
//
// Conversation continuity is server-side: each Response carries an opaque
// Handle that the next Request must thread forward. History is never
// replayed by the client.
package relay

import "context"

// Handle is an opaque continuation token returned by the inference service
// after each turn. The zero value means "start a new conversation".
// A Handle is never forked: one handle per active loop instance, and each
// Response's handle supersedes the previous one.
type Handle string

// IsZero reports whether the handle denotes a fresh conversation.
func (h Handle) IsZero() bool { return h == "" }

// ToolChoice controls whether the provider may emit tool calls in a turn.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// InputItem is a sealed interface representing one item of a turn's input:
// either a role-tagged message or a correlated tool output.
// The unexported marker method prevents external implementations.
type InputItem interface {
	inputItem()
}

// MessageItem is a role-tagged text message sent to the provider.
type MessageItem struct {
	Role Role
	Text string
}

func (MessageItem) inputItem() {}

// ToolOutputItem feeds one tool execution result back to the provider.
// CallID must echo the originating ToolCall.ID unchanged.
type ToolOutputItem struct {
	CallID string
	Output string
}

func (ToolOutputItem) inputItem() {}

// OutputItem is a sealed interface representing one item of a turn's output.
// Tool-call requests are first-class items interleaved with text; callers
// must not assume a fixed shape.
type OutputItem interface {
	outputItem()
}

// TextItem contains assistant text.
type TextItem struct {
	Text string
}

func (TextItem) outputItem() {}

// ToolCallItem contains a tool-call request emitted by the provider.
type ToolCallItem struct {
	Call ToolCall
}

func (ToolCallItem) outputItem() {}

// Request carries one turn's input to the inference service.
type Request struct {
	Instructions string // system text; empty = none
	Input        []InputItem
	Tools        []Tool
	ToolChoice   ToolChoice // zero value treated as ToolChoiceAuto
	Previous     Handle     // zero = fresh conversation
}

// Response is one turn's output from the inference service.
type Response struct {
	Handle Handle
	Items  []OutputItem
}

// Text returns the concatenation of all text items, separated by newlines.
func (r Response) Text() string {
	var out string
	for _, it := range r.Items {
		if t, ok := it.(TextItem); ok {
			if out != "" {
				out += "\n"
			}
			out += t.Text
		}
	}
	return out
}

// ToolCalls returns all tool-call requests in output order.
func (r Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, it := range r.Items {
		if tc, ok := it.(ToolCallItem); ok {
			calls = append(calls, tc.Call)
		}
	}
	return calls
}

// Provider is the inference-service boundary. Respond blocks for the full
// round trip; transport failures are fatal to the current run and are
// returned as errors, never encoded into the Response.
type Provider interface {
	Respond(ctx context.Context, req Request) (Response, error)
}

// Interface compliance checks.
var (
	_ InputItem = MessageItem{}
	_ InputItem = ToolOutputItem{}

	_ OutputItem = TextItem{}
	_ OutputItem = ToolCallItem{}
)
