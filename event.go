package relay

// Event is a sealed interface representing a loop progress event. Events are
// purely informational; run outcomes and errors come from Run's return
// values, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventText reports assistant text from a completed turn.
type EventText struct {
	Text string
}

func (EventText) event() {}

// EventToolCall signals that the provider requested a tool call.
type EventToolCall struct {
	Call ToolCall
}

func (EventToolCall) event() {}

// EventToolResult reports the observation produced for a tool call.
type EventToolResult struct {
	CallID   string
	ToolName string
	Output   string
	IsError  bool
}

func (EventToolResult) event() {}

// EventConfirmDeclined signals that the human confirmer declined a proposed
// tool call and the loop is nudging the model toward another approach.
type EventConfirmDeclined struct {
	Call ToolCall
}

func (EventConfirmDeclined) event() {}

// EventStepLimit signals that the loop halted because the step budget was
// exhausted before the provider returned a text-only turn.
type EventStepLimit struct {
	Steps int
}

func (EventStepLimit) event() {}

// Interface compliance checks.
var (
	_ Event = EventText{}
	_ Event = EventToolCall{}
	_ Event = EventToolResult{}
	_ Event = EventConfirmDeclined{}
	_ Event = EventStepLimit{}
)
