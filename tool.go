package relay

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the schema sent to the inference service describing a callable
// function tool. Name must satisfy the exposed-name invariant checked by
// Validate: [A-Za-z_][A-Za-z0-9_]*, at most 64 characters.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is one tool-call request emitted by the provider inside a turn.
// ID is opaque and must be echoed back unchanged in the matching ToolOutput.
// Arguments is the raw JSON the provider supplied; it may be malformed, in
// which case handlers treat it as empty arguments rather than failing.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolOutput is the unit fed back to the provider: one per ToolCall, with
// the call's ID preserved. Output is always a string; structured results
// are serialized before they get here.
type ToolOutput struct {
	CallID string
	Output string
}

// ParseArguments decodes raw tool-call arguments into a mapping. Empty input
// yields an empty mapping. Unparseable input also yields an empty mapping,
// together with an error wrapping ErrMalformedArguments: callers recover by
// using the mapping while the condition itself stays observable.
func ParseArguments(data json.RawMessage) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return map[string]any{}, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// Handler executes one tool call and returns its observation text. The
// returned error is reserved for infrastructure failures the loop should
// surface to the model as an error observation; domain failures are encoded
// in the observation text itself.
type Handler interface {
	Handle(ctx context.Context, call ToolCall) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, call ToolCall) (string, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, call ToolCall) (string, error) {
	return f(ctx, call)
}

// Interface compliance check.
var _ Handler = (HandlerFunc)(nil)
