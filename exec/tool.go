package exec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkrawiec/relay"
)

// ToolName is the exposed name of the local command tool.
const ToolName = "bash"

// Tool returns the function-tool schema for the local command tool.
func Tool() relay.Tool {
	return relay.Tool{
		Name:        ToolName,
		Description: "Execute a non-interactive bash command in the working directory.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"command": {"type": "string"},
				"timeout_sec": {"type": "integer", "minimum": 1, "default": 120}
			},
			"required": ["command"]
		}`),
	}
}

type toolArgs struct {
	Command    string `json:"command"`
	TimeoutSec int    `json:"timeout_sec"`
}

// parseArgs decodes tool-call arguments. Unparseable input yields zero
// arguments together with relay.ErrMalformedArguments so the recovery is a
// named condition rather than a silent fallback.
func parseArgs(data json.RawMessage) (toolArgs, error) {
	var a toolArgs
	if len(data) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return toolArgs{}, fmt.Errorf("%w: %v", relay.ErrMalformedArguments, err)
	}
	return a, nil
}

// Handler executes bash tool calls in a fixed working directory and
// serializes each CommandResult as a JSON observation.
type Handler struct {
	dir string
}

// Interface compliance check.
var _ relay.Handler = (*Handler)(nil)

// NewHandler creates a Handler rooted at dir.
func NewHandler(dir string) *Handler {
	return &Handler{dir: dir}
}

// Handle runs the requested command. Malformed arguments are treated as
// empty arguments; a missing command yields a plain observation rather than
// an error so the model can correct itself.
func (h *Handler) Handle(ctx context.Context, call relay.ToolCall) (string, error) {
	a, err := parseArgs(call.Arguments)
	if err != nil && !errors.Is(err, relay.ErrMalformedArguments) {
		return "", err
	}

	if a.Command == "" {
		return "command is required", nil
	}

	timeout := DefaultTimeout
	if a.TimeoutSec > 0 {
		timeout = time.Duration(a.TimeoutSec) * time.Second
	}

	result, err := Run(ctx, a.Command, h.dir, timeout)
	if err != nil {
		return "", err
	}
	return relay.MarshalCommandResult(result)
}
