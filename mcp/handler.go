package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/bridge"
)

// Caller abstracts the dispatcher for the handler, so tests can substitute
// a double.
type Caller interface {
	Call(ctx context.Context, serverLabel, tool string, arguments map[string]any) (string, error)
}

// Handler routes bridged tool calls through the reverse index to a remote
// dispatcher. Unknown names and remote failures become observations for the
// model, never run-terminating errors.
type Handler struct {
	index  *bridge.Index
	caller Caller
}

// Interface compliance check.
var _ relay.Handler = (*Handler)(nil)

// NewHandler creates a Handler over the given reverse index and caller.
func NewHandler(index *bridge.Index, caller Caller) *Handler {
	return &Handler{index: index, caller: caller}
}

// Handle resolves the exposed name and invokes the remote tool. Malformed
// arguments are treated as empty arguments.
func (h *Handler) Handle(ctx context.Context, call relay.ToolCall) (string, error) {
	entry, err := h.index.Lookup(call.Name)
	if err != nil {
		return fmt.Sprintf("Unknown tool: %s. Available: %s",
			call.Name, strings.Join(h.index.Names(), ", ")), nil
	}

	args, err := relay.ParseArguments(call.Arguments)
	if err != nil && !errors.Is(err, relay.ErrMalformedArguments) {
		return "", err
	}

	out, err := h.caller.Call(ctx, entry.ServerLabel, entry.RemoteName, args)
	if err != nil {
		var rte *relay.RemoteToolError
		if errors.As(err, &rte) {
			return rte.Error(), nil
		}
		return "", err
	}
	return out, nil
}
