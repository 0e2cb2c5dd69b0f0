package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mkrawiec/relay"
)

// Router maps tool names to handlers. It is built once before a run
// starts and is not safe for concurrent mutation afterwards.
type Router struct {
	handlers map[string]relay.Handler
	tools    []relay.Tool
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]relay.Handler)}
}

// Register adds a tool and its handler. The tool definition is
// validated and duplicate names are rejected.
func (r *Router) Register(tool relay.Tool, handler relay.Handler) error {
	if err := tool.Validate(); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for tool %q", relay.ErrValidation, tool.Name)
	}
	if _, ok := r.handlers[tool.Name]; ok {
		return fmt.Errorf("%w: duplicate tool name %q", relay.ErrValidation, tool.Name)
	}
	r.handlers[tool.Name] = handler
	r.tools = append(r.tools, tool)
	return nil
}

// Tools returns the registered tool definitions in registration order.
func (r *Router) Tools() []relay.Tool {
	return r.tools
}

// Names returns the registered tool names sorted alphabetically.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a tool call to its handler and returns the output
// to submit back to the model. Unknown tools and handler failures
// produce an observation rather than an error so the conversation can
// continue.
func (r *Router) Dispatch(ctx context.Context, call relay.ToolCall) (string, bool) {
	handler, ok := r.handlers[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s. Available: %s", call.Name, strings.Join(r.Names(), ", ")), true
	}
	output, err := handler.Handle(ctx, call)
	if err != nil {
		return err.Error(), true
	}
	return output, false
}
