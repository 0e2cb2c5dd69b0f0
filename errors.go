package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes. Only transport failures and
// step-limit exhaustion terminate a run; everything else is fed back to the
// model as an observation so it can adapt.
var (
	// ErrValidation indicates a tool or request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrUnknownTool indicates the requested tool name has no reverse-index
	// entry or router registration.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMalformedArguments indicates tool-call arguments were not parseable
	// JSON. Handlers recover by treating them as empty arguments; the
	// condition stays named so the recovery path is checkable.
	ErrMalformedArguments = errors.New("malformed tool arguments")

	// ErrStaleHandle indicates the inference service rejected the request's
	// continuation handle. Reusing a superseded handle is a protocol
	// violation and fails the run.
	ErrStaleHandle = errors.New("stale continuation handle")
)

// RemoteToolError reports a failure establishing a remote tool session or a
// failure reported by the remote server itself. The loop flattens it into an
// observation; it does not terminate the run.
type RemoteToolError struct {
	Server string
	Tool   string
	Err    error
}

// Error returns the formatted error message.
func (e *RemoteToolError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("remote tool server %q: %v", e.Server, e.Err)
	}
	return fmt.Sprintf("remote tool %q on server %q: %v", e.Tool, e.Server, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RemoteToolError) Unwrap() error { return e.Err }
