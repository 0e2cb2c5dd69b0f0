package relay

import (
	"encoding/json"
	"fmt"
)

// CommandResult is the structurally complete outcome of one local command
// execution. It is immutable once created and serialized verbatim into a
// ToolOutput. A timed-out command carries exit code -1 with partial output
// preserved; see the exec package for the timeout policy.
type CommandResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"returncode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// MarshalCommandResult serializes a CommandResult to its JSON observation
// form. The encoding round-trips losslessly through ParseCommandResult.
func MarshalCommandResult(r CommandResult) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal command result: %w", err)
	}
	return string(data), nil
}

// ParseCommandResult parses the JSON observation form produced by
// MarshalCommandResult.
func ParseCommandResult(s string) (CommandResult, error) {
	var r CommandResult
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return CommandResult{}, fmt.Errorf("parse command result: %w", err)
	}
	return r, nil
}
