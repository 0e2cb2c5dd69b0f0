package relay

import (
	"fmt"
	"regexp"
)

// MaxToolNameLength is the longest exposed tool name the inference service
// accepts for a function tool.
const MaxToolNameLength = 64

var toolNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the exposed-name invariant on a Tool: the name matches
// [A-Za-z_][A-Za-z0-9_]*, is at most MaxToolNameLength characters, and the
// parameters schema is present.
func (t Tool) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool name is empty: %w", ErrValidation)
	}
	if len(t.Name) > MaxToolNameLength {
		return fmt.Errorf("tool name %q exceeds %d characters: %w", t.Name, MaxToolNameLength, ErrValidation)
	}
	if !toolNamePattern.MatchString(t.Name) {
		return fmt.Errorf("tool name %q contains invalid characters: %w", t.Name, ErrValidation)
	}
	if len(t.Parameters) == 0 {
		return fmt.Errorf("tool %q has no parameters schema: %w", t.Name, ErrValidation)
	}
	return nil
}

// Validate checks universal constraints on a Request: every tool schema is
// valid and every tool output carries a call ID.
func (r Request) Validate() error {
	for _, t := range r.Tools {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, it := range r.Input {
		if out, ok := it.(ToolOutputItem); ok && out.CallID == "" {
			return fmt.Errorf("tool output missing call ID: %w", ErrValidation)
		}
	}
	return nil
}
