// Package mcp implements the remote tool-server boundary: a JSON-RPC 2.0
// client speaking the Model Context Protocol over a stdio subprocess
// transport, a dispatcher that keeps one session per server, and the
// flattening of multi-part tool results into a single observation string.
package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	protocolVersion = "2024-11-05"
	clientName      = "relay"
	clientVersion   = "1.0.0"
)

// ContentPart is one element of a remote tool result. Exactly one of the
// payload fields is normally set: Text for plain text, JSON or Data for
// structured values. Anything else is rendered generically.
type ContentPart struct {
	Type string  `json:"type,omitempty"`
	Text *string `json:"text,omitempty"`
	JSON any     `json:"json,omitempty"`
	Data any     `json:"data,omitempty"`
}

// Flatten reduces an ordered sequence of content parts to one string. For
// each part in order: plain text is appended as is; structured values are
// serialized as indented JSON with non-ASCII preserved, falling back to a
// generic rendering when serialization fails; unrecognized parts are
// rendered generically. Fragments are joined with newlines. No recognized
// parts yields the empty string, not an error.
func Flatten(parts []ContentPart) string {
	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Text != nil {
			fragments = append(fragments, *p.Text)
			continue
		}
		obj := p.JSON
		if obj == nil {
			obj = p.Data
		}
		if obj != nil {
			if s, err := marshalIndented(obj); err == nil {
				fragments = append(fragments, s)
			} else {
				fragments = append(fragments, fmt.Sprintf("%v", obj))
			}
			continue
		}
		fragments = append(fragments, fmt.Sprintf("%v", p))
	}
	return strings.Join(fragments, "\n")
}

// marshalIndented serializes v as two-space-indented JSON without escaping
// HTML or non-ASCII characters.
func marshalIndented(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
