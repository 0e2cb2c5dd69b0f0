// Package bridge converts externally discovered tool descriptors into the
// inference service's function-tool schema, together with a reverse index
// that routes a model-issued call name back to its originating server and
// tool. Bridging is deterministic and total: malformed upstream names and
// schemas are expected and repaired, never fatal.
package bridge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mkrawiec/relay"
)

// Descriptor is an externally supplied tool description from a remote tool
// server. It is read-only input: bridging derives data from it and never
// mutates it.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

// Entry maps a bridged (exposed) name back to its origin.
type Entry struct {
	ServerLabel string `json:"server_label"`
	RemoteName  string `json:"remote_name"`
}

// Index is the reverse lookup from exposed names to their origins. Every
// exposed name produced by Bridge has exactly one entry.
type Index struct {
	entries map[string]Entry
}

// NewIndex creates an Index from explicit entries, used when loading
// persisted artifacts.
func NewIndex(entries map[string]Entry) *Index {
	m := make(map[string]Entry, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &Index{entries: m}
}

// Lookup resolves an exposed name. Unknown names fail explicitly with
// ErrUnknownTool; they are never a silent no-op.
func (ix *Index) Lookup(name string) (Entry, error) {
	e, ok := ix.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, relay.ErrUnknownTool)
	}
	return e, nil
}

// Names returns all exposed names in sorted order.
func (ix *Index) Names() []string {
	names := make([]string, 0, len(ix.entries))
	for n := range ix.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns a copy of the underlying map, used to merge indexes from
// several servers into one.
func (ix *Index) Entries() map[string]Entry {
	m := make(map[string]Entry, len(ix.entries))
	for k, v := range ix.entries {
		m[k] = v
	}
	return m
}

// Bridge converts descriptors from one server into function tools plus the
// reverse index. Descriptors without a name are skipped: partial tool sets
// from a misbehaving server must not abort the whole bridge. Exposed names
// are unique within the returned set.
func Bridge(descriptors []Descriptor, serverLabel string) ([]relay.Tool, *Index, error) {
	var tools []relay.Tool
	index := &Index{entries: make(map[string]Entry)}

	for _, d := range descriptors {
		if d.Name == "" {
			continue
		}

		name := uniqueName(SanitizeName(d.Name, serverLabel), index.entries)
		params, err := json.Marshal(NormalizeSchema(d.InputSchema))
		if err != nil {
			return nil, nil, fmt.Errorf("bridge tool %q: %w", d.Name, err)
		}

		desc := d.Description
		if desc == "" {
			desc = d.Name
		}

		tools = append(tools, relay.Tool{
			Name:        name,
			Description: desc,
			Parameters:  params,
		})
		index.entries[name] = Entry{ServerLabel: serverLabel, RemoteName: d.Name}
	}

	return tools, index, nil
}

var (
	invalidChars   = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRuns = regexp.MustCompile(`_+`)
	validNameStart = regexp.MustCompile(`^[a-zA-Z_]`)
)

// SanitizeName converts a raw remote tool name into a valid exposed function
// name: lower-cased, restricted to [a-z0-9_], underscore runs collapsed,
// prefixed with the server label, truncated to 64 characters. The algorithm
// is deterministic and total; it never fails on malformed input.
func SanitizeName(name, serverLabel string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = invalidChars.ReplaceAllString(n, "_")
	n = underscoreRuns.ReplaceAllString(n, "_")
	n = strings.Trim(n, "_")
	if n == "" || !validNameStart.MatchString(n) {
		if n == "" {
			n = "tool_mcp"
		} else {
			n = "tool_" + n
		}
	}
	if serverLabel != "" {
		n = serverLabel + "__" + n
	}
	if len(n) > relay.MaxToolNameLength {
		n = n[:relay.MaxToolNameLength]
	}
	return n
}

// uniqueName appends a numeric suffix when two raw names sanitize to the
// same exposed name, keeping the result within the length bound.
func uniqueName(name string, taken map[string]Entry) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf("_%d", i)
		candidate := name
		if len(candidate)+len(suffix) > relay.MaxToolNameLength {
			candidate = candidate[:relay.MaxToolNameLength-len(suffix)]
		}
		candidate += suffix
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// NormalizeSchema produces a safe JSON-Schema-shaped parameters object from
// an arbitrary externally supplied schema. Non-object input yields the empty
// object schema. Object input is deep-copied, the $schema pointer dropped,
// type defaulted to "object", and properties defaulted to an empty mapping
// for object schemas. The caller's value is never mutated.
func NormalizeSchema(schema any) map[string]any {
	obj, ok := schema.(map[string]any)
	if !ok {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	out := deepCopyMap(obj)
	delete(out, "$schema")

	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	if out["type"] == "object" {
		if _, ok := out["properties"]; !ok {
			out["properties"] = map[string]any{}
		}
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
