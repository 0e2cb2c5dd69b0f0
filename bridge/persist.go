package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkrawiec/relay"
)

// envelope is the v1 wire format for persisted bridge artifacts: the bridged
// tool list plus the reverse index, round-tripping losslessly so later runs
// can load them instead of rebuilding.
type envelope struct {
	Version int              `json:"version"`
	Tools   []toolDTO        `json:"tools"`
	Index   map[string]Entry `json:"reverse_index"`
}

// toolDTO is the JSON representation of a bridged tool.
type toolDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// MarshalArtifacts serializes bridged tools and their reverse index in v1
// envelope format.
func MarshalArtifacts(tools []relay.Tool, index *Index) ([]byte, error) {
	env := envelope{
		Version: 1,
		Tools:   make([]toolDTO, 0, len(tools)),
		Index:   make(map[string]Entry, index.Len()),
	}
	for _, t := range tools {
		env.Tools = append(env.Tools, toolDTO{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	for name, entry := range index.entries {
		env.Index[name] = entry
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalArtifacts parses v1 envelope data back into bridged tools and
// their reverse index.
func UnmarshalArtifacts(data []byte) ([]relay.Tool, *Index, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("unmarshal artifacts: %w", err)
	}
	if env.Version != 1 {
		return nil, nil, fmt.Errorf("unsupported artifacts version %d", env.Version)
	}

	tools := make([]relay.Tool, 0, len(env.Tools))
	for _, dto := range env.Tools {
		tool := relay.Tool{
			Name:        dto.Name,
			Description: dto.Description,
			Parameters:  dto.Parameters,
		}
		if err := tool.Validate(); err != nil {
			return nil, nil, fmt.Errorf("persisted tool: %w", err)
		}
		tools = append(tools, tool)
	}
	return tools, NewIndex(env.Index), nil
}

// SaveArtifacts writes bridge artifacts to a JSON file, creating parent
// directories as needed.
func SaveArtifacts(path string, tools []relay.Tool, index *Index) error {
	data, err := MarshalArtifacts(tools, index)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadArtifacts reads bridge artifacts from a JSON file.
func LoadArtifacts(path string) ([]relay.Tool, *Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalArtifacts(data)
}
