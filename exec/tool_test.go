package exec_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTool(t *testing.T) {
	t.Parallel()

	tool := exec.Tool()
	require.NoError(t, tool.Validate())
	assert.Equal(t, "bash", tool.Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.Parameters, &schema))
	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "command")
	assert.Contains(t, props, "timeout_sec")
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	t.Run("decodes fields", func(t *testing.T) {
		t.Parallel()
		command, timeoutSec, err := exec.ParseArgsForTest(json.RawMessage(`{"command":"ls","timeout_sec":5}`))
		require.NoError(t, err)
		assert.Equal(t, "ls", command)
		assert.Equal(t, 5, timeoutSec)
	})

	t.Run("malformed input recovers with named condition", func(t *testing.T) {
		t.Parallel()
		command, timeoutSec, err := exec.ParseArgsForTest(json.RawMessage(`{not json`))
		assert.ErrorIs(t, err, relay.ErrMalformedArguments)
		assert.Empty(t, command)
		assert.Zero(t, timeoutSec)
	})
}

func TestHandler_Handle(t *testing.T) {
	t.Parallel()

	t.Run("serializes command result as JSON", func(t *testing.T) {
		t.Parallel()
		h := exec.NewHandler(t.TempDir())
		out, err := h.Handle(context.Background(), relay.ToolCall{
			ID:        "c1",
			Name:      "bash",
			Arguments: json.RawMessage(`{"command": "printf 'a.txt\nb.txt\n'"}`),
		})
		require.NoError(t, err)

		result, err := relay.ParseCommandResult(out)
		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, "a.txt\nb.txt\n", result.Stdout)
		assert.Empty(t, result.Stderr)
	})

	t.Run("malformed arguments treated as empty", func(t *testing.T) {
		t.Parallel()
		h := exec.NewHandler(t.TempDir())
		out, err := h.Handle(context.Background(), relay.ToolCall{
			ID:        "c1",
			Name:      "bash",
			Arguments: json.RawMessage(`{not json`),
		})
		require.NoError(t, err)
		assert.Equal(t, "command is required", out)
	})

	t.Run("missing command yields observation", func(t *testing.T) {
		t.Parallel()
		h := exec.NewHandler(t.TempDir())
		out, err := h.Handle(context.Background(), relay.ToolCall{
			ID:        "c1",
			Name:      "bash",
			Arguments: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "command is required", out)
	})

	t.Run("honors timeout_sec argument", func(t *testing.T) {
		t.Parallel()
		h := exec.NewHandler(t.TempDir())
		out, err := h.Handle(context.Background(), relay.ToolCall{
			ID:        "c1",
			Name:      "bash",
			Arguments: json.RawMessage(`{"command": "sleep 30", "timeout_sec": 1}`),
		})
		require.NoError(t, err)

		result, err := relay.ParseCommandResult(out)
		require.NoError(t, err)
		assert.Equal(t, -1, result.ExitCode)
		assert.Contains(t, result.Stderr, "timed out")
	})
}
