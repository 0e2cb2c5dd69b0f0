package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/agent"
	"github.com/mkrawiec/relay/bridge"
)

// recordingCaller implements mcp.Caller and records the resolved call.
type recordingCaller struct {
	server string
	tool   string
	args   map[string]any
}

func (c *recordingCaller) Call(ctx context.Context, serverLabel, tool string, arguments map[string]any) (string, error) {
	c.server = serverLabel
	c.tool = tool
	c.args = arguments
	return "remote result", nil
}

func TestRegisterPersistedTools(t *testing.T) {
	t.Parallel()

	t.Run("registers saved tools and routes through the saved index", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tools.json")
		tools := []relay.Tool{{
			Name:        "docs__search",
			Description: "Search the docs",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		}}
		index := bridge.NewIndex(map[string]bridge.Entry{
			"docs__search": {ServerLabel: "docs", RemoteName: "search"},
		})
		require.NoError(t, bridge.SaveArtifacts(path, tools, index))

		caller := &recordingCaller{}
		router := agent.NewRouter()
		require.NoError(t, registerPersistedTools(router, caller, path))
		assert.Equal(t, []string{"docs__search"}, router.Names())

		out, isError := router.Dispatch(context.Background(), relay.ToolCall{
			ID:        "c1",
			Name:      "docs__search",
			Arguments: json.RawMessage(`{"query":"fastapi"}`),
		})
		assert.False(t, isError)
		assert.Equal(t, "remote result", out)
		assert.Equal(t, "docs", caller.server)
		assert.Equal(t, "search", caller.tool)
		assert.Equal(t, "fastapi", caller.args["query"])
	})

	t.Run("missing artifacts file fails", func(t *testing.T) {
		t.Parallel()
		router := agent.NewRouter()
		err := registerPersistedTools(router, &recordingCaller{}, filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "load tool artifacts")
	})
}
