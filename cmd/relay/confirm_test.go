package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrawiec/relay"
)

func TestStdinConfirmer(t *testing.T) {
	t.Parallel()

	call := relay.ToolCall{Name: "bash", Arguments: []byte(`{"command":"ls"}`)}

	t.Run("empty line approves", func(t *testing.T) {
		t.Parallel()
		var out strings.Builder
		confirm := stdinConfirmer(strings.NewReader("\n"), &out)
		assert.True(t, confirm(call))
		assert.Contains(t, out.String(), "bash")
	})

	t.Run("y approves", func(t *testing.T) {
		t.Parallel()
		confirm := stdinConfirmer(strings.NewReader("y\n"), &strings.Builder{})
		assert.True(t, confirm(call))
	})

	t.Run("n declines", func(t *testing.T) {
		t.Parallel()
		confirm := stdinConfirmer(strings.NewReader("N\n"), &strings.Builder{})
		assert.False(t, confirm(call))
	})

	t.Run("closed input declines", func(t *testing.T) {
		t.Parallel()
		confirm := stdinConfirmer(strings.NewReader(""), &strings.Builder{})
		assert.False(t, confirm(call))
	})
}

func TestPrintEvents(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	print := printEvents(&out)

	print(relay.EventToolCall{Call: relay.ToolCall{Name: "bash", Arguments: []byte(`{"command":"ls"}`)}})
	print(relay.EventToolResult{ToolName: "bash", Output: "file.go"})
	print(relay.EventToolResult{ToolName: "bash", Output: "boom", IsError: true})
	print(relay.EventText{Text: "done"})
	print(relay.EventStepLimit{Steps: 3})

	got := out.String()
	assert.Contains(t, got, `-> bash {"command":"ls"}`)
	assert.Contains(t, got, "<- file.go")
	assert.Contains(t, got, "<- bash failed: boom")
	assert.Contains(t, got, "done")
	assert.Contains(t, got, "step limit reached after 3 steps")
}
