package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/agent"
)

// stdinConfirmer prompts on out and reads one line from in per tool call.
// Anything other than an explicit "n" approves, matching the prompt's
// default.
func stdinConfirmer(in io.Reader, out io.Writer) agent.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(call relay.ToolCall) bool {
		fmt.Fprintf(out, "Execute %s %s? [Y/n] ", call.Name, string(call.Arguments))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		return strings.ToLower(strings.TrimSpace(line)) != "n"
	}
}

// printEvents renders loop progress for the terminal.
func printEvents(out io.Writer) agent.EventFunc {
	return func(event relay.Event) {
		switch e := event.(type) {
		case relay.EventToolCall:
			fmt.Fprintf(out, "-> %s %s\n", e.Call.Name, string(e.Call.Arguments))
		case relay.EventToolResult:
			if e.IsError {
				fmt.Fprintf(out, "<- %s failed: %s\n", e.ToolName, e.Output)
				return
			}
			fmt.Fprintf(out, "<- %s\n", e.Output)
		case relay.EventConfirmDeclined:
			fmt.Fprintf(out, "declined %s\n", e.Call.Name)
		case relay.EventText:
			fmt.Fprintf(out, "%s\n", e.Text)
		case relay.EventStepLimit:
			fmt.Fprintf(out, "step limit reached after %d steps\n", e.Steps)
		}
	}
}
