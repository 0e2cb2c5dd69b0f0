// Package agent runs the multi-step conversation loop between a model
// provider and locally executed tools.
//
// A run proceeds in steps. Each step inspects the latest model
// response: tool calls are dispatched through the Router and their
// outputs submitted back as a batch, a plain-text response ends the
// stepping phase and triggers a final summarization turn with tools
// disabled, and exhausting the step budget stops the run without
// summarization. Conversation state lives server side; the loop only
// threads the continuation handle from each response into the next
// request.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkrawiec/relay"
)

const (
	// DefaultMaxSteps bounds the number of loop iterations unless
	// overridden with WithMaxSteps.
	DefaultMaxSteps = 20

	// StepLimitMessage is reported as the run summary when the step
	// budget is exhausted before the model stops calling tools.
	StepLimitMessage = "Stopped: step limit reached."

	defaultClip = 500
)

const defaultInstructions = `You work in steps. At each step:
- Return at most ONE tool call.
- After observing results, decide the next step.
- Stop proposing actions when the task is accomplished; then return plain text.`

const (
	summaryInstructions = "Summarize the overall results for the user."
	summaryRequest      = "Summarize the overall results as bullet points for the user."
	declinedNudge       = "Declined. Try another approach."
	declinedOutput      = "Declined by user."
)

// ConfirmFunc gates tool execution. Returning false declines the call.
type ConfirmFunc func(call relay.ToolCall) bool

// EventFunc observes loop progress.
type EventFunc func(event relay.Event)

// Loop drives a task to completion against a provider and a router of
// tool handlers.
type Loop struct {
	provider     relay.Provider
	router       *Router
	maxSteps     int
	confirm      ConfirmFunc
	onEvent      EventFunc
	instructions string
	clip         int
	log          logrus.FieldLogger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxSteps overrides the step budget. Values below one are ignored.
func WithMaxSteps(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxSteps = n
		}
	}
}

// WithConfirm installs a confirmation gate consulted before each tool
// execution.
func WithConfirm(fn ConfirmFunc) Option {
	return func(l *Loop) {
		l.confirm = fn
	}
}

// WithEventHandler installs a callback invoked for each loop event.
func WithEventHandler(fn EventFunc) Option {
	return func(l *Loop) {
		l.onEvent = fn
	}
}

// WithInstructions replaces the default system prompt for the first
// turn.
func WithInstructions(instructions string) Option {
	return func(l *Loop) {
		if instructions != "" {
			l.instructions = instructions
		}
	}
}

// WithLogger sets the logger used for run progress.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns a Loop for the given provider and router.
func New(provider relay.Provider, router *Router, opts ...Option) *Loop {
	l := &Loop{
		provider:     provider,
		router:       router,
		maxSteps:     DefaultMaxSteps,
		instructions: defaultInstructions,
		clip:         defaultClip,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result reports the outcome of a run.
type Result struct {
	// Summary is the final user-facing text, or StepLimitMessage when
	// the step budget was exhausted.
	Summary string

	// Steps is the number of loop iterations consumed.
	Steps int

	// ToolCalls is the number of tool calls executed. Declined calls
	// are not counted.
	ToolCalls int

	// StepLimitReached is true when the run stopped because of the
	// step budget rather than a model done signal.
	StepLimitReached bool
}

type runState struct {
	handle    relay.Handle
	steps     int
	toolCalls int
}

// Run executes the loop for a single task. The returned Result carries
// the summary text together with step and tool-call totals. Provider
// failures abort the run.
func (l *Loop) Run(ctx context.Context, task string) (Result, error) {
	state := &runState{}
	log := l.log.WithField("run_id", uuid.NewString())
	log.WithFields(logrus.Fields{
		"task":      clip(task, l.clip),
		"max_steps": l.maxSteps,
		"tools":     len(l.router.Tools()),
	}).Info("run started")

	resp, err := l.turn(ctx, state, []relay.InputItem{
		relay.MessageItem{Role: relay.RoleSystem, Text: l.instructions},
		relay.MessageItem{Role: relay.RoleUser, Text: strings.TrimSpace(task)},
	}, true)
	if err != nil {
		return Result{}, err
	}

	for step := 1; step <= l.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		state.steps = step

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			text := resp.Text()
			l.emit(relay.EventText{Text: text})
			log.WithFields(logrus.Fields{
				"step": step,
				"text": clip(text, l.clip),
			}).Info("done signal")
			return l.summarize(ctx, state, log)
		}

		log.WithFields(logrus.Fields{
			"step":  step,
			"calls": len(calls),
		}).Info("tool calls requested")

		input, declined := l.executeBatch(ctx, state, calls, log)
		if declined {
			input = append(input, relay.MessageItem{Role: relay.RoleUser, Text: declinedNudge})
		}
		resp, err = l.turn(ctx, state, input, true)
		if err != nil {
			return Result{}, err
		}
	}

	l.emit(relay.EventStepLimit{Steps: state.steps})
	log.WithFields(logrus.Fields{
		"steps":      state.steps,
		"tool_calls": state.toolCalls,
	}).Warn("step limit reached")
	return Result{
		Summary:          StepLimitMessage,
		Steps:            state.steps,
		ToolCalls:        state.toolCalls,
		StepLimitReached: true,
	}, nil
}

// executeBatch dispatches every call in the batch and returns one
// output item per call_id, in request order. Once a call is declined
// the remaining calls are declined as well, so every call_id still
// receives an output.
func (l *Loop) executeBatch(ctx context.Context, state *runState, calls []relay.ToolCall, log logrus.FieldLogger) ([]relay.InputItem, bool) {
	input := make([]relay.InputItem, 0, len(calls))
	declined := false
	for _, call := range calls {
		if !declined && l.confirm != nil && !l.confirm(call) {
			declined = true
		}
		if declined {
			l.emit(relay.EventConfirmDeclined{Call: call})
			log.WithFields(logrus.Fields{
				"tool":    call.Name,
				"call_id": call.ID,
			}).Info("tool call declined")
			input = append(input, relay.ToolOutputItem{CallID: call.ID, Output: declinedOutput})
			continue
		}

		l.emit(relay.EventToolCall{Call: call})
		output, isError := l.router.Dispatch(ctx, call)
		state.toolCalls++
		l.emit(relay.EventToolResult{
			CallID:   call.ID,
			ToolName: call.Name,
			Output:   output,
			IsError:  isError,
		})
		log.WithFields(logrus.Fields{
			"tool":     call.Name,
			"call_id":  call.ID,
			"is_error": isError,
			"output":   clip(output, l.clip),
		}).Info("tool call executed")
		input = append(input, relay.ToolOutputItem{CallID: call.ID, Output: output})
	}
	return input, declined
}

func (l *Loop) summarize(ctx context.Context, state *runState, log logrus.FieldLogger) (Result, error) {
	log.WithFields(logrus.Fields{
		"steps":      state.steps,
		"tool_calls": state.toolCalls,
	}).Info("summarizing")
	resp, err := l.turn(ctx, state, []relay.InputItem{
		relay.MessageItem{Role: relay.RoleSystem, Text: summaryInstructions},
		relay.MessageItem{Role: relay.RoleUser, Text: summaryRequest},
	}, false)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary:   strings.TrimSpace(resp.Text()),
		Steps:     state.steps,
		ToolCalls: state.toolCalls,
	}, nil
}

// turn sends one request to the provider, threading the continuation
// handle. The handle from the response supersedes the previous one
// unconditionally.
func (l *Loop) turn(ctx context.Context, state *runState, input []relay.InputItem, exposeTools bool) (relay.Response, error) {
	req := relay.Request{
		Input:      input,
		Previous:   state.handle,
		ToolChoice: relay.ToolChoiceNone,
	}
	if exposeTools {
		req.Tools = l.router.Tools()
		req.ToolChoice = relay.ToolChoiceAuto
	}
	resp, err := l.provider.Respond(ctx, req)
	if err != nil {
		return relay.Response{}, fmt.Errorf("model turn: %w", err)
	}
	state.handle = resp.Handle
	return resp, nil
}

func (l *Loop) emit(event relay.Event) {
	if l.onEvent != nil {
		l.onEvent(event)
	}
}

// clip shortens s to n code points for logging.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
