package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/mkrawiec/relay"
)

// Interface compliance check.
var _ relay.Provider = (*Client)(nil)

// Client implements [relay.Provider] for the OpenAI Responses API.
type Client struct {
	client          openai.Client
	model           string
	reasoningEffort shared.ReasoningEffort
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gpt-5.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithReasoningEffort sets the reasoning effort for every request.
// Empty means the service default.
func WithReasoningEffort(effort string) Option {
	return func(c *Client) { c.reasoningEffort = shared.ReasoningEffort(effort) }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Respond sends one turn to the Responses API and converts the result. The
// returned Response's Handle supersedes the request's; SDK and transport
// failures are fatal to the caller's run.
func (c *Client) Respond(ctx context.Context, req relay.Request) (relay.Response, error) {
	if err := req.Validate(); err != nil {
		return relay.Response{}, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: BuildInput(req.Input)},
	}

	if req.Previous.IsZero() {
		// First turn: ask the service to store the conversation server-side.
		params.Store = openai.Bool(true)
	} else {
		params.PreviousResponseID = openai.String(string(req.Previous))
	}

	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}

	if tools := BuildTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	mode := responses.ToolChoiceOptionsAuto
	if req.ToolChoice == relay.ToolChoiceNone {
		mode = responses.ToolChoiceOptionsNone
	}
	params.ToolChoice = responses.ResponseNewParamsToolChoiceUnion{
		OfToolChoiceMode: param.NewOpt(mode),
	}

	if c.reasoningEffort != "" {
		params.Reasoning = shared.ReasoningParam{Effort: c.reasoningEffort}
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return relay.Response{}, MapError(err, req.Previous)
	}
	return ConvertResponse(*resp), nil
}

// MapError classifies a Responses API failure. A rejected
// previous_response_id means the conversation can no longer be continued
// from the request's handle, which surfaces as relay.ErrStaleHandle.
// Exported for testing.
func MapError(err error, previous relay.Handle) error {
	var apiErr *openai.Error
	if !previous.IsZero() && errors.As(err, &apiErr) {
		rejected := apiErr.StatusCode == http.StatusNotFound ||
			(apiErr.StatusCode == http.StatusBadRequest &&
				strings.Contains(strings.ToLower(apiErr.Message), "previous response"))
		if rejected {
			return fmt.Errorf("continuation %q rejected: %w", previous, relay.ErrStaleHandle)
		}
	}
	return fmt.Errorf("openai: %w", err)
}

// BuildInput converts relay input items to Responses API input items.
// Exported for testing.
func BuildInput(items []relay.InputItem) responses.ResponseInputParam {
	out := make(responses.ResponseInputParam, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case relay.MessageItem:
			role := responses.EasyInputMessageRoleUser
			if v.Role == relay.RoleSystem {
				role = responses.EasyInputMessageRoleSystem
			}
			out = append(out, responses.ResponseInputItemParamOfMessage(v.Text, role))
		case relay.ToolOutputItem:
			out = append(out, responses.ResponseInputItemParamOfFunctionCallOutput(v.CallID, v.Output))
		}
	}
	return out
}

// BuildTools converts relay tools to Responses API function tools.
// Exported for testing.
func BuildTools(tools []relay.Tool) []responses.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := map[string]any{}
		if len(t.Parameters) > 0 {
			// Parameters is produced by the bridge or hand-written schemas;
			// both are valid JSON objects.
			_ = json.Unmarshal(t.Parameters, &schema)
		}
		p := responses.ToolParamOfFunction(t.Name, schema, false)
		if t.Description != "" && p.OfFunction != nil {
			p.OfFunction.Description = openai.String(t.Description)
		}
		out = append(out, p)
	}
	return out
}

// ConvertResponse converts a Responses API response to the domain shape,
// keeping text and tool-call items interleaved in output order. A
// function_call item missing its call_id falls back to the item ID.
// Exported for testing.
func ConvertResponse(resp responses.Response) relay.Response {
	out := relay.Response{Handle: relay.Handle(resp.ID)}
	for _, item := range resp.Output {
		switch item.Type {
		case "function_call":
			callID := item.CallID
			if callID == "" {
				callID = item.ID
			}
			if callID == "" || item.Name == "" {
				continue
			}
			out.Items = append(out.Items, relay.ToolCallItem{
				Call: relay.ToolCall{
					ID:        callID,
					Name:      item.Name,
					Arguments: json.RawMessage(item.Arguments),
				},
			})
		case "message":
			for _, part := range item.Content {
				if part.Type == "output_text" && part.Text != "" {
					out.Items = append(out.Items, relay.TextItem{Text: part.Text})
				}
			}
		}
	}
	return out
}
