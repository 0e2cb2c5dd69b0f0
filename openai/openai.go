// Package openai implements [relay.Provider] for the OpenAI Responses API.
//
// It wraps the github.com/openai/openai-go SDK, translating between relay's
// domain types and the Responses API types. Conversation continuity uses
// previous_response_id: the first turn is stored server-side and every later
// turn threads the prior response ID forward, so history is never replayed.
package openai

const defaultModel = "gpt-5"
