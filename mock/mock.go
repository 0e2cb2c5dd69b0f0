// Package mock provides test doubles for relay interfaces using function fields.
package mock

import (
	"context"

	"github.com/mkrawiec/relay"
)

// Interface compliance checks.
var (
	_ relay.Provider = (*Provider)(nil)
	_ relay.Handler  = (*Handler)(nil)
)

// Provider is a test double for relay.Provider.
// Set RespondFn before calling Respond.
type Provider struct {
	RespondFn func(ctx context.Context, req relay.Request) (relay.Response, error)
}

// Respond delegates to RespondFn.
func (p *Provider) Respond(ctx context.Context, req relay.Request) (relay.Response, error) {
	return p.RespondFn(ctx, req)
}

// Handler is a test double for relay.Handler.
// Set HandleFn before calling Handle.
type Handler struct {
	HandleFn func(ctx context.Context, call relay.ToolCall) (string, error)
}

// Handle delegates to HandleFn.
func (h *Handler) Handle(ctx context.Context, call relay.ToolCall) (string, error) {
	return h.HandleFn(ctx, call)
}
