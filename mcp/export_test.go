package mcp

import "context"

// SetDialForTest replaces the dispatcher's dial function, letting tests
// supply clients backed by in-memory transports.
func (d *Dispatcher) SetDialForTest(dial func(ctx context.Context, cfg ServerConfig) (*Client, error)) {
	d.dial = dial
}
