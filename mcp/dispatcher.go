package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/bridge"
)

// ServerConfig describes how to launch one remote tool server.
type ServerConfig struct {
	Label   string
	Command string
	Args    []string
}

// Dispatcher routes (server, tool, arguments) invocations to remote tool
// servers. Sessions are connection-scoped: one lazily dialled Client per
// server label, reused across calls. Per-server ordering is preserved by
// the Client's request serialization.
type Dispatcher struct {
	servers map[string]ServerConfig
	log     logrus.FieldLogger

	// dial is swappable for tests.
	dial func(ctx context.Context, cfg ServerConfig) (*Client, error)

	mu      sync.Mutex
	clients map[string]*Client
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(log logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) { d.log = log }
}

// NewDispatcher creates a Dispatcher for the given servers.
func NewDispatcher(servers []ServerConfig, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		servers: make(map[string]ServerConfig, len(servers)),
		clients: make(map[string]*Client),
		log:     logrus.StandardLogger(),
	}
	for _, s := range servers {
		d.servers[s.Label] = s
	}
	d.dial = func(ctx context.Context, cfg ServerConfig) (*Client, error) {
		return Dial(ctx, cfg.Label, cfg.Command, cfg.Args, WithClientLogger(d.log))
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// client returns the live session for label, dialling on first use.
func (d *Dispatcher) client(ctx context.Context, label string) (*Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.clients[label]; ok {
		return c, nil
	}
	cfg, ok := d.servers[label]
	if !ok {
		return nil, fmt.Errorf("no server configured for label %q", label)
	}
	c, err := d.dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.clients[label] = c
	return c, nil
}

// Call invokes tool on the named server and returns the flattened result.
// Session establishment and remote failures surface as *relay.RemoteToolError.
func (d *Dispatcher) Call(ctx context.Context, serverLabel, tool string, arguments map[string]any) (string, error) {
	c, err := d.client(ctx, serverLabel)
	if err != nil {
		return "", &relay.RemoteToolError{Server: serverLabel, Err: err}
	}

	out, err := c.CallTool(ctx, tool, arguments)
	if err != nil {
		// Drop the session so the next call redials a fresh one.
		d.evict(serverLabel)
		return "", &relay.RemoteToolError{Server: serverLabel, Tool: tool, Err: err}
	}
	return out, nil
}

// ListTools lists tool descriptors from the named server, dialling if
// needed. Used at startup to feed the bridge.
func (d *Dispatcher) ListTools(ctx context.Context, serverLabel string) ([]bridge.Descriptor, error) {
	c, err := d.client(ctx, serverLabel)
	if err != nil {
		return nil, &relay.RemoteToolError{Server: serverLabel, Err: err}
	}
	descriptors, err := c.ListTools(ctx)
	if err != nil {
		return nil, &relay.RemoteToolError{Server: serverLabel, Err: err}
	}
	return descriptors, nil
}

func (d *Dispatcher) evict(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[label]; ok {
		_ = c.Close()
		delete(d.clients, label)
	}
}

// Close terminates all live sessions.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for label, c := range d.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(d.clients, label)
	}
	return first
}
