package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	osexec "os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mkrawiec/relay/bridge"
)

// maxResponseLines bounds how many non-JSON lines the reader skips before
// giving up on a response.
const maxResponseLines = 100

// rpcRequest is a JSON-RPC 2.0 request or notification (ID omitted).
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// toolCallResult is the wire shape of a tools/call result.
type toolCallResult struct {
	Content []ContentPart `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Client is one session with a remote tool server. Requests are serialized
// by a mutex, which preserves per-server call ordering. The transport is
// injected, so tests can drive a Client over in-memory pipes; Dial wires it
// to a subprocess.
type Client struct {
	label  string
	reader *bufio.Reader
	writer *bufio.Writer
	log    logrus.FieldLogger

	mu     sync.Mutex
	nextID int

	closers []io.Closer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger. Default discards nothing but logs at
// debug level only.
func WithClientLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client over an existing transport. The caller owns the
// transport's lifetime unless closers are registered via Dial.
func NewClient(label string, r io.Reader, w io.Writer, opts ...ClientOption) *Client {
	c := &Client{
		label:  label,
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial starts the server subprocess, performs the capability handshake, and
// returns a ready Client. The subprocess's stderr is drained and logged so
// a chatty server cannot block.
func Dial(ctx context.Context, label, command string, args []string, opts ...ClientOption) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := osexec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}

	c := NewClient(label, stdout, stdin, opts...)
	c.closers = append(c.closers, stdin, processCloser{cmd})

	go c.drainStderr(stderr)

	if err := c.Initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// processCloser kills the server process on Close.
type processCloser struct {
	cmd *osexec.Cmd
}

func (p processCloser) Close() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	_ = p.cmd.Wait()
	return err
}

func (c *Client) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c.log.WithField("server", c.label).Debug(scanner.Text())
	}
}

// Initialize performs the protocol handshake and sends the initialized
// notification.
func (c *Client) Initialize(ctx context.Context) error {
	resp, err := c.send(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"roots": map[string]any{"listChanged": true},
		},
		"clientInfo": map[string]any{
			"name":    clientName,
			"version": clientVersion,
		},
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize: %s", resp.Error.Message)
	}
	if err := c.notify("notifications/initialized"); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	c.log.WithField("server", c.label).Debug("session initialized")
	return nil
}

// ListTools retrieves the server's tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]bridge.Descriptor, error) {
	resp, err := c.send(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tools/list: %s", resp.Error.Message)
	}

	var result struct {
		Tools []bridge.Descriptor `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes the named tool and returns its flattened result. A
// tool-reported error surfaces as a non-nil error carrying the flattened
// payload.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	c.log.WithFields(logrus.Fields{"server": c.label, "tool": name}).Debug("calling remote tool")

	resp, err := c.send(ctx, "tools/call", map[string]any{
		"name":      name,
		"arguments": arguments,
	})
	if err != nil {
		return "", fmt.Errorf("tools/call: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("tools/call: %s", resp.Error.Message)
	}

	var result toolCallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("tools/call result: %w", err)
	}

	out := Flatten(result.Content)
	if result.IsError {
		return "", fmt.Errorf("tool failed: %s", out)
	}
	return out, nil
}

// send writes one request and reads its response, skipping any non-JSON
// lines a misbehaving server mixes into stdout.
func (c *Client) send(ctx context.Context, method string, params any) (*rpcResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.nextID++
	req := rpcRequest{JSONRPC: "2.0", ID: c.nextID, Method: method, Params: params}
	if err := c.write(req); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxResponseLines; attempt++ {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var frame struct {
			rpcResponse
			Method string `json:"method"`
		}
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			// Log noise from the server, not a protocol frame.
			c.log.WithField("server", c.label).Debugf("skipping non-JSON line: %s", line)
			continue
		}
		if frame.Method != "" {
			// Server-initiated notification or request, not our response.
			c.log.WithFields(logrus.Fields{"server": c.label, "method": frame.Method}).
				Debug("skipping server-initiated frame")
			continue
		}
		if frame.ID != req.ID {
			// Stale or mismatched frame.
			continue
		}
		return &frame.rpcResponse, nil
	}
	return nil, fmt.Errorf("no JSON-RPC response after %d lines", maxResponseLines)
}

// notify writes a notification (no response expected). Callers must hold no
// expectation of ordering beyond the shared writer flush.
func (c *Client) notify(method string) error {
	return c.write(rpcRequest{JSONRPC: "2.0", Method: method})
}

func (c *Client) write(req rpcRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close releases the transport and terminates the server subprocess when
// the client owns one.
func (c *Client) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
