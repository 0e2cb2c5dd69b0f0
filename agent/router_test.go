package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/agent"
	"github.com/mkrawiec/relay/mock"
)

func emptySchema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	t.Run("registers valid tool", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		err := r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, &mock.Handler{})
		require.NoError(t, err)
		require.Len(t, r.Tools(), 1)
		assert.Equal(t, "bash", r.Tools()[0].Name)
	})

	t.Run("rejects invalid tool definition", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		err := r.Register(relay.Tool{Name: "not a name", Parameters: emptySchema()}, &mock.Handler{})
		assert.ErrorIs(t, err, relay.ErrValidation)
	})

	t.Run("rejects nil handler", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		err := r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, nil)
		assert.ErrorIs(t, err, relay.ErrValidation)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		require.NoError(t, r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, &mock.Handler{}))
		err := r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, &mock.Handler{})
		assert.ErrorIs(t, err, relay.ErrValidation)
	})
}

func TestRouter_Names(t *testing.T) {
	t.Parallel()
	r := agent.NewRouter()
	require.NoError(t, r.Register(relay.Tool{Name: "zeta", Parameters: emptySchema()}, &mock.Handler{}))
	require.NoError(t, r.Register(relay.Tool{Name: "alpha", Parameters: emptySchema()}, &mock.Handler{}))
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestRouter_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("routes call to handler", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		handler := &mock.Handler{
			HandleFn: func(ctx context.Context, call relay.ToolCall) (string, error) {
				assert.Equal(t, "call_1", call.ID)
				return "out", nil
			},
		}
		require.NoError(t, r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, handler))

		output, isError := r.Dispatch(context.Background(), relay.ToolCall{ID: "call_1", Name: "bash"})
		assert.False(t, isError)
		assert.Equal(t, "out", output)
	})

	t.Run("unknown tool produces observation", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		require.NoError(t, r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, &mock.Handler{}))
		require.NoError(t, r.Register(relay.Tool{Name: "ctx7__get_docs", Parameters: emptySchema()}, &mock.Handler{}))

		output, isError := r.Dispatch(context.Background(), relay.ToolCall{ID: "call_1", Name: "missing"})
		assert.True(t, isError)
		assert.Equal(t, "Unknown tool: missing. Available: bash, ctx7__get_docs", output)
	})

	t.Run("handler error becomes observation", func(t *testing.T) {
		t.Parallel()
		r := agent.NewRouter()
		handler := &mock.Handler{
			HandleFn: func(ctx context.Context, call relay.ToolCall) (string, error) {
				return "", errors.New("connection refused")
			},
		}
		require.NoError(t, r.Register(relay.Tool{Name: "bash", Parameters: emptySchema()}, handler))

		output, isError := r.Dispatch(context.Background(), relay.ToolCall{ID: "call_1", Name: "bash"})
		assert.True(t, isError)
		assert.Equal(t, "connection refused", output)
	})
}
