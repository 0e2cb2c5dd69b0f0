package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/mock"
)

func TestProvider_Respond(t *testing.T) {
	t.Parallel()
	t.Run("delegates to RespondFn", func(t *testing.T) {
		t.Parallel()
		want := relay.Response{
			Handle: relay.Handle("resp_1"),
			Items:  []relay.OutputItem{relay.TextItem{Text: "hello"}},
		}
		p := mock.Provider{
			RespondFn: func(ctx context.Context, req relay.Request) (relay.Response, error) {
				return want, nil
			},
		}
		got, err := p.Respond(context.Background(), relay.Request{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("api error")
		p := mock.Provider{
			RespondFn: func(ctx context.Context, req relay.Request) (relay.Response, error) {
				return relay.Response{}, wantErr
			},
		}
		_, err := p.Respond(context.Background(), relay.Request{})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("panics when RespondFn not set", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{}
		assert.Panics(t, func() {
			_, _ = p.Respond(context.Background(), relay.Request{})
		})
	})
}

func TestHandler_Handle(t *testing.T) {
	t.Parallel()
	t.Run("delegates to HandleFn", func(t *testing.T) {
		t.Parallel()
		h := mock.Handler{
			HandleFn: func(ctx context.Context, call relay.ToolCall) (string, error) {
				assert.Equal(t, "bash", call.Name)
				assert.JSONEq(t, `{"command":"ls"}`, string(call.Arguments))
				return "result", nil
			},
		}
		got, err := h.Handle(context.Background(), relay.ToolCall{
			ID:        "call_1",
			Name:      "bash",
			Arguments: []byte(`{"command":"ls"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "result", got)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("handler error")
		h := mock.Handler{
			HandleFn: func(ctx context.Context, call relay.ToolCall) (string, error) {
				return "", wantErr
			},
		}
		_, err := h.Handle(context.Background(), relay.ToolCall{Name: "bash"})
		assert.ErrorIs(t, err, wantErr)
	})
}
