package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
)

func sseHandler(t *testing.T, lines []string, capture *completionRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, capture))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}
}

func testBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewBackend(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return b
}

func turnRequest() driven.TurnRequest {
	return driven.TurnRequest{
		Model: "z-ai/glm-4.5-air:free",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "be helpful"},
			{Role: domain.RoleUser, Content: "Think 25 requirements"},
		},
		Tool: driven.ToolSchema{
			Name:        "search_wordpress",
			Description: "search",
			Parameters:  map[string]any{"query": map[string]any{"type": "string"}},
			Required:    []string{"query"},
		},
	}
}

func drain(t *testing.T, stream driven.TurnStream) []driven.TurnChunk {
	t.Helper()
	var chunks []driven.TurnChunk
	for {
		chunk, err := stream.Recv()
		require.NoError(t, err)
		chunks = append(chunks, chunk)
		if chunk.Kind == driven.ChunkDone {
			return chunks
		}
	}
}

func TestNewBackend_RequiresAPIKey(t *testing.T) {
	_, err := NewBackend(Config{})
	assert.Error(t, err)
}

func TestOpenTurn_TextStream(t *testing.T) {
	var captured completionRequest
	b := testBackend(t, sseHandler(t, []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	}, &captured))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	chunks := drain(t, stream)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hel", chunks[0].Text)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, driven.ChunkDone, chunks[2].Kind)

	// Wire request carries the model, transcript, tool schema and stream flag.
	assert.Equal(t, "z-ai/glm-4.5-air:free", captured.Model)
	assert.True(t, captured.Stream)
	assert.Equal(t, "auto", captured.ToolChoice)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "search_wordpress", captured.Tools[0].Function.Name)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
}

func TestOpenTurn_AssemblesStreamedToolCall(t *testing.T) {
	b := testBackend(t, sseHandler(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_9","function":{"name":"search_wordpress","arguments":"{\"query\":"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Think 25\"}"}}]}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`data: [DONE]`,
	}, nil))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	chunks := drain(t, stream)
	require.Len(t, chunks, 2)
	assert.Equal(t, driven.ChunkToolCall, chunks[0].Kind)
	assert.Equal(t, "call_9", chunks[0].ToolCall.ID)
	assert.Equal(t, "search_wordpress", chunks[0].ToolCall.Name)
	assert.JSONEq(t, `{"query":"Think 25"}`, chunks[0].ToolCall.Arguments)
	assert.Equal(t, driven.ChunkDone, chunks[1].Kind)
}

func TestOpenTurn_TextThenToolCall(t *testing.T) {
	b := testBackend(t, sseHandler(t, []string{
		`data: {"choices":[{"delta":{"content":"Let me search."}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","function":{"name":"search_wordpress","arguments":"{}"}}]}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`data: [DONE]`,
	}, nil))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	chunks := drain(t, stream)
	require.Len(t, chunks, 3)
	assert.Equal(t, driven.ChunkText, chunks[0].Kind)
	assert.Equal(t, driven.ChunkToolCall, chunks[1].Kind)
	assert.Equal(t, driven.ChunkDone, chunks[2].Kind)
}

func TestOpenTurn_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorKind
	}{
		{http.StatusUnauthorized, domain.KindBackendAuthError},
		{http.StatusForbidden, domain.KindBackendAuthError},
		{http.StatusPaymentRequired, domain.KindBackendQuotaExceeded},
		{http.StatusTooManyRequests, domain.KindBackendQuotaExceeded},
		{http.StatusBadGateway, domain.KindBackendUnavailable},
		{http.StatusBadRequest, domain.KindBackendProtocolError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			b := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope"}}`)
			})

			_, err := b.OpenTurn(context.Background(), turnRequest())
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
			assert.Contains(t, domain.MessageOf(err), "nope")
		})
	}
}

func TestOpenTurn_MalformedChunk(t *testing.T) {
	b := testBackend(t, sseHandler(t, []string{`data: {not json`}, nil))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendProtocolError, domain.KindOf(err))
}

func TestOpenTurn_StreamErrorObject(t *testing.T) {
	b := testBackend(t, sseHandler(t, []string{
		`data: {"error":{"message":"provider exploded"}}`,
	}, nil))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendProtocolError, domain.KindOf(err))
	assert.Contains(t, domain.MessageOf(err), "provider exploded")
}

func TestOpenTurn_TruncatedStreamIsProtocolError(t *testing.T) {
	b := testBackend(t, sseHandler(t, []string{
		`data: {"choices":[{"delta":{"content":"par"}}]}`,
		// Connection ends without finish_reason or [DONE].
	}, nil))

	stream, err := b.OpenTurn(context.Background(), turnRequest())
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "par", chunk.Text)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendProtocolError, domain.KindOf(err))
}

func TestOpenTurn_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := testBackend(t, sseHandler(t, []string{`data: [DONE]`}, nil))

	_, err := b.OpenTurn(ctx, turnRequest())
	require.Error(t, err)
	assert.Equal(t, domain.KindCancelled, domain.KindOf(err))
}

func TestPing(t *testing.T) {
	b := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[]}`)
	})

	assert.NoError(t, b.Ping(context.Background()))
}

func TestPing_AuthFailure(t *testing.T) {
	b := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := b.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindBackendAuthError, domain.KindOf(err))
}

func TestNewBackend_ConfiguredTimeout(t *testing.T) {
	b, err := NewBackend(Config{APIKey: "sk-test", Timeout: 45 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, b.timeout)

	// Zero falls back to the default turn bound.
	b, err = NewBackend(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, b.timeout)
}
