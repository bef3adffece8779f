// Package openrouter provides the model backend adapter for the OpenRouter
// chat-completions API.
package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// Ensure Backend implements the interface.
var _ driven.ChatBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultTimeout = 120 * time.Second

	// streamBufferSize bounds a single SSE line.
	streamBufferSize = 1024 * 1024
)

// Attribution headers OpenRouter uses for app rankings.
const (
	refererHeader = "https://github.com/quillstack-labs/wpask-cli"
	titleHeader   = "wpask"
)

// Config holds configuration for the OpenRouter backend.
type Config struct {
	// APIKey is the OpenRouter API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://openrouter.ai/api/v1).
	BaseURL string

	// Timeout bounds one whole turn, open to stop signal (default 120s).
	Timeout time.Duration
}

// Backend opens streaming chat-completion turns against OpenRouter. The
// model identifier is chosen per turn by the session's registry cursor;
// everything connection-level is fixed here.
type Backend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewBackend creates an OpenRouter backend.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Backend{
		// No client-level timeout: it would cut streaming reads. The turn
		// deadline is enforced per request in OpenTurn.
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}, nil
}

// Wire formats (OpenAI-compatible chat completions).

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type completionRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
	Stream     bool          `json:"stream"`
}

// streamChunk is one decoded SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// OpenTurn starts one streaming turn. The returned stream must be closed.
func (b *Backend) OpenTurn(ctx context.Context, req driven.TurnRequest) (driven.TurnStream, error) {
	messages := make([]wireMessage, len(req.Messages))
	for i, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages[i] = wm
	}

	body := completionRequest{
		Model:      req.Model,
		Messages:   messages,
		ToolChoice: "auto",
		Stream:     true,
		Tools: []wireTool{{
			Type: "function",
			Function: wireToolDef{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": req.Tool.Parameters,
					"required":   req.Tool.Required,
				},
			},
		}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewQueryError(domain.KindBackendProtocolError, "marshal request failed", err)
	}

	turnCtx, cancel := context.WithTimeout(ctx, b.timeout)

	httpReq, err := http.NewRequestWithContext(turnCtx, http.MethodPost,
		b.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		cancel()
		return nil, domain.NewQueryError(domain.KindBackendProtocolError, "building request failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("HTTP-Referer", refererHeader)
	httpReq.Header.Set("X-Title", titleHeader)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, classifyTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()
		return nil, classifyStatus(resp)
	}

	logger.Debug("OpenRouter turn open on %s", req.Model)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), streamBufferSize)

	return &turnStream{
		body:    resp.Body,
		scanner: scanner,
		cancel:  cancel,
		ctx:     ctx,
	}, nil
}

// classifyTransport maps a transport-level failure to a backend kind.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return domain.NewQueryError(domain.KindCancelled, "turn cancelled", err)
	}
	return domain.NewQueryError(domain.KindBackendUnavailable, "model backend unreachable", err)
}

// classifyStatus maps a non-200 response to a backend kind and drains the
// body for the provider's message.
func classifyStatus(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(raw))

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Errorf(domain.KindBackendAuthError,
			"model backend rejected the API key (status %d): %s", resp.StatusCode, detail)
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests:
		return domain.Errorf(domain.KindBackendQuotaExceeded,
			"model backend quota exceeded (status %d): %s", resp.StatusCode, detail)
	case resp.StatusCode >= 500:
		return domain.Errorf(domain.KindBackendUnavailable,
			"model backend error (status %d): %s", resp.StatusCode, detail)
	default:
		return domain.Errorf(domain.KindBackendProtocolError,
			"model backend returned status %d: %s", resp.StatusCode, detail)
	}
}

// partialCall accumulates one tool call's streamed fragments.
type partialCall struct {
	index int
	id    string
	name  string
	args  strings.Builder
}

// turnStream parses the SSE body into TurnChunks. Text deltas pass through
// as they arrive; tool-call argument fragments are assembled and emitted as
// complete calls once the backend signals the end of the turn.
type turnStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	cancel  context.CancelFunc
	ctx     context.Context

	partials map[int]*partialCall
	flush    []driven.TurnChunk
	finished bool
}

func (s *turnStream) Recv() (driven.TurnChunk, error) {
	if len(s.flush) > 0 {
		chunk := s.flush[0]
		s.flush = s.flush[1:]
		return chunk, nil
	}
	if s.finished {
		return driven.TurnChunk{Kind: driven.ChunkDone}, nil
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return s.finish()
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return driven.TurnChunk{}, domain.NewQueryError(domain.KindBackendProtocolError,
				"malformed stream chunk", err)
		}
		if chunk.Error != nil {
			return driven.TurnChunk{}, domain.Errorf(domain.KindBackendProtocolError,
				"model backend stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		for _, tc := range choice.Delta.ToolCalls {
			s.accumulate(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
		}
		if choice.Delta.Content != "" {
			return driven.TurnChunk{Kind: driven.ChunkText, Text: choice.Delta.Content}, nil
		}
		if choice.FinishReason != "" {
			return s.finish()
		}
	}

	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) || s.ctx.Err() != nil {
			return driven.TurnChunk{}, domain.NewQueryError(domain.KindCancelled, "turn cancelled", err)
		}
		return driven.TurnChunk{}, domain.NewQueryError(domain.KindBackendUnavailable,
			"stream interrupted", err)
	}
	return driven.TurnChunk{}, domain.Errorf(domain.KindBackendProtocolError,
		"stream ended without a stop signal")
}

// accumulate folds one tool-call delta into its partial, keyed by index.
func (s *turnStream) accumulate(index int, id, name, args string) {
	if s.partials == nil {
		s.partials = make(map[int]*partialCall)
	}
	p, ok := s.partials[index]
	if !ok {
		p = &partialCall{index: index}
		s.partials[index] = p
	}
	if id != "" {
		p.id = id
	}
	if name != "" {
		p.name = name
	}
	p.args.WriteString(args)
}

// finish flushes assembled tool calls in index order, then the stop signal.
func (s *turnStream) finish() (driven.TurnChunk, error) {
	s.finished = true

	ordered := make([]*partialCall, 0, len(s.partials))
	for _, p := range s.partials {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	for _, p := range ordered {
		s.flush = append(s.flush, driven.TurnChunk{
			Kind: driven.ChunkToolCall,
			ToolCall: domain.ToolCall{
				ID:        p.id,
				Name:      p.name,
				Arguments: p.args.String(),
			},
		})
	}
	s.partials = nil
	s.flush = append(s.flush, driven.TurnChunk{Kind: driven.ChunkDone})

	chunk := s.flush[0]
	s.flush = s.flush[1:]
	return chunk, nil
}

// Close releases the connection. Safe after an error.
func (s *turnStream) Close() error {
	s.cancel()
	return s.body.Close()
}

// Ping validates the provider is reachable with the configured key by
// hitting the models listing, which runs no inference.
func (b *Backend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/models", http.NoBody)
	if err != nil {
		return domain.NewQueryError(domain.KindBackendProtocolError, "building request failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}
	return nil
}
