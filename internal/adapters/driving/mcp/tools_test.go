package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

func newTestServer(t *testing.T, ask *mockAskService, search *mockSearchService) *Server {
	t.Helper()
	if ask == nil {
		ask = &mockAskService{}
	}
	if search == nil {
		search = &mockSearchService{}
	}
	server, err := NewServer(&Ports{Ask: ask, Search: search})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns final answer with citations", func(t *testing.T) {
		ask := &mockAskService{
			events: []domain.StreamEvent{
				{Kind: domain.EventFragment, Fragment: "The site "},
				{Kind: domain.EventFragment, Fragment: "launched in 2019."},
				{Kind: domain.EventFinal, Final: &domain.Answer{
					Text:  "The site launched in 2019.",
					Model: "z-ai/glm-4.5-air:free",
					Citations: []domain.ContentRecord{
						{ID: "41", Title: "About Us", URL: "https://blog.example.com/about"},
					},
				}},
			},
		}

		server := newTestServer(t, ask, nil)

		input := AskInput{Question: "when did the site launch?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "The site launched in 2019.", output.Answer)
		assert.Equal(t, "z-ai/glm-4.5-air:free", output.Model)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "About Us", output.Citations[0].Title)
		assert.Equal(t, "https://blog.example.com/about", output.Citations[0].URL)
	})

	t.Run("falls back to streamed fragments", func(t *testing.T) {
		ask := &mockAskService{
			events: []domain.StreamEvent{
				{Kind: domain.EventFragment, Fragment: "Streamed "},
				{Kind: domain.EventFragment, Fragment: "answer."},
				{Kind: domain.EventFinal, Final: &domain.Answer{Model: "qwen/qwen3-coder:free"}},
			},
		}

		server := newTestServer(t, ask, nil)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.Equal(t, "Streamed answer.", output.Answer)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		ask := &mockAskService{
			events: []domain.StreamEvent{
				{Kind: domain.EventFailed, ErrKind: domain.KindBackendUnavailable, ErrMessage: "all backends exhausted"},
			},
			err: domain.Errorf(domain.KindBackendUnavailable, "all backends exhausted"),
		}

		server := newTestServer(t, ask, nil)

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.Error(t, err)
		assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		search := &mockSearchService{
			records: []domain.ContentRecord{
				{
					ID:      "7",
					Title:   "Deploying Go services",
					URL:     "https://blog.example.com/deploying-go",
					Excerpt: "A short guide.",
					Author:  "Dana",
					Date:    "2024-03-01T09:00:00",
				},
			},
		}

		server := newTestServer(t, nil, search)

		input := SearchInput{Query: "go services", Limit: 10}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "7", output.Results[0].ID)
		assert.Equal(t, "Deploying Go services", output.Results[0].Title)
		assert.Equal(t, "https://blog.example.com/deploying-go", output.Results[0].URL)
		assert.Equal(t, "Dana", output.Results[0].Author)
		assert.Equal(t, 10, search.gotLimit)
	})

	t.Run("default limit applies", func(t *testing.T) {
		search := &mockSearchService{}
		server := newTestServer(t, nil, search)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, domain.DefaultMaxResults, search.gotLimit)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		search := &mockSearchService{
			err: domain.Errorf(domain.KindSourceUnavailable, "connection refused"),
		}

		server := newTestServer(t, nil, search)

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}
