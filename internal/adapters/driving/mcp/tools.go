package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the natural-language question to answer from site content"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum search results per content lookup (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Model     string           `json:"model"`
	Citations []CitationOutput `json:"citations,omitempty"`
}

// CitationOutput is one cited post or page.
type CitationOutput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to match against site content"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the WordPress site's content, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the WordPress site's posts and pages",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation. The event stream is consumed
// internally; MCP clients get the final answer in one piece.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	query := domain.NewQuery(input.Question, input.MaxResults, 0)

	var (
		text  strings.Builder
		final *domain.Answer
	)
	err := s.ports.Ask.Ask(ctx, query, func(ev domain.StreamEvent) {
		switch ev.Kind {
		case domain.EventFragment:
			text.WriteString(ev.Fragment)
		case domain.EventFinal:
			final = ev.Final
		}
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{Answer: answerText(final, text.String())}
	if final != nil {
		output.Model = final.Model
		for _, c := range final.Citations {
			output.Citations = append(output.Citations, CitationOutput{
				Title: c.Title,
				URL:   c.URL,
			})
		}
	}
	return nil, output, nil
}

// answerText prefers the terminal answer text, falling back to the
// accumulated fragments when the terminal payload carries none.
func answerText(final *domain.Answer, streamed string) string {
	if final != nil && final.Text != "" {
		return final.Text
	}
	return streamed
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultMaxResults
	}

	records, err := s.ports.Search.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(records)),
		Count:   len(records),
	}
	for i, r := range records {
		output.Results[i] = SearchResultOutput{
			ID:      r.ID,
			Title:   r.Title,
			URL:     r.URL,
			Excerpt: r.Excerpt,
			Author:  r.Author,
			Date:    r.Date,
		}
	}

	return nil, output, nil
}
