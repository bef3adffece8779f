package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
)

// SearchToolName is the tool identifier offered to the backend.
const SearchToolName = "search_wordpress"

// excerptLimit bounds how much of each record's excerpt is handed to the
// model to keep tool results from dominating the context window.
const excerptLimit = 200

// systemPrompt instructs the model on how to use the search capability.
// Relevance judgment is deliberately the model's job: the tool returns
// whatever the site has and the model decides what matters.
const systemPrompt = `You are a helpful AI assistant that searches WordPress content intelligently.

When a user asks a question:
1. Use the search_wordpress tool to retrieve content
2. Analyze ALL returned content for relevance, even if it doesn't contain exact keywords
3. Look for semantic relationships, related concepts, and contextual relevance
4. Consider synonyms, related terms, and broader topics
5. If content is tangentially related or could be helpful, include it
6. Always provide accurate citations and source links

Be flexible in your search - don't require exact keyword matches. Think about what the user is really looking for.`

// searchToolSchema is the single tool schema sent with every turn.
func searchToolSchema() driven.ToolSchema {
	return driven.ToolSchema{
		Name: SearchToolName,
		Description: "Search WordPress content intelligently. Returns all available content " +
			"for AI analysis - the AI will determine relevance based on semantic " +
			"understanding, not just keyword matching.",
		Parameters: map[string]any{
			"query": map[string]any{
				"type": "string",
				"description": "The search query. Note: This tool returns all content - " +
					"the AI analyzes relevance, not the tool.",
			},
			"maxResults": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results to return",
				"default":     domain.DefaultMaxResults,
			},
		},
		Required: []string{"query"},
	}
}

// toolArgs is the argument payload of a search_wordpress invocation.
type toolArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

// parseToolArgs decodes the backend's argument JSON. A missing query falls
// back to the user's original text; a missing bound falls back to the
// query's own bound. Malformed JSON is a backend protocol violation.
func parseToolArgs(raw string, q domain.Query) (toolArgs, error) {
	args := toolArgs{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return toolArgs{}, domain.NewQueryError(domain.KindBackendProtocolError,
				"malformed tool call arguments", err)
		}
	}
	if strings.TrimSpace(args.Query) == "" {
		args.Query = q.Text
	}
	if args.MaxResults <= 0 {
		args.MaxResults = q.MaxResults
	}
	return args, nil
}

// formatRecordsForModel renders search results as the tool-result text the
// model reads. Zero records is a valid result: the model is told so and
// decides what to do next.
func formatRecordsForModel(records []domain.ContentRecord) string {
	if len(records) == 0 {
		return "No content found."
	}

	var b strings.Builder
	for i, r := range records {
		excerpt := truncateExcerpt(r.Excerpt, excerptLimit)
		fmt.Fprintf(&b, "Result %d:\nTitle: %s\nExcerpt: %s\nURL: %s\nAuthor: %s\nDate: %s\n\n",
			i+1, r.Title, excerpt, r.URL, r.Author, r.Date)
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncateExcerpt cuts on a rune boundary so the model never receives a
// split multi-byte sequence.
func truncateExcerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
