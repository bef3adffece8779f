package services

import (
	"context"
	"strings"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driving"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides direct WordPress search without the AI loop. It is
// the thin path behind the search command and the MCP search tool: clamp the
// bound, pass the query through, hand back whatever the source returned.
type SearchService struct {
	source          driven.ContentSource
	maxResultsLimit int
}

// NewSearchService creates a direct search service. maxResultsLimit caps
// every request; non-positive falls back to the domain default.
func NewSearchService(source driven.ContentSource, maxResultsLimit int) *SearchService {
	if maxResultsLimit <= 0 {
		maxResultsLimit = domain.DefaultMaxResults
	}
	return &SearchService{source: source, maxResultsLimit: maxResultsLimit}
}

// Search returns at most limit records for query, in upstream order.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.ContentRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ContentRecord{}, nil
	}

	limit = domain.ClampLimit(limit, s.maxResultsLimit)
	logger.Debug("Direct search: %q (limit %d)", query, limit)
	return s.source.Search(ctx, query, limit)
}
