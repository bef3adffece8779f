package driving

import (
	"context"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// SearchService provides direct content search without the AI loop. Used by
// the search command and the MCP search tool. limit is clamped to the
// configured maximum before reaching the content source.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]domain.ContentRecord, error)
}
