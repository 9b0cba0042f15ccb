package repository

import (
	"context"

	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

// Searcher is the ranked-search capability. Implementations return hits in
// relevance order and never more than limit.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}
