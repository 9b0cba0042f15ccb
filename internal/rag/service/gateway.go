package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
	"github.com/hecopilot/copilot-backend/internal/rag/repository"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// ParseLimit turns a raw limit parameter into a value in [1, MaxSearchLimit].
// Integral numbers, including ones written as 7.0 or 1e3 and ones too large
// for an int, are clamped. Anything else falls back to the default.
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSearchLimit
	}
	n, err := strconv.Atoi(raw)
	if err == nil {
		return ClampLimit(n)
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return 1
		}
		return MaxSearchLimit
	}

	f, err := strconv.ParseFloat(raw, 64)
	switch {
	case err != nil && !errors.Is(err, strconv.ErrRange):
		return DefaultSearchLimit
	case err == nil && math.IsInf(f, 0), math.IsNaN(f), f != math.Trunc(f):
		return DefaultSearchLimit
	case f < 1:
		return 1
	case f > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return int(f)
	}
}

func ClampLimit(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return n
	}
}

// SearchGateway wraps the ranked search capability and normalizes its rows.
type SearchGateway struct {
	searcher repository.Searcher
}

func NewSearchGateway(searcher repository.Searcher) *SearchGateway {
	return &SearchGateway{searcher: searcher}
}

func (g *SearchGateway) Search(ctx context.Context, query string, limit int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'q'")
	}
	limit = ClampLimit(limit)

	hits, err := g.searcher.Search(ctx, query, limit)
	if err != nil {
		logging.New(ctx).LogError("search_gateway", err)
		return nil, apperr.Propagate("search failed", err)
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	return &domain.SearchResult{
		Query:   query,
		Count:   len(hits),
		Results: hits,
	}, nil
}
