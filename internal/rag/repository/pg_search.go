package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hecopilot/copilot-backend/internal/metrics"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var rxFuncName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PGSearcher invokes the database's ranked search procedure. Ranking is the
// procedure's business; rows are returned in the order it produced them.
type PGSearcher struct {
	db  Querier
	sql string
}

func NewPGSearcher(db Querier, function string) (*PGSearcher, error) {
	if !rxFuncName.MatchString(function) {
		return nil, fmt.Errorf("invalid search function name %q", function)
	}
	// url is optional in the procedure's row type; to_jsonb reads it when present.
	q := `
select
  coalesce(source::text, ''),
  coalesce(id::text, ''),
  coalesce(title::text, ''),
  coalesce(snippet::text, ''),
  coalesce(score, 0)::float8,
  coalesce(role::text, ''),
  year::int,
  coalesce(doc_type::text, ''),
  coalesce(tags, '{}')::text[],
  coalesce(to_jsonb(r)->>'url', '')
from ` + function + `($1, $2) as r`
	return &PGSearcher{db: db, sql: q}, nil
}

func (s *PGSearcher) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	start := time.Now()
	hits, err := s.search(ctx, query, limit)
	metrics.RecordUpstreamCall("search_procedure", time.Since(start), err)
	return hits, err
}

func (s *PGSearcher) search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	rows, err := s.db.Query(ctx, s.sql, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SearchHit, 0, limit)
	for rows.Next() {
		var h domain.SearchHit
		if err := rows.Scan(
			&h.Source,
			&h.ID,
			&h.Title,
			&h.Snippet,
			&h.Score,
			&h.Role,
			&h.Year,
			&h.DocType,
			&h.Tags,
			&h.URL,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
