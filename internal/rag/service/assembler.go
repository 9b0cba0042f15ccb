package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

const (
	// ContextTopN caps how many hits make it into a context block.
	ContextTopN = 6
	// contextFetchLimit is what the assembler asks the gateway for.
	contextFetchLimit = 8

	SectionSeparator = "\n\n---\n\n"
)

type ContextAssembler struct {
	gateway *SearchGateway
}

func NewContextAssembler(gateway *SearchGateway) *ContextAssembler {
	return &ContextAssembler{gateway: gateway}
}

func (a *ContextAssembler) Build(ctx context.Context, query string) (*domain.ContextBlock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'q'")
	}

	res, err := a.gateway.Search(ctx, query, contextFetchLimit)
	if err != nil {
		return nil, apperr.Propagate("search gateway", err)
	}

	text, sources := RenderContext(res.Results)
	return &domain.ContextBlock{
		Query:   query,
		Text:    text,
		Sources: sources,
	}, nil
}

// RenderContext renders the first ContextTopN hits, in the order given, as
// prompt sections and returns the matching citation list.
func RenderContext(hits []domain.SearchHit) (string, []domain.SourceRef) {
	if len(hits) > ContextTopN {
		hits = hits[:ContextTopN]
	}

	sections := make([]string, 0, len(hits))
	sources := make([]domain.SourceRef, 0, len(hits))
	for i, h := range hits {
		label := strings.TrimSpace(h.Title)
		if label == "" {
			label = fmt.Sprintf("Source %d", i+1)
		}

		header := "### " + label
		if h.Role != "" {
			header += " [" + h.Role + "]"
		}
		sections = append(sections, header+"\n"+h.Snippet)

		sources = append(sources, domain.SourceRef{
			Title:    label,
			Category: h.Role,
			URL:      h.URL,
		})
	}

	return strings.Join(sections, SectionSeparator), sources
}
