package service

import (
	"context"

	"github.com/hecopilot/copilot-backend/internal/llm"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

type fakeSearcher struct {
	hits      []domain.SearchHit
	err       error
	calls     int
	lastLimit int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeCompleter struct {
	readyErr error
	answer   string
	err      error
	calls    int
	last     llm.ChatRequest
}

func (f *fakeCompleter) Ready() error { return f.readyErr }

func (f *fakeCompleter) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	f.calls++
	f.last = req
	return f.answer, f.err
}

func hit(title, role, snippet string) domain.SearchHit {
	return domain.SearchHit{Title: title, Role: role, Snippet: snippet}
}

func nHits(n int) []domain.SearchHit {
	out := make([]domain.SearchHit, n)
	for i := range out {
		out[i] = hit("", "policy", "text")
	}
	return out
}
