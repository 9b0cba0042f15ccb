package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

func newAssembler(s *fakeSearcher) *ContextAssembler {
	return NewContextAssembler(NewSearchGateway(s))
}

func TestContextAssembler_Scenario(t *testing.T) {
	s := &fakeSearcher{hits: []domain.SearchHit{
		hit("A", "policy", "<snippetA>"),
		hit("B", "policy", "<snippetB>"),
		hit("C", "guidance", "<snippetC>"),
	}}

	block, err := newAssembler(s).Build(context.Background(), "graduation rate requirements")
	require.NoError(t, err)

	want := "### A [policy]\n<snippetA>\n\n---\n\n### B [policy]\n<snippetB>\n\n---\n\n### C [guidance]\n<snippetC>"
	assert.Equal(t, want, block.Text)
	assert.Equal(t, []domain.SourceRef{
		{Title: "A", Category: "policy"},
		{Title: "B", Category: "policy"},
		{Title: "C", Category: "guidance"},
	}, block.Sources)
	assert.GreaterOrEqual(t, s.lastLimit, ContextTopN)
}

func TestContextAssembler_AtMostSixSections(t *testing.T) {
	block, err := newAssembler(&fakeSearcher{hits: nHits(8)}).Build(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, ContextTopN, strings.Count(block.Text, "### "))
	assert.Equal(t, ContextTopN-1, strings.Count(block.Text, SectionSeparator))
	assert.Len(t, block.Sources, ContextTopN)
}

func TestContextAssembler_FallbackLabels(t *testing.T) {
	text, sources := RenderContext([]domain.SearchHit{
		{Role: "policy", Snippet: "one", URL: "https://example.edu/one"},
		{Title: "Named", Role: "", Snippet: ""},
	})

	assert.Equal(t, "### Source 1 [policy]\none\n\n---\n\n### Named\n", text)
	assert.Equal(t, "Source 1", sources[0].Title)
	assert.Equal(t, "https://example.edu/one", sources[0].URL)
	assert.Equal(t, "", sources[1].URL)
}

func TestContextAssembler_Idempotent(t *testing.T) {
	s := &fakeSearcher{hits: nHits(4)}
	a := newAssembler(s)

	first, err := a.Build(context.Background(), "q")
	require.NoError(t, err)
	second, err := a.Build(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Sources, second.Sources)
}

func TestContextAssembler_NoHits(t *testing.T) {
	block, err := newAssembler(&fakeSearcher{}).Build(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "", block.Text)
	assert.Empty(t, block.Sources)
}

func TestContextAssembler_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		_, err := newAssembler(&fakeSearcher{}).Build(context.Background(), "")
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("gateway failure propagates", func(t *testing.T) {
		_, err := newAssembler(&fakeSearcher{err: errors.New("connection reset by peer")}).Build(context.Background(), "q")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.Contains(t, err.Error(), "connection reset by peer")
	})
}
