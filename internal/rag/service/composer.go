package service

import (
	"context"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/llm"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

// AnswerComposer answers a question from retrieved context. A failure to
// assemble context fails the request; there is no context-free fallback.
type AnswerComposer struct {
	assembler *ContextAssembler
	llm       llm.Completer
}

func NewAnswerComposer(assembler *ContextAssembler, completer llm.Completer) *AnswerComposer {
	return &AnswerComposer{assembler: assembler, llm: completer}
}

func (c *AnswerComposer) Answer(ctx context.Context, query string) (*domain.ChatAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("Missing query")
	}
	if err := c.llm.Ready(); err != nil {
		return nil, err
	}

	block, err := c.assembler.Build(ctx, query)
	if err != nil {
		return nil, apperr.Propagate("context assembler", err)
	}
	contextUsed := strings.TrimSpace(block.Text) != ""

	answer, err := c.llm.Complete(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: answerSystemPrompt},
			{Role: llm.RoleUser, Content: BuildUserPrompt(block.Text, query)},
		},
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, apperr.Propagate("completion", err)
	}
	if strings.TrimSpace(answer) == "" {
		answer = noAnswerPlaceholder
	}

	logging.New(ctx).LogInfof("answer", "sources=%d context_used=%t", len(block.Sources), contextUsed)

	return &domain.ChatAnswer{
		Query:       query,
		Answer:      answer,
		ContextUsed: contextUsed,
	}, nil
}

func BuildUserPrompt(contextText, query string) string {
	if strings.TrimSpace(contextText) == "" {
		contextText = noContextPlaceholder
	}
	return "CONTEXT:\n" + contextText + "\n\nQUESTION:\n" + query
}
