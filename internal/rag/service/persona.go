package service

import (
	"context"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/llm"
	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

// maxHistory bounds how much of the conversation is forwarded.
const maxHistory = 20

// PersonaChat forwards a conversation to the completion endpoint behind a
// fixed persona, without retrieval.
type PersonaChat struct {
	llm llm.Completer
}

func NewPersonaChat(completer llm.Completer) *PersonaChat {
	return &PersonaChat{llm: completer}
}

func (p *PersonaChat) Reply(ctx context.Context, history []llm.ChatMessage) (*domain.PersonaReply, error) {
	msgs := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return nil, apperr.InvalidInput("Invalid message role %q", m.Role)
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return nil, apperr.InvalidInput("Missing messages")
	}
	if err := p.llm.Ready(); err != nil {
		return nil, err
	}
	if len(msgs) > maxHistory {
		msgs = msgs[len(msgs)-maxHistory:]
	}

	reply, err := p.llm.Complete(ctx, llm.ChatRequest{
		Messages:    append([]llm.ChatMessage{{Role: llm.RoleSystem, Content: personaSystemPrompt}}, msgs...),
		Temperature: personaTemperature,
	})
	if err != nil {
		return nil, apperr.Propagate("completion", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = noAnswerPlaceholder
	}
	return &domain.PersonaReply{Reply: reply}, nil
}
