// Package llm talks to chat-completion providers.
package llm

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultTimeout = 60 * time.Second
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
}

// Completer is a chat-completion endpoint.
//
// Ready reports a configuration error without touching the network, so
// callers can fail before doing any other I/O. Complete returns the first
// choice's text, or "" when the provider returned no choice.
type Completer interface {
	Ready() error
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
