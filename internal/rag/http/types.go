package http

import (
	"strconv"

	"github.com/hecopilot/copilot-backend/internal/llm"
)

type queryBody struct {
	Query string `json:"query"`
	Q     string `json:"q"`
	// Limit accepts a JSON number or string; anything unparseable falls back
	// to the default.
	Limit any `json:"limit"`
}

func (b queryBody) limitString() string {
	switch v := b.Limit.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return "invalid"
	}
}

type chatBody struct {
	Messages []llm.ChatMessage `json:"messages" binding:"required"`
}
