package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/metrics"
)

const anthropicMaxTokens = 1024

// AnthropicClient serves the same Completer contract through the Messages API.
// System messages are lifted into the request's system prompt.
type AnthropicClient struct {
	apiKey  string
	model   string
	timeout time.Duration
	client  anthropic.Client
}

// NewAnthropic builds the client. Extra options (a base URL, an HTTP client)
// are applied after the defaults.
func NewAnthropic(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	return &AnthropicClient{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  anthropic.NewClient(append(base, opts...)...),
	}
}

func (c *AnthropicClient) Ready() error {
	if c.apiKey == "" {
		return apperr.MissingSetting("ANTHROPIC_API_KEY")
	}
	return nil
}

func (c *AnthropicClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	system, msgs := toAnthropicMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	metrics.RecordUpstreamCall("anthropic", time.Since(start), err)
	if err != nil {
		return "", apperr.Upstream("Anthropic error: "+err.Error(), err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func toAnthropicMessages(in []ChatMessage) (string, []anthropic.MessageParam) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(in))
	for _, m := range in {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return strings.Join(system, "\n\n"), out
}
