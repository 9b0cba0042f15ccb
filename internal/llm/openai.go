package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/metrics"
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Ready() error {
	if c.APIKey == "" {
		return apperr.MissingSetting("OPENAI_API_KEY")
	}
	return nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	logger := logging.New(ctx)

	b, err := json.Marshal(openAIRequest{
		Model:       c.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		metrics.RecordUpstreamCall("openai", time.Since(start), err)
		logger.LogError("openai_complete", err)
		return "", apperr.Upstream("OpenAI request failed: "+err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamCall("openai", time.Since(start), err)
		return "", apperr.Upstream("OpenAI read failed: "+err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upErr := apperr.Upstream(fmt.Sprintf("OpenAI error %d: %s", resp.StatusCode, string(body)), nil)
		metrics.RecordUpstreamCall("openai", time.Since(start), upErr)
		logger.LogWarnf("openai_complete", "upstream returned status %d", resp.StatusCode)
		return "", upErr
	}
	metrics.RecordUpstreamCall("openai", time.Since(start), nil)

	var out openAIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperr.Upstream("OpenAI decode failed: "+err.Error(), err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
