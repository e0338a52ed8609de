package llm

import (
	"context"
	"fmt"
)

// AnthropicLLM drives the Anthropic messages endpoint. System turns are
// hoisted into the top-level system field that API expects instead of
// travelling in the messages array.
type AnthropicLLM struct {
	apiKey string
	url    string
	model  string
}

func NewAnthropicLLM(apiKey string, model string) *AnthropicLLM {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicLLM{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
	}
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (l *AnthropicLLM) Complete(ctx context.Context, messages []Message) (string, error) {
	req := anthropicRequest{
		Model:       l.model,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	}
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, m)
	}

	headers := map[string]string{
		"x-api-key":         l.apiKey,
		"anthropic-version": "2023-06-01",
	}
	var result anthropicResponse
	if err := postJSON(ctx, "anthropic", l.url, headers, req, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("llm: anthropic: response contained no content blocks")
	}
	return result.Content[0].Text, nil
}

func (l *AnthropicLLM) Name() string { return "anthropic-llm" }
