package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Rewrites and translations must come out the same on a render and on a
// later resume from its checkpoint, so every backend pins temperature to
// zero; completions are sentence-sized, so the token ceiling stays small.
const (
	completionTemperature = 0.0
	completionMaxTokens   = 1024
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// postJSON sends payload to url with the given extra headers and decodes
// the 200 response into out. Anything else becomes an error carrying the
// backend name and the leading bytes of the response body.
func postJSON(ctx context.Context, backend, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("llm: %s: marshal request: %w", backend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llm: %s: build request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm: %s: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("llm: %s: status %d: %s", backend, resp.StatusCode, bytes.TrimSpace(detail))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm: %s: decode response: %w", backend, err)
	}
	return nil
}

// chatCompletionRequest is the OpenAI-compatible request body shared by
// the OpenAI and Groq backends.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func completeChat(ctx context.Context, backend, url, apiKey, model string, messages []Message) (string, error) {
	var result chatCompletionResponse
	err := postJSON(ctx, backend, url, map[string]string{"Authorization": "Bearer " + apiKey}, chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	}, &result)
	if err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm: %s: response contained no choices", backend)
	}
	return result.Choices[0].Message.Content, nil
}
