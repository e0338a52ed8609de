package llm

import (
	"context"
	"fmt"
)

// GoogleLLM drives the Gemini generateContent endpoint. Roles are mapped
// to Gemini's user/model pair; system turns travel as user content since
// not every Gemini model accepts a dedicated system role.
type GoogleLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGoogleLLM(apiKey string, model string) *GoogleLLM {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleLLM{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:  model,
	}
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (l *GoogleLLM) Complete(ctx context.Context, messages []Message) (string, error) {
	var req googleRequest
	req.GenerationConfig.Temperature = completionTemperature
	req.GenerationConfig.MaxOutputTokens = completionMaxTokens
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		req.Contents = append(req.Contents, googleContent{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}

	var result googleResponse
	if err := postJSON(ctx, "google", l.url+"?key="+l.apiKey, nil, req, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm: google: response contained no candidates")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (l *GoogleLLM) Name() string { return "google-llm" }
