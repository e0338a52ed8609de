package llm

import "context"

// GroqLLM drives Groq's OpenAI-compatible chat-completions endpoint.
type GroqLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGroqLLM(apiKey string, model string) *GroqLLM {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqLLM{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
	}
}

func (l *GroqLLM) Complete(ctx context.Context, messages []Message) (string, error) {
	return completeChat(ctx, "groq", l.url, l.apiKey, l.model, messages)
}

func (l *GroqLLM) Name() string { return "groq-llm" }
