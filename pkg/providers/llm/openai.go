package llm

import "context"

// OpenAILLM drives OpenAI's chat-completions endpoint.
type OpenAILLM struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAILLM(apiKey string, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILLM{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
	}
}

func (l *OpenAILLM) Complete(ctx context.Context, messages []Message) (string, error) {
	return completeChat(ctx, "openai", l.url, l.apiKey, l.model, messages)
}

func (l *OpenAILLM) Name() string { return "openai-llm" }
