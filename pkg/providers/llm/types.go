// Package llm provides the text-to-text collaborator adapters this
// pipeline needs outside of transcription and synthesis: the style-rewrite
// backend and, wrapped by pkg/providers/translator, machine translation.
// All providers share one chat-completion Client shape.
package llm

import "context"

// Message is one turn of a chat-completion exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the collaborator boundary for a text-to-text completion
// backend.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}
