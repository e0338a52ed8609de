// Package style implements the style-rewrite collaborator boundary
// (dub.StyleLLM) on top of a generic llm.Client: a "change the tone,
// preserve the length" chat prompt whose output shape the caller
// validates.
package style

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lokutor-ai/lokutor-dub/pkg/providers/llm"
)

// Rewriter adapts an llm.Client to dub.StyleLLM, instructing the model to
// return a JSON object with a "fragments" array of exactly as many
// rewritten strings as were given, and feeding any contract-violation hint
// back as an extra user turn on retry.
type Rewriter struct {
	Client llm.Client
}

func NewRewriter(client llm.Client) *Rewriter {
	return &Rewriter{Client: client}
}

type fragmentsResponse struct {
	Fragments []string `json:"fragments"`
}

// Rewrite implements dub.StyleLLM.
func (r *Rewriter) Rewrite(ctx context.Context, originals []string, prompt, sentenceText, hint string) ([]string, error) {
	messages := []llm.Message{
		{
			Role: "system",
			Content: fmt.Sprintf(
				"Change the style or tone of the sentence fragments while preserving "+
					"their original text length, in this way: %s. Consider the full "+
					"sentence for context. Respond with a JSON object of the exact shape "+
					`{"fragments": ["...", "..."]} with exactly %d strings, in order, `+
					"and nothing else.",
				prompt, len(originals),
			),
		},
		{
			Role: "user",
			Content: fmt.Sprintf(
				"Full sentence: %q\nFragments:\n%s",
				sentenceText, numberedList(originals),
			),
		},
	}
	if hint != "" {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: "The previous attempt was rejected: " + hint + ". Try again.",
		})
	}

	raw, err := r.Client.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	var parsed fragmentsResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("style: unparseable response: %w", err)
	}
	return parsed.Fragments, nil
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i, item)
	}
	return b.String()
}

// extractJSONObject trims any prose a chat model wraps its JSON in,
// returning the substring from the first '{' to the last '}'.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
