// Package translator implements the translation collaborator boundary
// (dub.Translator) on top of a generic llm.Client: a single-turn
// instruction asking for a literal translation of one fragment, nothing
// else appended.
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/lokutor-ai/lokutor-dub/pkg/providers/llm"
)

type LLMTranslator struct {
	Client llm.Client
}

func NewLLMTranslator(client llm.Client) *LLMTranslator {
	return &LLMTranslator{Client: client}
}

// Translate implements dub.Translator. No length guarantee is made here;
// the duration-targeted synthesizer absorbs any change in spoken length
// via time-stretch.
func (t *LLMTranslator) Translate(ctx context.Context, text, src, tgt string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: fmt.Sprintf(
				"Translate the given text from %s to %s. Reply with only the "+
					"translation, no quotes, no commentary.",
				languageName(src), languageName(tgt),
			),
		},
		{Role: "user", Content: text},
	}

	out, err := t.Client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("translator: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// languageName passes through a BCP-47-ish code as-is; most chat models
// handle ISO codes directly and a lookup table would only drift from the
// set the ASR/translation backends actually support.
func languageName(code string) string {
	if code == "" {
		return "the detected source language"
	}
	return code
}
