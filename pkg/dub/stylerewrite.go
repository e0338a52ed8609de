package dub

import (
	"context"
	"fmt"
)

// RewriteOutcome is the explicit, non-exceptional result of one rewrite
// attempt. Accepted distinguishes a passing attempt (Texts set) from a
// rejected one (Reason set) without resorting to a sentinel error for
// ordinary control flow.
type RewriteOutcome struct {
	Accepted bool
	Texts    []string // present iff Accepted
	Reason   string   // present iff !Accepted, fed back into the next prompt
}

// StyleLLM is the collaborator boundary for the style-rewrite contract:
// given the original fragment texts of one full sentence, a free-form
// style prompt, and the sentence's own text for context, it returns
// exactly len(originals) rewritten texts (or fewer/more, which the caller
// validates).
type StyleLLM interface {
	Rewrite(ctx context.Context, originals []string, prompt, sentenceText, hint string) ([]string, error)
}

// ApplyStyleRewrite rewrites every fragment of one full sentence in place
// using llm, retrying up to cfg.StyleRewriteMaxRetries times on a
// contract violation and feeding the violation reason back as a hint. On
// persistent failure the original texts are kept and the caller is told
// via the returned bool (false = kept originals).
func ApplyStyleRewrite(ctx context.Context, llm StyleLLM, fragments []*Fragment, sentenceText, prompt string, cfg Config, logger Logger) (bool, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if len(fragments) == 0 {
		return true, nil
	}

	originals := make([]string, len(fragments))
	for i, f := range fragments {
		originals[i] = f.Text
	}

	hint := ""
	for attempt := 0; attempt <= cfg.StyleRewriteMaxRetries; attempt++ {
		candidates, err := llm.Rewrite(ctx, originals, prompt, sentenceText, hint)
		if err != nil {
			logger.Warn("style rewrite collaborator error", "attempt", attempt, "error", err)
			hint = err.Error()
			continue
		}

		outcome := validateRewrite(originals, candidates, cfg)
		if outcome.Accepted {
			for i, f := range fragments {
				f.Text = outcome.Texts[i]
			}
			return true, nil
		}

		logger.Warn("style rewrite rejected", "attempt", attempt, "reason", outcome.Reason)
		hint = outcome.Reason
	}

	logger.Warn("style rewrite exhausted retries, keeping originals", "sentence", sentenceText)
	return false, fmt.Errorf("%w: %s", ErrStyleRewriteRejected, hint)
}

// validateRewrite checks the length-preserving contract: fragment counts
// must match, and each fragment's new length must be within the
// absolute-delta or ratio tolerance of the original.
func validateRewrite(originals, candidates []string, cfg Config) RewriteOutcome {
	if len(candidates) != len(originals) {
		return RewriteOutcome{Reason: fmt.Sprintf("expected %d fragments, got %d", len(originals), len(candidates))}
	}
	for i, orig := range originals {
		if !lengthWithinContract(orig, candidates[i], cfg) {
			return RewriteOutcome{Reason: fmt.Sprintf("fragment %d length %d deviates too far from original length %d", i, len(candidates[i]), len(orig))}
		}
	}
	return RewriteOutcome{Accepted: true, Texts: candidates}
}

func lengthWithinContract(original, candidate string, cfg Config) bool {
	origLen := len(original)
	newLen := len(candidate)
	if origLen == 0 {
		return newLen == 0
	}

	absDelta := newLen - origLen
	if absDelta < 0 {
		absDelta = -absDelta
	}
	if absDelta <= cfg.StyleRewriteMaxAbsDelta {
		return true
	}

	ratio := float64(newLen) / float64(origLen)
	return ratio >= cfg.StyleRewriteMinRatio && ratio <= cfg.StyleRewriteMaxRatio
}
