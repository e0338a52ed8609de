package dub

import (
	"fmt"
	"strings"
)

// CreateFragments partitions words into sentence fragments using the
// hard-boundary / punctuation-boundary rule. Words must be sorted by Start
// and non-empty.
func CreateFragments(words []Word, cfg Config) ([]Fragment, error) {
	return createFragments(words, cfg.GapDuration, cfg.BreakCharacters, cfg.NoBreakWords)
}

// CreateFullSentences runs the same procedure with break_characters
// narrowed to sentence-ending punctuation and no duration gate, so only
// genuine sentence boundaries split the output.
func CreateFullSentences(words []Word, cfg Config) ([]FullSentence, error) {
	frags, err := createFragments(words, cfg.GapDuration, fullSentenceBreakCharacters, nil)
	if err != nil {
		return nil, err
	}
	sentences := make([]FullSentence, 0, len(frags))
	for _, f := range frags {
		sentences = append(sentences, FullSentence{Text: f.Text, Start: f.Start, End: f.End})
	}
	return sentences, nil
}

const fullSentenceBreakCharacters = ". ! ? 。"

func createFragments(words []Word, gapDuration float64, breakCharacters string, noBreakWords map[string]struct{}) ([]Fragment, error) {
	if len(words) == 0 {
		return nil, ErrEmptyWordList
	}
	if err := requireMonotone(words); err != nil {
		return nil, err
	}

	breakSet := runeSet(breakCharacters)

	var fragments []Fragment
	var buf []Word

	flush := func() {
		if len(buf) == 0 {
			return
		}
		fragments = append(fragments, Fragment{
			Text:  joinWords(buf),
			Start: buf[0].Start,
			End:   buf[len(buf)-1].End,
		})
		buf = buf[:0]
	}

	for i, w := range words {
		buf = append(buf, w)

		isLast := i == len(words)-1
		hardBoundary := isLast
		if !isLast {
			gap := words[i+1].Start - w.End
			if gap > gapDuration {
				hardBoundary = true
			}
		}

		punctuationBoundary := endsWithBreakCharacter(w.Text, breakSet) && !isNoBreakWord(w.Text, noBreakWords)

		if hardBoundary {
			flush()
			continue
		}
		if punctuationBoundary {
			accumulated := w.End - buf[0].Start
			if accumulated > gapDuration {
				flush()
			}
		}
	}

	return fragments, nil
}

func requireMonotone(words []Word) error {
	for i := 1; i < len(words); i++ {
		if words[i].Start < words[i-1].Start {
			return ErrNonMonotoneWords
		}
	}
	return nil
}

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range chars {
		if r == ' ' {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

func endsWithBreakCharacter(text string, breakSet map[rune]struct{}) bool {
	trimmed := strings.TrimRight(text, " \t\n")
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	last := runes[len(runes)-1]
	_, ok := breakSet[last]
	return ok
}

func isNoBreakWord(text string, noBreakWords map[string]struct{}) bool {
	if noBreakWords == nil {
		return false
	}
	_, ok := noBreakWords[strings.TrimSpace(text)]
	return ok
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// MergeShortSentences merges consecutive fragments when the gap between
// them is below gapDurationMerge and at least one of the pair is shorter
// than minSentenceDuration. Merging preserves the earlier start and later
// end, joining text with a single space. logger receives a Debug line per
// merge.
func MergeShortSentences(fragments []Fragment, cfg Config, logger Logger) []Fragment {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if len(fragments) == 0 {
		return fragments
	}

	merged := make([]Fragment, 0, len(fragments))
	current := fragments[0]

	for i := 1; i < len(fragments); i++ {
		next := fragments[i]
		gap := next.Start - current.End
		shortPair := current.Duration() < cfg.MinSentenceDuration || next.Duration() < cfg.MinSentenceDuration

		if gap < cfg.GapDurationMerge && shortPair {
			logger.Debug("merging sentence", "left", current.Text, "right", next.Text, "gap", gap)
			current = Fragment{
				Text:         current.Text + " " + next.Text,
				Start:        current.Start,
				End:          next.End,
				SpeakerIndex: current.SpeakerIndex,
			}
			continue
		}

		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}

// AssignFragmentsToSentences assigns each fragment to the unique sentence
// whose interval contains it (non-strict containment), appending the
// fragment's index to that sentence's Fragments list and writing the
// sentence text back onto the fragment's ParentSentenceText. A fragment
// contained by zero or more than one sentence is reported as
// ErrFragmentStraddlesSentence.
func AssignFragmentsToSentences(fragments []Fragment, sentences []FullSentence) error {
	for fi := range fragments {
		f := &fragments[fi]
		matchIdx := -1
		for si := range sentences {
			s := sentences[si]
			if s.Start <= f.Start && f.End <= s.End {
				if matchIdx != -1 {
					return fmt.Errorf("%w: fragment %q matches sentences %d and %d", ErrFragmentStraddlesSentence, f.Text, matchIdx, si)
				}
				matchIdx = si
			}
		}
		if matchIdx == -1 {
			return fmt.Errorf("%w: fragment %q [%.2f-%.2f] contained by no sentence", ErrFragmentStraddlesSentence, f.Text, f.Start, f.End)
		}
		sentences[matchIdx].Fragments = append(sentences[matchIdx].Fragments, fi)
		f.ParentSentenceText = sentences[matchIdx].Text
	}
	return nil
}
