package dub

import (
	"context"
	"errors"
	"testing"
)

type fakeStyleLLM struct {
	responses [][]string
	errs      []error
	calls     int
}

func (f *fakeStyleLLM) Rewrite(ctx context.Context, originals []string, prompt, sentenceText, hint string) ([]string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], err
	}
	return nil, errors.New("no more responses")
}

func TestApplyStyleRewriteAcceptsFirstTry(t *testing.T) {
	llm := &fakeStyleLLM{responses: [][]string{{"Hi there!", "See you soon."}}}
	frags := []Fragment{{Text: "Hello there!"}, {Text: "See you later."}}
	ptrs := []*Fragment{&frags[0], &frags[1]}

	cfg := DefaultConfig()
	ok, err := ApplyStyleRewrite(context.Background(), llm, ptrs, "Hello there! See you later.", "casual", cfg, nil)
	if err != nil || !ok {
		t.Fatalf("expected acceptance, got ok=%v err=%v", ok, err)
	}
	if frags[0].Text != "Hi there!" || frags[1].Text != "See you soon." {
		t.Errorf("unexpected rewritten texts: %+v", frags)
	}
}

func TestApplyStyleRewriteRetriesThenKeepsOriginalOnExhaustion(t *testing.T) {
	// Every response has the wrong fragment count, so every attempt is rejected.
	llm := &fakeStyleLLM{responses: [][]string{
		{"only one"},
		{"only one"},
		{"only one"},
		{"only one"},
		{"only one"},
		{"only one"},
	}}
	frags := []Fragment{{Text: "Hello there!"}, {Text: "See you later."}}
	ptrs := []*Fragment{&frags[0], &frags[1]}

	cfg := DefaultConfig()
	ok, err := ApplyStyleRewrite(context.Background(), llm, ptrs, "Hello there! See you later.", "casual", cfg, nil)
	if ok {
		t.Fatalf("expected rejection after exhausting retries")
	}
	if !errors.Is(err, ErrStyleRewriteRejected) {
		t.Fatalf("expected ErrStyleRewriteRejected, got %v", err)
	}
	if frags[0].Text != "Hello there!" || frags[1].Text != "See you later." {
		t.Errorf("originals should be preserved, got %+v", frags)
	}
}

func TestLengthWithinContract(t *testing.T) {
	cfg := DefaultConfig()
	if !lengthWithinContract("1234567890", "123456789012345", cfg) { // delta 5 <= 7
		t.Errorf("expected acceptance within abs delta")
	}
	if lengthWithinContract("short", "this is a dramatically much longer replacement sentence", cfg) {
		t.Errorf("expected rejection for wildly different length")
	}
}
