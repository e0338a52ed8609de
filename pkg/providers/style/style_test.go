package style

import (
	"context"
	"testing"

	"github.com/lokutor-ai/lokutor-dub/pkg/providers/llm"
)

type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeClient) Name() string { return "fake" }

func TestRewriterParsesFragmentsObject(t *testing.T) {
	client := &fakeClient{response: `Sure thing! {"fragments": ["Hiya!", "How goes it?"]}`}
	r := NewRewriter(client)

	out, err := r.Rewrite(context.Background(), []string{"Hi there.", "How are you?"}, "casual", "Hi there. How are you?", "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if len(out) != 2 || out[0] != "Hiya!" || out[1] != "How goes it?" {
		t.Errorf("Rewrite result = %+v", out)
	}
}

func TestRewriterPropagatesClientError(t *testing.T) {
	client := &fakeClient{err: context.DeadlineExceeded}
	r := NewRewriter(client)

	if _, err := r.Rewrite(context.Background(), []string{"hi"}, "", "hi", ""); err == nil {
		t.Fatal("expected error to propagate")
	}
}
