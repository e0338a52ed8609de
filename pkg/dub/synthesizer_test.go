package dub

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

// fakeTTS writes a fixed-duration tone so duration-targeting has something
// concrete to converge toward.
type fakeTTS struct {
	sampleRate int
	duration   float64
	calls      int
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string, speakerIndex int, speed float64, outPath string) error {
	f.calls++
	s := audio.Silence(f.duration/speed, f.sampleRate)
	for i := range s.Data {
		s.Data[i] = 0.5
	}
	return audio.WriteWavFile(outPath, s)
}

type fakeStretcher struct{}

func (fakeStretcher) Stretch(ctx context.Context, inPath, outPath string, tempoFactor float64) error {
	s, err := audio.ReadWavFile(inPath)
	if err != nil {
		return err
	}
	n := int(float64(len(s.Data)) / tempoFactor)
	if n > len(s.Data) {
		n = len(s.Data)
	}
	stretched := audio.Samples{Data: append([]float64{}, s.Data[:n]...), SampleRate: s.SampleRate}
	return audio.WriteWavFile(outPath, stretched)
}

// fakeVerifier returns its configured word list for every clip, so each
// test decides whether the hallucination-free loop sees a match or a
// mismatch.
type fakeVerifier struct {
	words []Word
}

func (f *fakeVerifier) TranscribeWords(ctx context.Context, path string) ([]Word, error) {
	return f.words, nil
}

func TestHallucinationFreeSynthesisAcceptsMatchingTranscript(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	tts := &fakeTTS{sampleRate: 16000, duration: 1.0}
	verifier := &fakeVerifier{words: []Word{{Text: "hello", Start: 0, End: 0.4}, {Text: "world", Start: 0.4, End: 0.9}}}

	outPath := filepath.Join(dir, "frag.wav")
	got, err := hallucinationFreeSynthesis(context.Background(), tts, verifier, "hello world", 0, 1.0, outPath, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != outPath {
		t.Errorf("got path %q, want %q", got, outPath)
	}
	if tts.calls != 1 {
		t.Errorf("expected a single synthesis attempt, got %d", tts.calls)
	}
}

func TestHallucinationFreeSynthesisExhaustsOnPersistentMismatch(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	tts := &fakeTTS{sampleRate: 16000, duration: 1.0}
	// Detected text never matches "hello world", so every attempt is rejected
	// and the loop must fall back to its best-average selection.
	verifier := &fakeVerifier{words: []Word{{Text: "completely", Start: 0, End: 0.1}, {Text: "unrelated", Start: 0.1, End: 0.2}}}

	outPath := filepath.Join(dir, "frag.wav")
	got, err := hallucinationFreeSynthesis(context.Background(), tts, verifier, "hello world", 0, 1.0, outPath, cfg, nil)
	if err != nil {
		t.Fatalf("expected a best-effort fallback, got error: %v", err)
	}
	if got == "" {
		t.Fatal("expected a non-empty fallback path")
	}
	if tts.calls != cfg.HallucinationMaxAttempts {
		t.Errorf("expected %d attempts, got %d", cfg.HallucinationMaxAttempts, tts.calls)
	}
}

func TestSynthesizeDurationConvergesToTarget(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	tts := &fakeTTS{sampleRate: 16000, duration: 2.0}
	stretcher := fakeStretcher{}
	verifier := &fakeVerifier{words: []Word{{Text: "hello", Start: 0, End: 1.8}}}

	outPath := filepath.Join(dir, "frag.wav")
	got, err := synthesizeDuration(context.Background(), tts, stretcher, verifier, "hello", 0, 1.0, outPath, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, err := audio.ReadWavFile(got)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if d := final.Duration(); d > 1.2 || d < 0.6 {
		t.Errorf("final duration %v too far from desired 1.0s", d)
	}
}

func TestSynthesizeFragmentsSkipsOutOfRangeSpeaker(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SynthesisWorkerPoolSize = 2
	tts := &fakeTTS{sampleRate: 16000, duration: 1.0}
	stretcher := fakeStretcher{}
	verifier := &fakeVerifier{words: []Word{{Text: "hi", Start: 0, End: 0.9}}}

	frags := []Fragment{
		{Text: "hi", Start: 0, End: 1, SpeakerIndex: 0},
		{Text: "hi", Start: 1, End: 2, SpeakerIndex: 5},
	}
	ptrs := []*Fragment{&frags[0], &frags[1]}

	err := SynthesizeFragments(context.Background(), tts, stretcher, verifier, ptrs, []string{"voice0.wav"}, dir, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !frags[0].SynthesisOK {
		t.Errorf("expected fragment 0 to synthesize successfully")
	}
	if frags[1].SynthesisOK {
		t.Errorf("expected fragment 1 (out-of-range speaker) to be skipped")
	}
}
