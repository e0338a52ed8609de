package dub

import (
	"path/filepath"
	"testing"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

func writeTestClip(t *testing.T, dir, name string, duration float64, sampleRate int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	clip := audio.Samples{Data: make([]float64, int(duration*float64(sampleRate))), SampleRate: sampleRate}
	for i := range clip.Data {
		clip.Data[i] = 0.5
	}
	if err := audio.WriteWavFile(path, clip); err != nil {
		t.Fatalf("write test clip: %v", err)
	}
	return path
}

func TestComposeTrackTotality(t *testing.T) {
	dir := t.TempDir()
	sampleRate := 8000

	fragments := []Fragment{
		{Start: 1.0, End: 1.5, SynthesisOK: true, AudioPath: writeTestClip(t, dir, "a.wav", 0.5, sampleRate)},
		{Start: 3.0, End: 3.8, SynthesisOK: true, AudioPath: writeTestClip(t, dir, "b.wav", 0.8, sampleRate)},
		{Start: 5.0, End: 5.2, SynthesisOK: false},
	}

	totalDuration := 6.0
	composed, err := ComposeTrack(fragments, totalDuration, sampleRate, nil)
	if err != nil {
		t.Fatalf("ComposeTrack: %v", err)
	}

	got := composed.Duration()
	// within one sample
	if diff := got - totalDuration; diff > 1.0/float64(sampleRate) || diff < -1.0/float64(sampleRate) {
		t.Errorf("composed duration = %.6f, want %.6f", got, totalDuration)
	}
}

func TestComposeTrackSkipsFailedFragments(t *testing.T) {
	dir := t.TempDir()
	sampleRate := 8000

	fragments := []Fragment{
		{Start: 0.0, End: 1.0, SynthesisOK: false},
		{Start: 2.0, End: 2.5, SynthesisOK: true, AudioPath: writeTestClip(t, dir, "only.wav", 0.5, sampleRate)},
	}

	composed, err := ComposeTrack(fragments, 3.0, sampleRate, nil)
	if err != nil {
		t.Fatalf("ComposeTrack: %v", err)
	}
	if composed.Duration() < 2.9 || composed.Duration() > 3.1 {
		t.Errorf("composed duration = %.3f, want ~3.0", composed.Duration())
	}
}
