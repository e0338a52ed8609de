package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteThenReadWavFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")

	original := Samples{Data: []float64{0, 0.25, -0.25, 0.5, -0.5}, SampleRate: 16000}
	if err := WriteWavFile(path, original); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadWavFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.SampleRate != original.SampleRate {
		t.Errorf("sample rate = %d, want %d", got.SampleRate, original.SampleRate)
	}
	if len(got.Data) != len(original.Data) {
		t.Fatalf("got %d samples, want %d", len(got.Data), len(original.Data))
	}
	for i, v := range original.Data {
		if math.Abs(got.Data[i]-v) > 0.001 {
			t.Errorf("sample %d: got %v, want %v", i, got.Data[i], v)
		}
	}
}

func TestWavDurationMatchesSampleCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")

	s := Silence(2.0, 8000)
	if err := WriteWavFile(path, s); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := WavDuration(path)
	if err != nil {
		t.Fatalf("duration failed: %v", err)
	}
	if math.Abs(got-2.0) > 0.01 {
		t.Errorf("duration = %v, want ~2.0", got)
	}
}
