package audio

import "testing"

func TestTrimSilenceStripsLeadingAndTrailingQuiet(t *testing.T) {
	rate := 1000
	silence := make([]float64, rate/10) // 100ms
	loud := make([]float64, rate/10)
	for i := range loud {
		loud[i] = 0.8
	}

	data := append(append(append([]float64{}, silence...), loud...), silence...)
	s := Samples{Data: data, SampleRate: rate}

	trimmed := TrimSilence(s, -40, 0.02)
	if len(trimmed.Data) == 0 {
		t.Fatal("expected non-empty trimmed audio")
	}
	if len(trimmed.Data) >= len(s.Data) {
		t.Fatalf("expected trimming to shrink the clip: got %d, had %d", len(trimmed.Data), len(s.Data))
	}
	for _, v := range trimmed.Data {
		if v != 0.8 {
			t.Fatalf("expected only loud samples to remain, found %v", v)
		}
	}
}

func TestTrimSilenceAllSilentReturnsEmpty(t *testing.T) {
	s := Samples{Data: make([]float64, 1000), SampleRate: 1000}
	trimmed := TrimSilence(s, -40, 0.02)
	if len(trimmed.Data) != 0 {
		t.Fatalf("expected empty result for all-silent input, got %d samples", len(trimmed.Data))
	}
}
