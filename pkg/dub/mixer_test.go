package dub

import (
	"math"
	"testing"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

func constantSamples(value float64, duration float64, sampleRate int) audio.Samples {
	data := make([]float64, int(duration*float64(sampleRate)))
	for i := range data {
		data[i] = value
	}
	return audio.Samples{Data: data, SampleRate: sampleRate}
}

func sampleAt(s audio.Samples, t float64) float64 {
	i := int(t * float64(s.SampleRate))
	if i < 0 || i >= len(s.Data) {
		return math.NaN()
	}
	return s.Data[i]
}

func TestMixBackgroundReplacesOnlyReplacedIntervals(t *testing.T) {
	sampleRate := 1000
	duration := 10.0
	original := constantSamples(1.0, duration, sampleRate)
	accompaniment := constantSamples(-1.0, duration, sampleRate)

	intervals := []TimeRange{{Start: 3.0, End: 5.0}}
	cf := 0.5

	background, err := MixBackground(original, accompaniment, intervals, duration, cf, nil)
	if err != nil {
		t.Fatalf("MixBackground: %v", err)
	}

	// Inside the replaced interval, away from the crossfade edges: accompaniment.
	if v := sampleAt(background, 4.0); v > -0.95 {
		t.Errorf("t=4.0 (inside replacement) = %v, want ~-1.0 (accompaniment)", v)
	}
	// Before the replacement, away from the crossfade edge: original.
	if v := sampleAt(background, 1.0); v < 0.95 {
		t.Errorf("t=1.0 (untouched) = %v, want ~1.0 (original)", v)
	}
	// After the replacement, away from the crossfade edge: original.
	if v := sampleAt(background, 8.0); v < 0.95 {
		t.Errorf("t=8.0 (untouched) = %v, want ~1.0 (original)", v)
	}
}

func TestMergeReplacementIntervalsCoalescesCloseSpans(t *testing.T) {
	eps := 0.1
	cf := 0.7
	threshold := 2*eps + 2*cf // 1.6

	intervals := []TimeRange{
		{Start: 0.0, End: 2.0},
		{Start: 2.0 + threshold - 0.1, End: 4.0}, // closer than threshold: must merge
		{Start: 10.0, End: 12.0},                 // far: stays separate
	}

	merged := MergeReplacementIntervals(intervals, eps, cf)
	if len(merged) != 2 {
		t.Fatalf("got %d merged intervals, want 2: %+v", len(merged), merged)
	}
	if merged[0].Start != 0.0 || merged[0].End != 4.0 {
		t.Errorf("first merged interval = %+v, want [0,4]", merged[0])
	}
	if merged[1].Start != 10.0 || merged[1].End != 12.0 {
		t.Errorf("second merged interval = %+v, want [10,12]", merged[1])
	}
}

func TestBuildReplacementIntervalsSkipsFailedFragments(t *testing.T) {
	fragments := []Fragment{
		{Start: 1.0, End: 2.0, SynthesisOK: true},
		{Start: 5.0, End: 6.0, SynthesisOK: false},
	}
	intervals := BuildReplacementIntervals(fragments, 0.1, 10.0)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1: %+v", len(intervals), intervals)
	}
	if intervals[0].Start != 0.9 || intervals[0].End != 2.1 {
		t.Errorf("interval = %+v, want [0.9,2.1]", intervals[0])
	}
}
