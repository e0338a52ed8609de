package dub

import (
	"fmt"
	"sort"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

// BuildReplacementIntervals derives the mixer's input interval list from
// synthesized fragments: one [start,end] per successful fragment, each
// expanded by eps on each side and clamped to [0,duration], sorted by
// start. Fragments that failed synthesis contribute nothing — their span
// stays original audio.
func BuildReplacementIntervals(fragments []Fragment, eps, duration float64) []TimeRange {
	var out []TimeRange
	for _, f := range fragments {
		if !f.SynthesisOK {
			continue
		}
		out = append(out, TimeRange{Start: f.Start, End: f.End}.Expand(eps, duration))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// MergeReplacementIntervals coalesces intervals that overlap, or sit
// closer together than 2*eps+2*crossfadeDuration, since a crossfade
// shorter than that would not be meaningful. The coupling between eps and
// crossfadeDuration is intentional: both describe the same word-timestamp
// uncertainty budget.
func MergeReplacementIntervals(intervals []TimeRange, eps, crossfadeDuration float64) []TimeRange {
	if len(intervals) == 0 {
		return nil
	}
	threshold := 2*eps + 2*crossfadeDuration

	merged := []TimeRange{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv.Start < last.End || (iv.Start-last.End) < threshold {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// MixBackground builds the final background stem: original audio
// everywhere nothing was replaced, the vocal-less accompaniment stem
// wherever a synthesized voice plays, crossfaded at every seam so the
// transition is inaudible. original and accompaniment must share a sample
// rate; duration is the target track length (normally original.Duration()).
// intervals should already be merged via MergeReplacementIntervals.
func MixBackground(original, accompaniment audio.Samples, intervals []TimeRange, duration float64, crossfadeDuration float64, logger Logger) (audio.Samples, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if original.SampleRate != accompaniment.SampleRate {
		return audio.Samples{}, fmt.Errorf("dub: mixer: sample rate mismatch original=%d accompaniment=%d", original.SampleRate, accompaniment.SampleRate)
	}

	var segments []audio.Samples
	cursor := 0.0

	for _, iv := range intervals {
		bridge := buildCrossfadeBridge(original, accompaniment, cursor, iv.Start, crossfadeDuration, cursor > 0, true)
		segments = append(segments, bridge)
		segments = append(segments, audio.Slice(accompaniment, iv.Start, iv.End))
		cursor = iv.End
		logger.Debug("mixer: replaced interval", "start", iv.Start, "end", iv.End)
	}

	tail := buildCrossfadeBridge(original, accompaniment, cursor, duration, crossfadeDuration, cursor > 0, false)
	segments = append(segments, tail)

	return audio.Concat(segments...)
}

// buildCrossfadeBridge renders the original audio on [p,q], with a fade-in
// at p blended against a fading-out accompaniment window (if hasLeftFade,
// i.e. a replaced region just ended at p) and a fade-out at q blended
// against a fading-in accompaniment window (if hasRightFade, i.e. a
// replaced region starts at q). The crossfade window shrinks to the
// bridge's own length when the gap is shorter than crossfadeDuration.
func buildCrossfadeBridge(original, accompaniment audio.Samples, p, q, crossfadeDuration float64, hasLeftFade, hasRightFade bool) audio.Samples {
	base := audio.Slice(original, p, q)
	length := q - p
	if length <= 0 {
		return base
	}

	cf := crossfadeDuration
	if cf > length {
		cf = length
	}
	if cf <= 0 {
		return base
	}

	if hasLeftFade {
		audio.FadeIn(base, cf)
		accLeft := audio.Slice(accompaniment, p, p+cf)
		audio.FadeOut(accLeft, cf)
		audio.MixAdd(base, accLeft, 0)
	}
	if hasRightFade {
		audio.FadeOut(base, cf)
		accRight := audio.Slice(accompaniment, q-cf, q)
		audio.FadeIn(accRight, cf)
		audio.MixAdd(base, accRight, length-cf)
	}

	return base
}
