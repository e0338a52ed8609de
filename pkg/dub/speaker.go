package dub

import "sort"

// AssignSpeaker stamps a single fragment with the index of the speaker
// whose segment overlaps it the most. Ties are broken by lowest speaker
// index, then by earliest segment start. A fragment with no overlapping
// segment gets speaker_index 0.
func AssignSpeaker(f Fragment, speakers []Speaker) int {
	bestSpeaker := 0
	bestOverlap := -1.0
	bestSegStart := 0.0
	found := false

	for si, sp := range speakers {
		for _, seg := range sp.Segments {
			overlap := overlapDuration(f.Start, f.End, seg.Start, seg.End)
			if overlap <= 0 {
				continue
			}
			better := !found ||
				overlap > bestOverlap ||
				(overlap == bestOverlap && (si < bestSpeaker || (si == bestSpeaker && seg.Start < bestSegStart)))
			if better {
				found = true
				bestSpeaker = si
				bestOverlap = overlap
				bestSegStart = seg.Start
			}
		}
	}

	if !found {
		return 0
	}
	return bestSpeaker
}

// AssignSpeakers stamps every fragment's SpeakerIndex in place.
func AssignSpeakers(fragments []Fragment, speakers []Speaker) {
	for i := range fragments {
		fragments[i].SpeakerIndex = AssignSpeaker(fragments[i], speakers)
	}
}

func overlapDuration(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

// SortSpeakersByTotalTime returns speakers ordered by TotalTime descending,
// the order Prepare puts diarized or timefile-read speakers in.
func SortSpeakersByTotalTime(speakers []Speaker) []Speaker {
	sorted := make([]Speaker, len(speakers))
	copy(sorted, speakers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalTime > sorted[j].TotalTime
	})
	return sorted
}

// FilterWordsByTime keeps words intersecting any of ranges, per the
// configured policy.
func FilterWordsByTime(words []Word, ranges []TimeRange, policy TimeFilterPolicy, eps float64) []Word {
	if len(ranges) == 0 {
		return words
	}
	var kept []Word
	for _, w := range words {
		for _, r := range ranges {
			if wordMatchesTimeRange(w, r, policy, eps) {
				kept = append(kept, w)
				break
			}
		}
	}
	return kept
}

func wordMatchesTimeRange(w Word, r TimeRange, policy TimeFilterPolicy, eps float64) bool {
	switch policy {
	case TimeFilterPrecise:
		return r.Start <= w.Start && w.End <= r.End
	case TimeFilterForgiving:
		expanded := TimeRange{Start: r.Start - eps, End: r.End + eps}
		if expanded.Start < 0 {
			expanded.Start = 0
		}
		return overlapDuration(w.Start, w.End, expanded.Start, expanded.End) > 0
	case TimeFilterBalanced:
		fallthrough
	default:
		return overlapDuration(w.Start, w.End, r.Start, r.End) > 0
	}
}

// FilterWordsBySpeaker keeps only words whose midpoint lies inside a
// segment belonging to the speaker at speakerIndex.
func FilterWordsBySpeaker(words []Word, speakers []Speaker, speakerIndex int) []Word {
	if speakerIndex < 0 || speakerIndex >= len(speakers) {
		return nil
	}
	segments := speakers[speakerIndex].Segments
	var kept []Word
	for _, w := range words {
		mid := (w.Start + w.End) / 2
		for _, seg := range segments {
			if mid >= seg.Start && mid <= seg.End {
				kept = append(kept, w)
				break
			}
		}
	}
	return kept
}

// FilterSpeakersByTime keeps only the segments of every speaker that
// intersect [timeStart, timeEnd] (kept segments are not clipped to the
// window), recomputes TotalTime from them, and drops speakers left with
// zero segments, so a --from/--to window can be applied without
// re-running diarization.
func FilterSpeakersByTime(speakers []Speaker, timeStart, timeEnd float64) []Speaker {
	var out []Speaker
	for _, sp := range speakers {
		var segments []Segment
		total := 0.0
		for _, seg := range sp.Segments {
			if seg.Start <= timeEnd && seg.End >= timeStart {
				segments = append(segments, seg)
				total += seg.Duration()
			}
		}
		if len(segments) == 0 {
			continue
		}
		out = append(out, Speaker{Label: sp.Label, TotalTime: total, Segments: segments})
	}
	return out
}
