package dub

import (
	"fmt"
	"sort"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

// ComposeTrack concatenates every successful fragment's synthesized clip
// into one track spanning [0, totalDuration], padding silence wherever the
// original had no replaced speech. Fragments are visited in start order;
// fragments with SynthesisOK=false are skipped entirely and their time
// range is left to silence. Walk fragments, pad the gap since the cursor,
// append the clip, advance the cursor by the clip's actual (possibly
// stretched) duration.
func ComposeTrack(fragments []Fragment, totalDuration float64, sampleRate int, logger Logger) (audio.Samples, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}

	ordered := make([]Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var clips []audio.Samples
	cursor := 0.0

	for _, f := range ordered {
		if !f.SynthesisOK {
			continue
		}

		gap := f.Start - cursor
		if gap > 0 {
			clips = append(clips, audio.Silence(gap, sampleRate))
			cursor += gap
		} else if gap < 0 {
			logger.Debug("composer: fragment starts before cursor, swallowing drift", "start", f.Start, "cursor", cursor)
		}

		clip, err := audio.ReadWavFile(f.AudioPath)
		if err != nil {
			return audio.Samples{}, fmt.Errorf("dub: compose: read fragment clip %s: %w", f.AudioPath, err)
		}
		if clip.SampleRate != sampleRate {
			return audio.Samples{}, fmt.Errorf("dub: compose: fragment clip %s has sample rate %d, want %d", f.AudioPath, clip.SampleRate, sampleRate)
		}
		clips = append(clips, clip)
		cursor += clip.Duration()
	}

	trailing := totalDuration - cursor
	if trailing > 0 {
		clips = append(clips, audio.Silence(trailing, sampleRate))
	}

	return audio.Concat(clips...)
}
