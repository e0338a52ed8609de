package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWavFile decodes a WAV file into mono float64 samples, downmixing
// multi-channel input by averaging channels. Used by the silence-strip
// scan, the duration-targeted synthesizer's duration measurement, and
// the background mixer's sample-domain crossfade work.
func ReadWavFile(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Samples{}, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if !dec.IsValidFile() {
		return Samples{}, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	maxAmplitude := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth == 0 {
		maxAmplitude = 32768
	}

	frames := len(buf.Data) / channels
	data := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		data[i] = (sum / float64(channels)) / maxAmplitude
	}

	return Samples{Data: data, SampleRate: buf.Format.SampleRate}, nil
}

// WavDuration reports a WAV file's length in seconds without holding the
// full decoded buffer in memory any longer than necessary.
func WavDuration(path string) (float64, error) {
	s, err := ReadWavFile(path)
	if err != nil {
		return 0, err
	}
	return s.Duration(), nil
}
