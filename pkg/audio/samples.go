// Package audio provides the mono 16-bit PCM primitives the dubbing
// pipeline builds on: WAV encode/decode, silence generation and trimming,
// fades, and sample-domain mixing. It grew out of a single RIFF/WAVE
// header writer; decoding, DSP, and file I/O were added for the composer,
// mixer, and silence-strip collaborator.
package audio

import "fmt"

// Samples is mono PCM audio as float64 in [-1, 1], the representation
// every DSP helper in this package operates on.
type Samples struct {
	Data       []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (s Samples) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}

// Silence returns a zero-filled clip of the given duration.
func Silence(duration float64, sampleRate int) Samples {
	if duration <= 0 {
		return Samples{SampleRate: sampleRate}
	}
	n := int(duration * float64(sampleRate))
	return Samples{Data: make([]float64, n), SampleRate: sampleRate}
}

// Concat appends clips in order, requiring a matching sample rate.
func Concat(clips ...Samples) (Samples, error) {
	if len(clips) == 0 {
		return Samples{}, nil
	}
	rate := clips[0].SampleRate
	total := 0
	for _, c := range clips {
		if c.SampleRate != rate {
			return Samples{}, fmt.Errorf("audio: sample rate mismatch %d != %d", c.SampleRate, rate)
		}
		total += len(c.Data)
	}
	out := make([]float64, 0, total)
	for _, c := range clips {
		out = append(out, c.Data...)
	}
	return Samples{Data: out, SampleRate: rate}, nil
}

// Int16ToSamples converts signed 16-bit little-endian PCM bytes to
// normalized float64 samples in [-1, 1].
func Int16ToSamples(pcm []byte, sampleRate int) Samples {
	n := len(pcm) / 2
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		data[i] = float64(v) / 32768.0
	}
	return Samples{Data: data, SampleRate: sampleRate}
}

// SamplesToInt16 converts normalized float64 samples back to signed
// 16-bit little-endian PCM bytes, clamping any out-of-range value.
func SamplesToInt16(s Samples) []byte {
	out := make([]byte, len(s.Data)*2)
	for i, v := range s.Data {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		iv := int16(v * 32767)
		out[2*i] = byte(iv)
		out[2*i+1] = byte(iv >> 8)
	}
	return out
}

// FadeIn applies a linear fade-in over the first duration seconds,
// in place.
func FadeIn(s Samples, duration float64) {
	applyFade(s, duration, true)
}

// FadeOut applies a linear fade-out over the last duration seconds,
// in place.
func FadeOut(s Samples, duration float64) {
	applyFade(s, duration, false)
}

func applyFade(s Samples, duration float64, in bool) {
	n := int(duration * float64(s.SampleRate))
	if n <= 0 || len(s.Data) == 0 {
		return
	}
	if n > len(s.Data) {
		n = len(s.Data)
	}
	denom := float64(n - 1)
	if denom <= 0 {
		denom = 1
	}
	for i := 0; i < n; i++ {
		gain := float64(i) / denom
		idx := i
		if !in {
			idx = len(s.Data) - n + i
			gain = 1 - gain
		}
		s.Data[idx] *= gain
	}
}

// MixAdd adds b into a in place starting at offset seconds into a,
// clamping whatever spills past a's length. Used to layer the crossfade
// bridge's two fading components onto one buffer.
func MixAdd(a Samples, b Samples, offset float64) {
	start := int(offset * float64(a.SampleRate))
	for i, v := range b.Data {
		idx := start + i
		if idx < 0 || idx >= len(a.Data) {
			continue
		}
		a.Data[idx] += v
	}
}

// Slice returns the portion of s spanning [start,end) seconds, clamped to
// the clip's bounds.
func Slice(s Samples, start, end float64) Samples {
	n := len(s.Data)
	si := int(start * float64(s.SampleRate))
	ei := int(end * float64(s.SampleRate))
	if si < 0 {
		si = 0
	}
	if ei > n {
		ei = n
	}
	if si >= ei {
		return Samples{SampleRate: s.SampleRate}
	}
	out := make([]float64, ei-si)
	copy(out, s.Data[si:ei])
	return Samples{Data: out, SampleRate: s.SampleRate}
}

// Gain scales every sample by factor, in place.
func Gain(s Samples, factor float64) {
	for i := range s.Data {
		s.Data[i] *= factor
	}
}
