package audio

import "math"

// windowRMS computes the root-mean-square amplitude of one window.
func windowRMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// dBFS converts an RMS amplitude to decibels relative to full scale.
// Silence (rms == 0) maps to -120dB rather than -Inf so callers can
// compare against a threshold without a NaN/Inf special case.
func dBFS(rms float64) float64 {
	if rms <= 0 {
		return -120
	}
	return 20 * math.Log10(rms)
}

// TrimSilence strips leading and trailing windows whose loudness stays
// below thresholdDB for windowSeconds at a time. Used after a rubberband
// re-stretch pass to remove the trailing silence stretching can
// introduce before the fade-out is applied.
func TrimSilence(s Samples, thresholdDB float64, windowSeconds float64) Samples {
	windowSize := int(windowSeconds * float64(s.SampleRate))
	if windowSize <= 0 || len(s.Data) == 0 {
		return s
	}

	isLoud := func(start int) bool {
		end := start + windowSize
		if end > len(s.Data) {
			end = len(s.Data)
		}
		return dBFS(windowRMS(s.Data[start:end])) > thresholdDB
	}

	start := 0
	for start < len(s.Data) && !isLoud(start) {
		start += windowSize
	}
	if start >= len(s.Data) {
		return Samples{SampleRate: s.SampleRate}
	}

	end := len(s.Data)
	for end > start {
		winStart := end - windowSize
		if winStart < start {
			winStart = start
		}
		if isLoud(winStart) {
			break
		}
		end = winStart
	}

	out := make([]float64, end-start)
	copy(out, s.Data[start:end])
	return Samples{Data: out, SampleRate: s.SampleRate}
}
