package dub

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"golang.org/x/sync/errgroup"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

// TTSEngine is the collaborator boundary for one text-to-speech backend.
// Synthesize writes a WAV file to outPath for the given speaker voice and
// speed (1.0 is natural speed).
type TTSEngine interface {
	Synthesize(ctx context.Context, text string, speakerIndex int, speed float64, outPath string) error
}

// Stretcher is the collaborator boundary for a time-stretch tool (in
// practice an os/exec wrapper around rubberband).
type Stretcher interface {
	Stretch(ctx context.Context, inPath, outPath string, tempoFactor float64) error
}

// VerificationTranscriber re-transcribes a synthesized clip so the
// hallucination-free loop can compare detected text against the text fed
// to the engine.
type VerificationTranscriber interface {
	TranscribeWords(ctx context.Context, path string) ([]Word, error)
}

var punctuationPattern = regexp.MustCompile(`[^\w\s]`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// normalizeForComparison lowercases, strips punctuation, and collapses
// whitespace so detected and expected text compare fairly.
func normalizeForComparison(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctuationPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// levenshteinSimilarity returns the edit-distance similarity of a and b in
// [0,1], where 1 means identical.
func levenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

type synthesisAttempt struct {
	path             string
	lastWordDistance float64
	lev              float64
	jaro             float64
}

// hallucinationFreeSynthesis retries synthesis until the re-transcribed
// text matches text closely enough, or cfg.HallucinationMaxAttempts is
// exhausted. Thresholds relax by a configured step after every failed
// attempt.
func hallucinationFreeSynthesis(ctx context.Context, tts TTSEngine, verifier VerificationTranscriber, text string, speakerIndex int, speed float64, outPath string, cfg Config, logger Logger) (string, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}

	lastWordThreshold := cfg.LastWordThresholdInitial
	levThreshold := cfg.LevThresholdInitial
	jaroThreshold := cfg.JaroThresholdInitial

	var attempts []synthesisAttempt
	expectedNorm := normalizeForComparison(text)
	base := strings.TrimSuffix(outPath, ".wav")

	for attempt := 0; attempt < cfg.HallucinationMaxAttempts; attempt++ {
		rawPath := fmt.Sprintf("%s_%d.wav", base, attempt)
		if err := tts.Synthesize(ctx, text, speakerIndex, speed, rawPath); err != nil {
			logger.Warn("synthesis attempt failed", "attempt", attempt, "error", err)
			continue
		}

		trimmedPath := fmt.Sprintf("%s_trimmed_%d.wav", base, attempt)
		if err := trimSilenceFile(rawPath, trimmedPath, cfg); err != nil {
			logger.Warn("silence trim failed", "attempt", attempt, "error", err)
			continue
		}

		words, err := verifier.TranscribeWords(ctx, trimmedPath)
		if err != nil || len(words) == 0 {
			logger.Warn("verification transcription failed", "attempt", attempt, "error", err)
			continue
		}

		var detected strings.Builder
		for i, w := range words {
			if i > 0 {
				detected.WriteByte(' ')
			}
			detected.WriteString(w.Text)
		}
		detectedNorm := normalizeForComparison(detected.String())

		lev := levenshteinSimilarity(detectedNorm, expectedNorm)
		jaro := matchr.JaroWinkler(detectedNorm, expectedNorm, false)

		duration, err := audio.WavDuration(trimmedPath)
		if err != nil {
			logger.Warn("duration probe failed", "attempt", attempt, "error", err)
			continue
		}
		lastWordDistance := duration - words[len(words)-1].End

		logger.Debug("synthesis attempt verified", "attempt", attempt, "last_word", lastWordDistance, "lev", lev, "jaro", jaro)
		attempts = append(attempts, synthesisAttempt{path: trimmedPath, lastWordDistance: lastWordDistance, lev: lev, jaro: jaro})

		if lastWordDistance < lastWordThreshold && lev >= levThreshold && jaro >= jaroThreshold {
			return copyWav(trimmedPath, outPath)
		}

		lastWordThreshold += cfg.LastWordThresholdStep
		levThreshold -= cfg.LevThresholdStep
		jaroThreshold -= cfg.JaroThresholdStep
	}

	if len(attempts) == 0 {
		return "", ErrSynthesisExhausted
	}

	// Drop the attempt with the worst (largest) last-word distance first:
	// trailing hallucinations show up there, and must not win on a good
	// text-similarity average alone.
	worst := 0
	for i, a := range attempts {
		if a.lastWordDistance > attempts[worst].lastWordDistance {
			worst = i
		}
	}
	attempts = append(attempts[:worst], attempts[worst+1:]...)
	if len(attempts) == 0 {
		return "", ErrSynthesisExhausted
	}

	best := attempts[0]
	bestAvg := (best.lev + best.jaro) / 2
	for _, a := range attempts[1:] {
		avg := (a.lev + a.jaro) / 2
		if avg > bestAvg {
			best = a
			bestAvg = avg
		}
	}
	return copyWav(best.path, outPath)
}

// synthesizeDuration drives the outer stretch loop: synthesize once, then
// repeatedly re-stretch the ORIGINAL synthesis (never the already-stretched
// file, to avoid compounding rubberband artifacts) until the rendered clip
// is within cfg.DesiredAccuracy seconds of desiredDuration.
func synthesizeDuration(ctx context.Context, tts TTSEngine, stretcher Stretcher, verifier VerificationTranscriber, text string, speakerIndex int, desiredDuration float64, outPath string, cfg Config, logger Logger) (string, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}

	base := strings.TrimSuffix(outPath, ".wav")
	synthesisPath := base + "_synthesis.wav"
	if _, err := hallucinationFreeSynthesis(ctx, tts, verifier, text, speakerIndex, 1.0, synthesisPath, cfg, logger); err != nil {
		return "", err
	}

	optimalSpeed := 1.0
	processingPath := synthesisPath

	for attempt := 0; attempt < cfg.DurationMaxAttempts; attempt++ {
		currentDuration, err := audio.WavDuration(processingPath)
		if err != nil {
			return "", fmt.Errorf("dub: measure duration: %w", err)
		}

		optimalSpeed *= currentDuration / desiredDuration
		if optimalSpeed < cfg.SpeedMin {
			optimalSpeed = cfg.SpeedMin
		} else if optimalSpeed > cfg.SpeedMax {
			optimalSpeed = cfg.SpeedMax
		}

		stretchedPath := fmt.Sprintf("%s_stretched_%d.wav", base, attempt+1)
		if err := stretcher.Stretch(ctx, synthesisPath, stretchedPath, optimalSpeed); err != nil {
			return "", fmt.Errorf("dub: stretch: %w", err)
		}

		trimmedPath := fmt.Sprintf("%s_trimmed_stretched_%d.wav", base, attempt+1)
		if err := trimSilenceFile(stretchedPath, trimmedPath, cfg); err != nil {
			return "", fmt.Errorf("dub: trim stretched clip: %w", err)
		}
		processingPath = trimmedPath

		finalDuration, err := audio.WavDuration(processingPath)
		if err != nil {
			return "", fmt.Errorf("dub: measure stretched duration: %w", err)
		}

		logger.Debug("stretch attempt", "attempt", attempt, "duration", finalDuration, "desired", desiredDuration, "speed", optimalSpeed)
		if diff := finalDuration - desiredDuration; diff >= -cfg.DesiredAccuracy && diff <= cfg.DesiredAccuracy {
			break
		}
	}

	final, err := audio.ReadWavFile(processingPath)
	if err != nil {
		return "", fmt.Errorf("dub: read final clip: %w", err)
	}
	audio.FadeIn(final, cfg.FadeDuration)
	audio.FadeOut(final, cfg.FadeDuration)
	if err := audio.WriteWavFile(outPath, final); err != nil {
		return "", fmt.Errorf("dub: write final clip: %w", err)
	}
	return outPath, nil
}

func trimSilenceFile(inPath, outPath string, cfg Config) error {
	s, err := audio.ReadWavFile(inPath)
	if err != nil {
		return err
	}
	trimmed := audio.TrimSilence(s, cfg.SilenceThresholdDB, float64(cfg.MinSilenceMS)/1000.0)
	return audio.WriteWavFile(outPath, trimmed)
}

func copyWav(srcPath, dstPath string) (string, error) {
	if srcPath == dstPath {
		return dstPath, nil
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return "", err
	}
	return dstPath, nil
}

// SynthesizeFragments synthesizes every fragment concurrently, bounded by
// cfg.SynthesisWorkerPoolSize, writing each result's path and SynthesisOK
// flag back onto the fragment. A fragment whose SpeakerIndex has no
// matching voice is skipped, not failed.
func SynthesizeFragments(ctx context.Context, tts TTSEngine, stretcher Stretcher, verifier VerificationTranscriber, fragments []*Fragment, voices []string, synthesisDir string, cfg Config, logger Logger) error {
	if logger == nil {
		logger = NoOpLogger{}
	}
	numVoices := len(voices)
	if numVoices == 0 {
		numVoices = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.SynthesisWorkerPoolSize)
	var mu sync.Mutex

	for i, frag := range fragments {
		i, frag := i, frag
		if frag.SpeakerIndex >= numVoices {
			logger.Warn("skipping fragment, no voice for speaker", "index", i, "speaker_index", frag.SpeakerIndex)
			continue
		}

		g.Go(func() error {
			outPath := fmt.Sprintf("%s/sentence%d.wav", synthesisDir, i)
			path, err := synthesizeDuration(gctx, tts, stretcher, verifier, frag.Text, frag.SpeakerIndex, frag.Duration(), outPath, cfg, logger)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("synthesis failed for fragment", "index", i, "error", err)
				frag.SynthesisOK = false
				return nil
			}
			frag.AudioPath = path
			frag.SynthesisOK = true
			return nil
		})
	}

	return g.Wait()
}
