package dub

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
)

// ASR is the collaborator boundary for word-timed speech recognition over
// a whole media file.
type ASR interface {
	Transcribe(ctx context.Context, audioPath string, language string, modelID string, vad bool) (words []Word, detectedLanguage string, err error)
	Unload() error
}

// Diarizer is the collaborator boundary for speaker diarization.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, numSpeakers, minSpeakers, maxSpeakers int) ([]Speaker, error)
}

// Separator is the collaborator boundary for vocal/accompaniment source
// separation.
type Separator interface {
	Split(ctx context.Context, audioPath, outDir string) (vocalsPath, accompanimentPath string, err error)
}

// Translator is the collaborator boundary for sentence-level translation.
type Translator interface {
	Translate(ctx context.Context, text, src, tgt string) (string, error)
}

// Muxer is the collaborator boundary for every ffmpeg-shaped media
// operation the pipeline needs outside of synthesis itself: fetching,
// probing, muting, and the final remux.
type Muxer interface {
	Fetch(ctx context.Context, input, downloadDirectory string) (videoPath string, err error)
	ExtractAudio(ctx context.Context, videoPath, outDir string) (audioPath string, err error)
	MuteVideo(ctx context.Context, videoPath, outDir string) (mutedVideoPath string, err error)
	Mux(ctx context.Context, mutedVideoPath, audioPath, outPath string, hd bool) error
	Probe(ctx context.Context, mediaPath string) (duration float64, err error)
}

// Pipeline wires every collaborator behind the two-phase prepare/render
// design: it owns no collaborator's lifecycle beyond calling Unload at
// the GPU-memory handoff point, and holds no state between Prepare and
// Render beyond the RenderScript checkpoint.
type Pipeline struct {
	ASR        ASR
	Diarizer   Diarizer
	Separator  Separator
	TTS        TTSEngine
	Stretcher  Stretcher
	Verifier   VerificationTranscriber
	StyleLLM   StyleLLM
	Translator Translator
	Muxer      Muxer

	Config Config
	Logger Logger
}

func (p *Pipeline) logger() Logger {
	if p.Logger == nil {
		return NoOpLogger{}
	}
	return p.Logger
}

// Prepare runs every phase up to and including the checkpoint: acquire,
// separate, transcribe, diarize, filter, fragment, assign speakers,
// style-rewrite, translate, and finally serialize a RenderScript. It never
// touches TTS, the stretcher, or the composer/mixer/mux.
func (p *Pipeline) Prepare(ctx context.Context, input string) (RenderScript, error) {
	logger := p.logger()

	videoPath, err := p.Muxer.Fetch(ctx, input, p.Config.DownloadDirectory)
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: fetch: %v", ErrWholeMediaStep, err)
	}

	duration, err := p.Muxer.Probe(ctx, videoPath)
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: probe: %v", ErrWholeMediaStep, err)
	}

	audioPath, err := p.Muxer.ExtractAudio(ctx, videoPath, p.Config.DownloadDirectory)
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: extract audio: %v", ErrWholeMediaStep, err)
	}

	var accompanimentPath string
	if !p.Config.CleanAudio {
		_, accompanimentPath, err = p.Separator.Split(ctx, audioPath, p.Config.DownloadDirectory)
		if err != nil {
			return RenderScript{}, fmt.Errorf("%w: separate: %v", ErrWholeMediaStep, err)
		}
	}

	words, detectedLanguage, err := p.ASR.Transcribe(ctx, audioPath, p.Config.InputLanguage, p.Config.ASRModel, true)
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: transcribe: %v", ErrWholeMediaStep, err)
	}

	var speakers []Speaker
	diarized := false
	if SpeakerTimefilesExist(p.Config.DownloadDirectory, p.Config.NumSpeakers) {
		speakers, err = ReadSpeakerTimefiles(p.Config.DownloadDirectory)
	} else {
		speakers, err = p.Diarizer.Diarize(ctx, audioPath, p.Config.NumSpeakers, p.Config.MinSpeakers, p.Config.MaxSpeakers)
		diarized = true
	}
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: diarize: %v", ErrWholeMediaStep, err)
	}
	speakers = SortSpeakersByTotalTime(speakers)
	if diarized {
		if err := WriteSpeakerTimefiles(speakers, p.Config.DownloadDirectory); err != nil {
			logger.Warn("could not write speaker timefiles", "error", err)
		}
	}

	windowRanges, hasWindow, err := globalTimeWindow(p.Config, duration)
	if err != nil {
		return RenderScript{}, err
	}
	ranges := windowRanges
	for _, path := range p.Config.TimefilePaths {
		r, err := ImportTimeFile(path)
		if err != nil {
			return RenderScript{}, err
		}
		ranges = append(ranges, r...)
	}
	if len(ranges) > 0 {
		words = FilterWordsByTime(words, ranges, p.Config.TimeFilterPolicy, p.Config.TimeFilterEpsilon)
	}
	if hasWindow {
		speakers = FilterSpeakersByTime(speakers, windowRanges[0].Start, windowRanges[0].End)
	}
	if p.Config.Speaker > 0 {
		words = FilterWordsBySpeaker(words, speakers, p.Config.Speaker-1)
	}
	if len(words) == 0 {
		return RenderScript{}, ErrEmptyWordList
	}

	fragments, err := CreateFragments(words, p.Config)
	if err != nil {
		return RenderScript{}, err
	}
	sentences, err := CreateFullSentences(words, p.Config)
	if err != nil {
		return RenderScript{}, err
	}
	if p.Config.MergeShortSentences {
		fragments = MergeShortSentences(fragments, p.Config, logger)
	}
	if err := AssignFragmentsToSentences(fragments, sentences); err != nil {
		return RenderScript{}, err
	}
	AssignSpeakers(fragments, speakers)

	if p.StyleLLM != nil && p.Config.StylePrompt != "" {
		p.applyStyleRewrites(ctx, fragments, sentences, logger)
	}

	targetLanguage := p.Config.TargetLanguage
	if p.Translator != nil && targetLanguage != "" && targetLanguage != detectedLanguage {
		p.applyTranslation(ctx, fragments, detectedLanguage, targetLanguage, logger)
	}

	if p.Config.ModelLifecycle != ModelCoexist {
		if err := p.ASR.Unload(); err != nil {
			logger.Warn("asr unload failed", "error", err)
		}
	}

	mutedVideoPath, err := p.Muxer.MuteVideo(ctx, videoPath, p.Config.DownloadDirectory)
	if err != nil {
		return RenderScript{}, fmt.Errorf("%w: mute video: %v", ErrWholeMediaStep, err)
	}

	meta := RenderScriptMetadata{
		RunID:             uuid.NewString(),
		InputVideoPath:    videoPath,
		InputAudioPath:    audioPath,
		AccompanimentPath: accompanimentPath,
		MutedVideoPath:    mutedVideoPath,
		Duration:          duration,
		TargetLanguage:    targetLanguage,
		Voices:            p.Config.Voices,
		Engines:           p.Config.Engines,
		CleanAudio:        p.Config.CleanAudio,
		OutputPath:        outputPathOrDefault(p.Config),
	}
	rs := NewRenderScript(meta, fragments)

	if p.Config.CheckpointPath != "" {
		if err := WriteRenderScript(p.Config.CheckpointPath, rs); err != nil {
			return RenderScript{}, err
		}
		logger.Info("render script checkpoint written", "path", p.Config.CheckpointPath)
	}

	return rs, nil
}

// applyStyleRewrites runs the length-preserving rewrite per full sentence;
// a single sentence's failure never aborts the others.
func (p *Pipeline) applyStyleRewrites(ctx context.Context, fragments []Fragment, sentences []FullSentence, logger Logger) {
	for _, sentence := range sentences {
		if len(sentence.Fragments) == 0 {
			continue
		}
		ptrs := make([]*Fragment, len(sentence.Fragments))
		for i, idx := range sentence.Fragments {
			ptrs[i] = &fragments[idx]
		}
		if _, err := ApplyStyleRewrite(ctx, p.StyleLLM, ptrs, sentence.Text, p.Config.StylePrompt, p.Config, logger); err != nil {
			logger.Warn("style rewrite kept originals", "sentence", sentence.Text, "error", err)
		}
	}
}

// applyTranslation translates every fragment's text in place, after style
// rewrite and speaker assignment, preserving segmentation exactly. A
// single fragment's translation failure keeps that fragment's original
// text and never aborts the others.
func (p *Pipeline) applyTranslation(ctx context.Context, fragments []Fragment, src, tgt string, logger Logger) {
	for i := range fragments {
		translated, err := p.Translator.Translate(ctx, fragments[i].Text, src, tgt)
		if err != nil {
			logger.Warn("translation failed, keeping original", "fragment", fragments[i].Text, "error", err)
			continue
		}
		fragments[i].Text = translated
	}
}

// Render runs the second phase: duration-targeted synthesis, composition,
// background mixing, and the final mux. It is the only phase that can
// resume directly from a checkpoint.
func (p *Pipeline) Render(ctx context.Context, rs RenderScript, synthesisDirectory string) (string, error) {
	logger := p.logger()
	fragments := rs.Fragments()
	fragPtrs := make([]*Fragment, len(fragments))
	for i := range fragments {
		fragPtrs[i] = &fragments[i]
	}

	if err := SynthesizeFragments(ctx, p.TTS, p.Stretcher, p.Verifier, fragPtrs, rs.Metadata.Voices, synthesisDirectory, p.Config, logger); err != nil {
		return "", fmt.Errorf("dub: synthesize fragments: %w", err)
	}

	sampleRate, err := probeSampleRate(rs, fragments)
	if err != nil {
		return "", err
	}

	composed, err := ComposeTrack(fragments, rs.Metadata.Duration, sampleRate, logger)
	if err != nil {
		return "", err
	}

	finalAudioPath := filepath.Join(synthesisDirectory, "final_audio.wav")

	if rs.Metadata.CleanAudio || rs.Metadata.AccompanimentPath == "" {
		if err := audio.WriteWavFile(finalAudioPath, composed); err != nil {
			return "", fmt.Errorf("dub: write final audio: %w", err)
		}
	} else {
		original, err := audio.ReadWavFile(rs.Metadata.InputAudioPath)
		if err != nil {
			return "", fmt.Errorf("dub: read original audio: %w", err)
		}
		accompaniment, err := audio.ReadWavFile(rs.Metadata.AccompanimentPath)
		if err != nil {
			return "", fmt.Errorf("dub: read accompaniment: %w", err)
		}

		intervals := BuildReplacementIntervals(fragments, p.Config.MixerEpsilon, rs.Metadata.Duration)
		merged := MergeReplacementIntervals(intervals, p.Config.MixerEpsilon, p.Config.CrossfadeDuration)
		background, err := MixBackground(original, accompaniment, merged, rs.Metadata.Duration, p.Config.CrossfadeDuration, logger)
		if err != nil {
			return "", err
		}

		mixed, err := mixDown(composed, background)
		if err != nil {
			return "", err
		}
		if err := audio.WriteWavFile(finalAudioPath, mixed); err != nil {
			return "", fmt.Errorf("dub: write final audio: %w", err)
		}
	}

	outputPath := rs.Metadata.OutputPath
	if err := p.Muxer.Mux(ctx, rs.Metadata.MutedVideoPath, finalAudioPath, outputPath, p.Config.HDProfile); err != nil {
		return "", fmt.Errorf("dub: mux: %w", err)
	}
	return outputPath, nil
}

// Run executes Prepare followed immediately by Render, the path taken
// when the caller did not ask to stop at the checkpoint.
func (p *Pipeline) Run(ctx context.Context, input, synthesisDirectory string) (string, error) {
	rs, err := p.Prepare(ctx, input)
	if err != nil {
		return "", err
	}
	return p.Render(ctx, rs, synthesisDirectory)
}

func probeSampleRate(rs RenderScript, fragments []Fragment) (int, error) {
	for _, f := range fragments {
		if f.SynthesisOK && f.AudioPath != "" {
			s, err := audio.ReadWavFile(f.AudioPath)
			if err != nil {
				return 0, err
			}
			return s.SampleRate, nil
		}
	}
	if rs.Metadata.InputAudioPath != "" {
		s, err := audio.ReadWavFile(rs.Metadata.InputAudioPath)
		if err == nil {
			return s.SampleRate, nil
		}
	}
	return 44100, nil
}

// mixDown adds the synthesized speech track onto the background track,
// requiring matching sample rates and length (both are built to
// rs.Metadata.Duration already).
func mixDown(speech, background audio.Samples) (audio.Samples, error) {
	if speech.SampleRate != background.SampleRate {
		return audio.Samples{}, fmt.Errorf("dub: mixdown: sample rate mismatch %d != %d", speech.SampleRate, background.SampleRate)
	}
	out := audio.Samples{Data: make([]float64, len(background.Data)), SampleRate: background.SampleRate}
	copy(out.Data, background.Data)
	audio.MixAdd(out, speech, 0)
	return out, nil
}

// globalTimeWindow resolves --from/--to into a single TimeRange, or
// reports ok=false when neither flag was given. A lone --from implies "to
// end of media".
func globalTimeWindow(cfg Config, duration float64) ([]TimeRange, bool, error) {
	if cfg.From == "" && cfg.To == "" {
		return nil, false, nil
	}
	start := 0.0
	end := duration
	var err error
	if cfg.From != "" {
		start, err = ParseTimeString(cfg.From)
		if err != nil {
			return nil, false, err
		}
	}
	if cfg.To != "" {
		end, err = ParseTimeString(cfg.To)
		if err != nil {
			return nil, false, err
		}
	}
	return []TimeRange{{Start: start, End: end}}, true, nil
}

func outputPathOrDefault(cfg Config) string {
	if cfg.OutputVideoPath != "" {
		return cfg.OutputVideoPath
	}
	return "output.mp4"
}

// MultiVoiceTTS dispatches Synthesize calls to the engine+voice pair
// configured for a fragment's speaker index, so the duration-targeted
// synthesizer's single TTSEngine parameter can still address "--voice v1
// v2 --engine e1 e2"-style multi-speaker configurations.
type MultiVoiceTTS struct {
	Engines map[string]TTSEngine
	Voices  []string
	Names   []string // Names[i] is the engine name paired with Voices[i]
}

func (m *MultiVoiceTTS) Synthesize(ctx context.Context, text string, speakerIndex int, speed float64, outPath string) error {
	if speakerIndex < 0 || speakerIndex >= len(m.Voices) {
		return fmt.Errorf("%w: speaker %d", ErrSpeakerIndexOutOfRange, speakerIndex)
	}
	engineName := "coqui"
	if speakerIndex < len(m.Names) && m.Names[speakerIndex] != "" {
		engineName = m.Names[speakerIndex]
	}
	engine, ok := m.Engines[engineName]
	if !ok {
		return fmt.Errorf("dub: no TTS engine registered for %q", engineName)
	}
	return engine.Synthesize(ctx, text, speakerIndex, speed, outPath)
}
