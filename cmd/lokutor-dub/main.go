package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/asr"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/diarizer"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/llm"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/mux"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/separator"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/stretch"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/style"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/translator"
	"github.com/lokutor-ai/lokutor-dub/pkg/providers/tts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := dub.DefaultConfig()
	var timefilePaths []string

	cmd := &cobra.Command{
		Use:   "lokutor-dub <input_video> <target_language>",
		Short: "Redub a video into another language, preserving pacing and speaker voices",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintln(os.Stderr, "Note: no .env file found, using system environment variables")
			}

			input := args[0]
			if len(args) > 1 && !cmd.Flags().Changed("language") {
				cfg.TargetLanguage = args[1]
			}
			cfg.TimefilePaths = timefilePaths

			logger := newLogger(cfg.Debug)

			if cfg.RenderScriptPath != "" {
				return runRenderOnly(cmd.Context(), cfg, logger)
			}

			return runPipeline(cmd.Context(), cfg, input, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.InputLanguage, "in", cfg.InputLanguage, "source language hint for transcription (alias of --input_language)")
	flags.StringVar(&cfg.InputLanguage, "input_language", cfg.InputLanguage, "source language hint for transcription")
	flags.StringVar(&cfg.TargetLanguage, "language", cfg.TargetLanguage, "target language (overrides the positional argument)")
	flags.StringSliceVar(&cfg.Voices, "voice", cfg.Voices, "one voice ID per speaker index, in speaker order")
	flags.StringSliceVar(&cfg.Engines, "engine", cfg.Engines, "one TTS engine name per speaker index (default coqui)")
	flags.StringVar(&cfg.OutputVideoPath, "output_video", cfg.OutputVideoPath, "output video path (default output.mp4)")
	flags.BoolVar(&cfg.CleanAudio, "clean_audio", cfg.CleanAudio, "skip background separation/remixing; speech track replaces the audio entirely")
	flags.StringVar(&cfg.From, "from", cfg.From, "start of the processing window")
	flags.StringVar(&cfg.To, "to", cfg.To, "end of the processing window")
	flags.BoolVar(&cfg.Analysis, "analysis", cfg.Analysis, "print a speaker/fragment analysis report and exit without synthesizing")
	flags.IntVar(&cfg.Speaker, "speaker", cfg.Speaker, "restrict processing to a single 1-based speaker index")
	flags.IntVar(&cfg.NumSpeakers, "num_speakers", cfg.NumSpeakers, "exact speaker count hint for diarization")
	flags.IntVar(&cfg.MinSpeakers, "min_speakers", cfg.MinSpeakers, "minimum speaker count hint for diarization")
	flags.IntVar(&cfg.MaxSpeakers, "max_speakers", cfg.MaxSpeakers, "maximum speaker count hint for diarization")
	flags.StringVar(&cfg.DownloadDirectory, "download_directory", cfg.DownloadDirectory, "working directory for fetched/extracted media")
	flags.StringVar(&cfg.SynthesisDirectory, "synthesis_directory", cfg.SynthesisDirectory, "working directory for synthesized fragment audio")
	flags.BoolVar(&cfg.Extract, "extract", cfg.Extract, "print each prepared fragment's text (after any style rewrite and translation) and exit without synthesizing")
	flags.StringSliceVar(&timefilePaths, "timefile", nil, "timefiles whose [start-end] ranges restrict which transcribed words are kept")
	flags.StringVar(&cfg.StylePrompt, "prompt", cfg.StylePrompt, "style-rewrite instruction applied to every sentence before translation")
	flags.BoolVar(&cfg.PrepareOnly, "prepare", cfg.PrepareOnly, "stop after writing the render-script checkpoint (render_script.json)")
	flags.StringVar(&cfg.RenderScriptPath, "render", cfg.RenderScriptPath, "resume rendering from a previously written render-script checkpoint")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose logging")
	flags.StringVar(&cfg.ASRModel, "model", cfg.ASRModel, "ASR model ID override")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOKUTOR_DUB")

	return cmd
}

func newLogger(debug bool) dub.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	z := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return dub.NewZerologLogger(z)
}

func runPipeline(ctx context.Context, cfg dub.Config, input string, logger dub.Logger) error {
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Extract {
		rs, err := p.Prepare(ctx, input)
		if err != nil {
			return err
		}
		for _, f := range rs.Fragments() {
			fmt.Println(f.Text)
		}
		return nil
	}

	if cfg.Analysis {
		rs, err := p.Prepare(ctx, input)
		if err != nil {
			return err
		}
		printAnalysisReport(rs)
		return nil
	}

	if cfg.PrepareOnly {
		if cfg.CheckpointPath == "" {
			p.Config.CheckpointPath = "render_script.json"
		}
		_, err := p.Prepare(ctx, input)
		return err
	}

	outputPath, err := p.Run(ctx, input, cfg.SynthesisDirectory)
	if err != nil {
		return err
	}
	fmt.Println("wrote", outputPath)
	return nil
}

// printAnalysisReport groups fragments by assigned speaker and prints one
// section per speaker with per-fragment timing, mirroring the speaker
// timefile layout so the report can be eyeballed against speakerN.txt.
func printAnalysisReport(rs dub.RenderScript) {
	bySpeaker := make(map[int][]dub.Fragment)
	maxSpeaker := 0
	for _, f := range rs.Fragments() {
		bySpeaker[f.SpeakerIndex] = append(bySpeaker[f.SpeakerIndex], f)
		if f.SpeakerIndex > maxSpeaker {
			maxSpeaker = f.SpeakerIndex
		}
	}
	for s := 0; s <= maxSpeaker; s++ {
		frags := bySpeaker[s]
		total := 0.0
		for _, f := range frags {
			total += f.Duration()
		}
		fmt.Printf("Speaker %d total: %.1fs\n", s+1, total)
		for _, f := range frags {
			fmt.Printf("[%.1f-%.1f] %s\n", f.Start, f.End, f.Text)
		}
		fmt.Println()
	}
}

func runRenderOnly(ctx context.Context, cfg dub.Config, logger dub.Logger) error {
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	rs, err := dub.ReadRenderScript(cfg.RenderScriptPath)
	if err != nil {
		return err
	}
	outputPath, err := p.Render(ctx, rs, cfg.SynthesisDirectory)
	if err != nil {
		return err
	}
	fmt.Println("wrote", outputPath)
	return nil
}

// buildPipeline wires every collaborator adapter, selecting providers by
// environment variable so the same binary can run against whichever API
// keys are present.
func buildPipeline(cfg dub.Config, logger dub.Logger) (*dub.Pipeline, error) {
	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	googleKey := os.Getenv("GOOGLE_API_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	assemblyKey := os.Getenv("ASSEMBLYAI_API_KEY")
	lokutorKey := os.Getenv("LOKUTOR_API_KEY")

	asrEngine, err := buildASR(groqKey, openaiKey, deepgramKey, assemblyKey)
	if err != nil {
		return nil, err
	}

	var diar dub.Diarizer
	if assemblyKey != "" {
		diar = diarizer.NewAssemblyAIDiarizer(assemblyKey)
	}

	ttsEngines := buildTTSEngines(cfg, lokutorKey)
	multiTTS := &dub.MultiVoiceTTS{
		Engines: ttsEngines,
		Voices:  cfg.Voices,
		Names:   cfg.Engines,
	}

	var verifier dub.VerificationTranscriber
	if v, ok := asrEngine.(dub.VerificationTranscriber); ok {
		verifier = v
	}

	var styleLLM dub.StyleLLM
	var translate dub.Translator
	if lc := buildLLMClient(groqKey, openaiKey, anthropicKey, googleKey); lc != nil {
		styleLLM = style.NewRewriter(lc)
		translate = translator.NewLLMTranslator(lc)
	}

	return &dub.Pipeline{
		ASR:        asrEngine,
		Diarizer:   diar,
		Separator:  separator.NewSpleeterSeparator(),
		TTS:        multiTTS,
		Stretcher:  stretch.NewRubberbandStretcher(),
		Verifier:   verifier,
		StyleLLM:   styleLLM,
		Translator: translate,
		Muxer:      mux.NewFFmpegMuxer(),
		Config:     cfg,
		Logger:     logger,
	}, nil
}

func buildASR(groqKey, openaiKey, deepgramKey, assemblyKey string) (dub.ASR, error) {
	switch strings.ToLower(os.Getenv("ASR_PROVIDER")) {
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY must be set for openai ASR")
		}
		return asr.NewOpenAIASR(openaiKey, ""), nil
	case "deepgram":
		if deepgramKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY must be set for deepgram ASR")
		}
		return asr.NewDeepgramASR(deepgramKey), nil
	case "assemblyai":
		if assemblyKey == "" {
			return nil, fmt.Errorf("ASSEMBLYAI_API_KEY must be set for assemblyai ASR")
		}
		return asr.NewAssemblyAIASR(assemblyKey), nil
	case "groq", "":
		if groqKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY must be set for groq ASR")
		}
		return asr.NewGroqASR(groqKey, ""), nil
	default:
		return nil, fmt.Errorf("unknown ASR_PROVIDER %q", os.Getenv("ASR_PROVIDER"))
	}
}

// buildTTSEngines wires one engine instance per distinct name in
// cfg.Engines, each configured with every voice so dub.MultiVoiceTTS can
// address them positionally by speaker index. "coqui" needs no API key
// (it talks to a locally-running server); "lokutor" requires
// LOKUTOR_API_KEY.
func buildTTSEngines(cfg dub.Config, lokutorKey string) map[string]dub.TTSEngine {
	engines := make(map[string]dub.TTSEngine)
	names := cfg.Engines
	if len(names) == 0 {
		names = []string{"coqui"}
	}
	for _, name := range names {
		if _, ok := engines[name]; ok {
			continue
		}
		switch name {
		case "lokutor":
			if lokutorKey != "" {
				engines[name] = tts.NewLokutorTTS(lokutorKey, cfg.Voices, cfg.TargetLanguage)
			}
		case "coqui", "":
			engines["coqui"] = tts.NewCoquiTTS(coquiServerURL(), cfg.Voices, cfg.TargetLanguage)
		}
	}
	if _, ok := engines["coqui"]; !ok {
		engines["coqui"] = tts.NewCoquiTTS(coquiServerURL(), cfg.Voices, cfg.TargetLanguage)
	}
	return engines
}

func coquiServerURL() string {
	if u := os.Getenv("COQUI_SERVER_URL"); u != "" {
		return u
	}
	return "http://localhost:5002"
}

func buildLLMClient(groqKey, openaiKey, anthropicKey, googleKey string) llm.Client {
	switch strings.ToLower(os.Getenv("LLM_PROVIDER")) {
	case "openai":
		if openaiKey == "" {
			return nil
		}
		return llm.NewOpenAILLM(openaiKey, "gpt-4o")
	case "anthropic":
		if anthropicKey == "" {
			return nil
		}
		return llm.NewAnthropicLLM(anthropicKey, "claude-3-5-sonnet-20241022")
	case "google":
		if googleKey == "" {
			return nil
		}
		return llm.NewGoogleLLM(googleKey, "gemini-1.5-flash")
	case "groq", "":
		if groqKey == "" {
			return nil
		}
		return llm.NewGroqLLM(groqKey, "")
	default:
		return nil
	}
}
