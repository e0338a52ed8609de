package dub

// TimeFilterPolicy selects how a word's interval is tested against the
// configured processing window(s).
type TimeFilterPolicy string

const (
	TimeFilterPrecise   TimeFilterPolicy = "precise"
	TimeFilterBalanced  TimeFilterPolicy = "balanced"
	TimeFilterForgiving TimeFilterPolicy = "forgiving"
)

// ModelLifecycleMode controls whether GPU-resident collaborator models
// (ASR, diarizer, TTS) are released before the next one loads.
type ModelLifecycleMode string

const (
	ModelExclusive ModelLifecycleMode = "exclusive"
	ModelCoexist   ModelLifecycleMode = "coexist"
)

// Config collects every tunable named in the fragmenter, speaker assigner,
// synthesizer, composer, and mixer, plus the CLI-facing options. One
// struct, one DefaultConfig constructor, the same shape the rest of the
// stack uses for configuration.
type Config struct {
	// Fragmenter
	GapDuration         float64
	BreakCharacters     string
	NoBreakWords        map[string]struct{}
	GapDurationMerge    float64
	MinSentenceDuration float64
	MergeShortSentences bool

	// Speaker assignment / filtering
	TimeFilterPolicy  TimeFilterPolicy
	TimeFilterEpsilon float64 // used by TimeFilterForgiving

	// Style rewrite
	StyleRewriteMaxRetries  int
	StyleRewriteMaxAbsDelta int
	StyleRewriteMaxRatio    float64
	StyleRewriteMinRatio    float64

	// Duration-targeted synthesis
	HallucinationMaxAttempts int
	LastWordThresholdInitial float64
	LastWordThresholdStep    float64
	LevThresholdInitial      float64
	LevThresholdStep         float64
	JaroThresholdInitial     float64
	JaroThresholdStep        float64
	DurationMaxAttempts      int
	DesiredAccuracy          float64
	SpeedMin                 float64
	SpeedMax                 float64
	FadeDuration             float64
	SynthesisWorkerPoolSize  int

	// Background mixer
	MixerEpsilon      float64
	CrossfadeDuration float64

	// Silence strip
	SilenceThresholdDB float64
	MinSilenceMS       int

	// Media / encoding
	OutputFPS     float64
	OutputBitrate string
	OutputCRF     int
	HDProfile     bool

	// Collaborator lifecycle
	ModelLifecycle ModelLifecycleMode

	// CLI / directories
	DownloadDirectory   string
	SynthesisDirectory  string
	Voices              []string
	Engines             []string
	CleanAudio          bool
	InputLanguage       string
	TargetLanguage      string
	From                string
	To                  string
	Speaker             int
	NumSpeakers         int
	MinSpeakers         int
	MaxSpeakers         int
	ASRModel            string
	StylePrompt         string
	Debug               bool
	OutputVideoPath     string
	CheckpointPath      string
	RenderScriptPath    string
	Analysis            bool
	PrepareOnly         bool
	Extract             bool
	TimefilePaths       []string
}

// DefaultConfig returns a Config populated with the pipeline's stock
// tunables.
func DefaultConfig() Config {
	return Config{
		GapDuration:         1.0,
		BreakCharacters:     ". ! ? , 。",
		NoBreakWords:        defaultNoBreakWords(),
		GapDurationMerge:    0.75,
		MinSentenceDuration: 1.5,
		MergeShortSentences: false,

		TimeFilterPolicy:  TimeFilterForgiving,
		TimeFilterEpsilon: 0.2,

		StyleRewriteMaxRetries:  5,
		StyleRewriteMaxAbsDelta: 7,
		StyleRewriteMaxRatio:    1.5,
		StyleRewriteMinRatio:    1.0 / 1.5,

		HallucinationMaxAttempts: 5,
		LastWordThresholdInitial: 0.35,
		LastWordThresholdStep:    0.02,
		LevThresholdInitial:      0.90,
		LevThresholdStep:         0.01,
		JaroThresholdInitial:     0.90,
		JaroThresholdStep:        0.01,
		DurationMaxAttempts:      5,
		DesiredAccuracy:          0.05,
		SpeedMin:                 0.3,
		SpeedMax:                 2.5,
		FadeDuration:             0.05,
		SynthesisWorkerPoolSize:  4,

		MixerEpsilon:      0.1,
		CrossfadeDuration: 0.70,

		SilenceThresholdDB: -50,
		MinSilenceMS:       10,

		OutputFPS:     0, // 0 means "keep source fps"
		OutputBitrate: "192k",
		OutputCRF:     18,
		HDProfile:     false,

		ModelLifecycle: ModelExclusive,

		DownloadDirectory:  "downloads",
		SynthesisDirectory: "synthesis",
		Engines:            []string{"coqui"},
	}
}

// defaultNoBreakWords lists the abbreviations that must not end a
// fragment, so "Mr." does not become a sentence boundary.
func defaultNoBreakWords() map[string]struct{} {
	words := []string{
		"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "Sr.", "Jr.",
		"St.", "Mt.", "e.g.", "i.e.", "etc.", "vs.", "Inc.",
		"Ltd.", "Co.", "Corp.", "Gov.", "Rev.", "Gen.", "Col.",
		"Capt.", "Lt.", "Cmdr.", "Sgt.", "No.", "approx.",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
