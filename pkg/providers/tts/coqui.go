package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// CoquiTTS talks to a locally-running Coqui TTS server's standard
// GET /api/tts endpoint, writing its WAV response straight to disk. This
// is the default engine per the CLI's --engine default of "coqui".
type CoquiTTS struct {
	serverURL string
	Voices    []string
	Language  string

	client *http.Client
}

func NewCoquiTTS(serverURL string, voices []string, language string) *CoquiTTS {
	return &CoquiTTS{
		serverURL: strings.TrimRight(serverURL, "/"),
		Voices:    voices,
		Language:  language,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *CoquiTTS) Name() string { return "coqui" }

// Synthesize implements dub.TTSEngine. speed is accepted for interface
// conformance; the standard Coqui server has no speed parameter, so
// any pacing correction happens later via the Stretcher.
func (c *CoquiTTS) Synthesize(ctx context.Context, text string, speakerIndex int, speed float64, outPath string) error {
	if speakerIndex < 0 || speakerIndex >= len(c.Voices) {
		return fmt.Errorf("coqui: no voice configured for speaker %d", speakerIndex)
	}
	voice := c.Voices[speakerIndex]

	params := url.Values{}
	params.Set("text", text)
	if voice != "" {
		params.Set("speaker_id", voice)
	}
	if c.Language != "" {
		params.Set("language_id", c.Language)
	}

	reqURL := c.serverURL + "/api/tts?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("coqui: build request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("coqui: GET /api/tts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("coqui: GET /api/tts returned status %d: %s", resp.StatusCode, string(body))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("coqui: create %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("coqui: write %s: %w", outPath, err)
	}
	return nil
}
