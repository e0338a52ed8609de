package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

// DeepgramASR uses Deepgram's pre-recorded transcription endpoint, which
// returns native word-level timestamps without needing a separate
// alignment pass.
type DeepgramASR struct {
	apiKey string
	url    string
	model  string
}

func NewDeepgramASR(apiKey string) *DeepgramASR {
	return &DeepgramASR{
		apiKey: apiKey,
		url:    "https://api.deepgram.com/v1/listen",
		model:  "nova-2",
	}
}

func (s *DeepgramASR) Name() string { return "deepgram-asr" }

func (s *DeepgramASR) Transcribe(ctx context.Context, audioPath string, language string, modelID string, vad bool) ([]dub.Word, string, error) {
	model := s.model
	if modelID != "" {
		model = modelID
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("asr: open %s: %w", audioPath, err)
	}
	defer f.Close()

	u, err := url.Parse(s.url)
	if err != nil {
		return nil, "", err
	}
	params := u.Query()
	params.Set("model", model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	if language != "" {
		params.Set("language", language)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), f)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("deepgram error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Words []struct {
						Word  string  `json:"word"`
						Start float64 `json:"start"`
						End   float64 `json:"end"`
						Conf  float64 `json:"confidence"`
					} `json:"words"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
		Metadata struct {
			DetectedLanguage string `json:"detected_language"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return nil, result.Metadata.DetectedLanguage, nil
	}

	alt := result.Results.Channels[0].Alternatives[0]
	words := make([]dub.Word, len(alt.Words))
	for i, w := range alt.Words {
		words[i] = dub.Word{Text: w.Word, Start: w.Start, End: w.End, Probability: w.Conf}
	}
	return words, result.Metadata.DetectedLanguage, nil
}

func (s *DeepgramASR) TranscribeWords(ctx context.Context, path string) ([]dub.Word, error) {
	words, _, err := s.Transcribe(ctx, path, "", "", false)
	return words, err
}

func (s *DeepgramASR) Unload() error { return nil }
