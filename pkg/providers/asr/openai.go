// Package asr implements the word-timed speech recognition collaborator
// boundary (dub.ASR / dub.VerificationTranscriber): open a media file on
// disk, get back word-level timestamps and a detected language.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

type OpenAIASR struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAIASR(apiKey string, model string) *OpenAIASR {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIASR{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/audio/transcriptions",
		model:  model,
	}
}

func (a *OpenAIASR) Name() string { return "openai-asr" }

// Transcribe implements dub.ASR. vad is accepted for interface
// conformance; OpenAI's API always applies its own voice-activity
// segmentation server-side.
func (a *OpenAIASR) Transcribe(ctx context.Context, audioPath string, language string, modelID string, vad bool) ([]dub.Word, string, error) {
	model := a.model
	if modelID != "" {
		model = modelID
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("asr: open %s: %w", audioPath, err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, "", err
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", err
		}
	}
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.url, body)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("openai asr error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	var result struct {
		Language string `json:"language"`
		Words    []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	words := make([]dub.Word, len(result.Words))
	for i, w := range result.Words {
		words[i] = dub.Word{Text: w.Word, Start: w.Start, End: w.End, Probability: 1.0}
	}
	return words, result.Language, nil
}

// TranscribeWords implements dub.VerificationTranscriber by discarding the
// detected-language return value.
func (a *OpenAIASR) TranscribeWords(ctx context.Context, path string) ([]dub.Word, error) {
	words, _, err := a.Transcribe(ctx, path, "", "", false)
	return words, err
}

// Unload is a no-op: there is no process-resident model to release for an
// HTTP-hosted engine.
func (a *OpenAIASR) Unload() error { return nil }
