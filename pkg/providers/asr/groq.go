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

type GroqASR struct {
	apiKey string
	url    string
	model  string
}

func NewGroqASR(apiKey string, model string) *GroqASR {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqASR{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/audio/transcriptions",
		model:  model,
	}
}

func (s *GroqASR) Name() string { return "groq-asr" }

func (s *GroqASR) Transcribe(ctx context.Context, audioPath string, language string, modelID string, vad bool) ([]dub.Word, string, error) {
	model := s.model
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

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, body)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("groq asr error (status %d): %s", resp.StatusCode, string(respBody))
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

func (s *GroqASR) TranscribeWords(ctx context.Context, path string) ([]dub.Word, error) {
	words, _, err := s.Transcribe(ctx, path, "", "", false)
	return words, err
}

func (s *GroqASR) Unload() error { return nil }
