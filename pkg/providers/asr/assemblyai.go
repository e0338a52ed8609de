package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

// Overridable as package vars so tests can point them at an httptest server.
var (
	assemblyAIUploadURL     = "https://api.assemblyai.com/v2/upload"
	assemblyAITranscriptURL = "https://api.assemblyai.com/v2/transcript"
)

// AssemblyAIASR uploads the audio file, submits a transcript job requesting
// native word timestamps, and polls until the job completes.
type AssemblyAIASR struct {
	apiKey string
	poll   time.Duration
}

func NewAssemblyAIASR(apiKey string) *AssemblyAIASR {
	return &AssemblyAIASR{apiKey: apiKey, poll: 500 * time.Millisecond}
}

func (s *AssemblyAIASR) Name() string { return "assemblyai-asr" }

func (s *AssemblyAIASR) Transcribe(ctx context.Context, audioPath string, language string, modelID string, vad bool) ([]dub.Word, string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("asr: open %s: %w", audioPath, err)
	}

	uploadURL, err := s.upload(ctx, data)
	if err != nil {
		return nil, "", err
	}

	transcriptID, err := s.submit(ctx, uploadURL, language)
	if err != nil {
		return nil, "", err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(s.poll):
			words, lang, status, err := s.getTranscript(ctx, transcriptID)
			if err != nil {
				return nil, "", err
			}
			if status == "completed" {
				return words, lang, nil
			}
			if status == "error" {
				return nil, "", fmt.Errorf("assemblyai transcription failed")
			}
		}
	}
}

func (s *AssemblyAIASR) TranscribeWords(ctx context.Context, path string) ([]dub.Word, error) {
	words, _, err := s.Transcribe(ctx, path, "", "", false)
	return words, err
}

func (s *AssemblyAIASR) Unload() error { return nil }

func (s *AssemblyAIASR) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", assemblyAIUploadURL, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.UploadURL, nil
}

func (s *AssemblyAIASR) submit(ctx context.Context, uploadURL string, language string) (string, error) {
	payload := map[string]interface{}{
		"audio_url": uploadURL,
	}
	if language != "" {
		payload["language_code"] = language
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", assemblyAITranscriptURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (s *AssemblyAIASR) getTranscript(ctx context.Context, id string) ([]dub.Word, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", assemblyAITranscriptURL+"/"+id, nil)
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", "", err
	}
	defer resp.Body.Close()

	var result struct {
		Status   string `json:"status"`
		Language string `json:"language_code"`
		Words    []struct {
			Text  string  `json:"text"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Conf  float64 `json:"confidence"`
		} `json:"words"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", "", err
	}

	words := make([]dub.Word, len(result.Words))
	for i, w := range result.Words {
		// AssemblyAI reports word timestamps in milliseconds.
		words[i] = dub.Word{Text: w.Text, Start: w.Start / 1000, End: w.End / 1000, Probability: w.Conf}
	}
	return words, result.Language, result.Status, nil
}
