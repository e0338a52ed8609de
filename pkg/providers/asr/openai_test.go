package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAIASRParsesWordTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		resp := struct {
			Language string `json:"language"`
			Words    []struct {
				Word  string  `json:"word"`
				Start float64 `json:"start"`
				End   float64 `json:"end"`
			} `json:"words"`
		}{
			Language: "english",
		}
		resp.Words = append(resp.Words, struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		}{Word: "hello", Start: 0.0, End: 0.4})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}

	a := &OpenAIASR{apiKey: "test-key", url: server.URL, model: "whisper-1"}
	words, lang, err := a.Transcribe(context.Background(), path, "", "", false)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if lang != "english" {
		t.Errorf("language = %q", lang)
	}
	if len(words) != 1 || words[0].Text != "hello" || words[0].End != 0.4 {
		t.Errorf("words = %+v", words)
	}
}

func TestOpenAIASRUnloadIsNoOp(t *testing.T) {
	a := NewOpenAIASR("key", "")
	if err := a.Unload(); err != nil {
		t.Errorf("Unload: %v", err)
	}
}
