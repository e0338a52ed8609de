package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAssemblyAIASRPollsUntilCompleted(t *testing.T) {
	attempt := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "tx-1"})
			return
		}
	})
	mux.HandleFunc("/v2/transcript/tx-1", func(w http.ResponseWriter, r *http.Request) {
		attempt++
		if attempt < 2 {
			json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "completed",
			"language_code": "en",
			"words": []map[string]interface{}{
				{"text": "ok", "start": 100, "end": 300, "confidence": 0.8},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	origUpload, origSubmit := assemblyAIUploadURL, assemblyAITranscriptURL
	assemblyAIUploadURL = server.URL + "/v2/upload"
	assemblyAITranscriptURL = server.URL + "/v2/transcript"
	defer func() {
		assemblyAIUploadURL = origUpload
		assemblyAITranscriptURL = origSubmit
	}()

	path := filepath.Join(t.TempDir(), "in.wav")
	os.WriteFile(path, []byte{0, 0}, 0o644)

	s := NewAssemblyAIASR("test-key")
	s.poll = time.Millisecond
	words, lang, err := s.Transcribe(context.Background(), path, "", "", false)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if lang != "en" {
		t.Errorf("language = %q", lang)
	}
	if len(words) != 1 || words[0].Text != "ok" || words[0].Start != 0.1 {
		t.Errorf("words = %+v", words)
	}
	if attempt < 2 {
		t.Errorf("expected at least 2 poll attempts, got %d", attempt)
	}
}
