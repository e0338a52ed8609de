package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCoquiTTSWritesWavResponseToDisk(t *testing.T) {
	const fakeWav = "RIFF....WAVEfmt fake-pcm-data"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("text") != "hello there" {
			t.Errorf("unexpected text param: %q", r.URL.Query().Get("text"))
		}
		if r.URL.Query().Get("speaker_id") != "voice-1" {
			t.Errorf("unexpected speaker_id param: %q", r.URL.Query().Get("speaker_id"))
		}
		w.Write([]byte(fakeWav))
	}))
	defer server.Close()

	c := NewCoquiTTS(server.URL, []string{"voice-0", "voice-1"}, "en")
	outPath := filepath.Join(t.TempDir(), "out.wav")

	if err := c.Synthesize(context.Background(), "hello there", 1, 1.0, outPath); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != fakeWav {
		t.Errorf("wrote %q, want %q", string(data), fakeWav)
	}
}

func TestCoquiTTSRejectsOutOfRangeSpeaker(t *testing.T) {
	c := NewCoquiTTS("http://unused", []string{"voice-0"}, "en")
	if err := c.Synthesize(context.Background(), "hi", 5, 1.0, filepath.Join(t.TempDir(), "out.wav")); err == nil {
		t.Fatal("expected error for out-of-range speaker index")
	}
}
