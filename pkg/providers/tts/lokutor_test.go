package tts

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func TestLokutorTTSWritesWavFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "closing")

		var req map[string]interface{}
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			return
		}
		if req["voice"] != "voice-1" {
			t.Errorf("unexpected voice in request: %v", req["voice"])
		}

		sample := make([]byte, 4)
		binary.LittleEndian.PutUint16(sample[0:2], uint16(1000))
		binary.LittleEndian.PutUint16(sample[2:4], uint16(2000))
		conn.Write(r.Context(), websocket.MessageBinary, sample)
		conn.Write(r.Context(), websocket.MessageText, []byte("EOS"))
	}))
	defer server.Close()

	tts := NewLokutorTTS("test-key", []string{"voice-0", "voice-1"}, "en")
	tts.host = strings.TrimPrefix(server.URL, "http://")
	tts.scheme = "ws"
	tts.SampleRate = 16000

	outPath := filepath.Join(t.TempDir(), "out.wav")
	if err := tts.Synthesize(context.Background(), "hello", 1, 1.0, outPath); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty WAV file")
	}

	if tts.Name() != "lokutor" {
		t.Errorf("Name() = %q", tts.Name())
	}
	tts.Close()
}

func TestLokutorTTSRejectsOutOfRangeSpeaker(t *testing.T) {
	tts := NewLokutorTTS("test-key", []string{"voice-0"}, "en")
	err := tts.Synthesize(context.Background(), "hi", 3, 1.0, filepath.Join(t.TempDir(), "out.wav"))
	if err == nil {
		t.Fatal("expected error for out-of-range speaker index")
	}
}
