// Package tts implements the text-to-speech collaborator boundary
// (dub.TTSEngine). Engines that stream PCM over a socket accumulate the
// frames into a complete WAV file, since dubbing synthesizes one whole
// fragment at a time rather than feeding a live player.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/lokutor-dub/pkg/audio"
	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

// LokutorTTS synthesizes through Lokutor's websocket streaming API,
// assembling the returned chunks into a single WAV file per call.
// Voices holds one voice ID per speaker index, mirroring how
// dub.MultiVoiceTTS looks up a voice for a fragment's speaker.
type LokutorTTS struct {
	apiKey     string
	host       string
	scheme     string
	Voices     []string
	Language   string
	SampleRate int

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewLokutorTTS(apiKey string, voices []string, language string) *LokutorTTS {
	return &LokutorTTS{
		apiKey:     apiKey,
		host:       "api.lokutor.com",
		scheme:     "wss",
		Voices:     voices,
		Language:   language,
		SampleRate: 24000,
	}
}

func (t *LokutorTTS) Name() string { return "lokutor" }

func (t *LokutorTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}

	t.conn = conn
	return conn, nil
}

// Synthesize implements dub.TTSEngine.
func (t *LokutorTTS) Synthesize(ctx context.Context, text string, speakerIndex int, speed float64, outPath string) error {
	if speakerIndex < 0 || speakerIndex >= len(t.Voices) {
		return fmt.Errorf("lokutor: no voice configured for speaker %d", speakerIndex)
	}
	voice := t.Voices[speakerIndex]

	var pcm []byte
	err := t.streamSynthesize(ctx, text, voice, speed, func(chunk []byte) error {
		pcm = append(pcm, chunk...)
		return nil
	})
	if err != nil {
		return err
	}

	samples := audio.Int16ToSamples(pcm, t.SampleRate)
	return audio.WriteWavFile(outPath, samples)
}

func (t *LokutorTTS) streamSynthesize(ctx context.Context, text, voice string, speed float64, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":    text,
		"voice":   voice,
		"lang":    t.Language,
		"speed":   speed,
		"steps":   5,
		"version": "versa-1.0",
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("lokutor error: %s", msg)
			}
		}
	}
}

func (t *LokutorTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}

var _ dub.TTSEngine = (*LokutorTTS)(nil)
