// Package diarizer implements the speaker-diarization collaborator
// boundary (dub.Diarizer) against AssemblyAI's hosted diarization
// endpoint, using the same upload/submit/poll flow as the AssemblyAI
// transcription adapter in pkg/providers/asr.
package diarizer

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

type AssemblyAIDiarizer struct {
	apiKey string
	poll   time.Duration
}

func NewAssemblyAIDiarizer(apiKey string) *AssemblyAIDiarizer {
	return &AssemblyAIDiarizer{apiKey: apiKey, poll: 500 * time.Millisecond}
}

func (d *AssemblyAIDiarizer) Name() string { return "assemblyai-diarizer" }

// Diarize implements dub.Diarizer. numSpeakers, when positive, is sent as
// AssemblyAI's expected speaker count; minSpeakers and maxSpeakers are
// accepted for interface conformance and not sent.
func (d *AssemblyAIDiarizer) Diarize(ctx context.Context, audioPath string, numSpeakers, minSpeakers, maxSpeakers int) ([]dub.Speaker, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("diarizer: open %s: %w", audioPath, err)
	}

	uploadURL, err := d.upload(ctx, data)
	if err != nil {
		return nil, err
	}

	transcriptID, err := d.submit(ctx, uploadURL, numSpeakers, minSpeakers, maxSpeakers)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.poll):
			speakers, status, err := d.getTranscript(ctx, transcriptID)
			if err != nil {
				return nil, err
			}
			if status == "completed" {
				return speakers, nil
			}
			if status == "error" {
				return nil, fmt.Errorf("assemblyai diarization failed")
			}
		}
	}
}

func (d *AssemblyAIDiarizer) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", assemblyAIUploadURL, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", d.apiKey)

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

func (d *AssemblyAIDiarizer) submit(ctx context.Context, uploadURL string, numSpeakers, minSpeakers, maxSpeakers int) (string, error) {
	payload := map[string]interface{}{
		"audio_url":      uploadURL,
		"speaker_labels": true,
	}
	if numSpeakers > 0 {
		payload["speakers_expected"] = numSpeakers
	}
	_ = minSpeakers // AssemblyAI has no separate min/max knobs; speakers_expected is its closest control.
	_ = maxSpeakers

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", assemblyAITranscriptURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", d.apiKey)
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

func (d *AssemblyAIDiarizer) getTranscript(ctx context.Context, id string) ([]dub.Speaker, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", assemblyAITranscriptURL+"/"+id, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", d.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var result struct {
		Status     string `json:"status"`
		Utterances []struct {
			Speaker string  `json:"speaker"`
			Start   float64 `json:"start"`
			End     float64 `json:"end"`
		} `json:"utterances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	bySpeaker := map[string]*dub.Speaker{}
	var order []string
	for _, u := range result.Utterances {
		sp, ok := bySpeaker[u.Speaker]
		if !ok {
			sp = &dub.Speaker{Label: u.Speaker}
			bySpeaker[u.Speaker] = sp
			order = append(order, u.Speaker)
		}
		seg := dub.Segment{Start: u.Start / 1000, End: u.End / 1000}
		sp.Segments = append(sp.Segments, seg)
		sp.TotalTime += seg.Duration()
	}

	speakers := make([]dub.Speaker, 0, len(order))
	for _, label := range order {
		speakers = append(speakers, *bySpeaker[label])
	}
	return speakers, result.Status, nil
}
