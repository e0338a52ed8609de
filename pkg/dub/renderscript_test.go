package dub

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderScriptRoundTrip(t *testing.T) {
	fragments := []Fragment{
		{Text: "Hello there.", Start: 0.0, End: 1.2, SpeakerIndex: 0, ParentSentenceText: "Hello there."},
		{Text: "General Kenobi.", Start: 1.3, End: 2.5, SpeakerIndex: 1, ParentSentenceText: "General Kenobi."},
	}
	meta := RenderScriptMetadata{
		InputVideoPath: "in.mp4",
		Duration:       2.5,
		TargetLanguage: "es",
		Voices:         []string{"v1", "v2"},
		Engines:        []string{"coqui", "coqui"},
		OutputPath:     "out.mp4",
	}
	rs := NewRenderScript(meta, fragments)

	path := filepath.Join(t.TempDir(), "script.json")
	if err := WriteRenderScript(path, rs); err != nil {
		t.Fatalf("WriteRenderScript: %v", err)
	}

	loaded, err := ReadRenderScript(path)
	if err != nil {
		t.Fatalf("ReadRenderScript: %v", err)
	}

	got := loaded.Fragments()
	if len(got) != len(fragments) {
		t.Fatalf("got %d fragments, want %d", len(got), len(fragments))
	}
	for i := range fragments {
		if got[i] != fragments[i] {
			t.Errorf("fragment %d = %+v, want %+v", i, got[i], fragments[i])
		}
	}
	if loaded.Metadata.TargetLanguage != "es" || loaded.Metadata.OutputPath != "out.mp4" {
		t.Errorf("metadata round-trip mismatch: %+v", loaded.Metadata)
	}
}

func TestRenderScriptPreservesUnknownKeys(t *testing.T) {
	raw := `{
		"metadata": {
			"input_video_path": "in.mp4",
			"duration": 1.0,
			"target_language": "",
			"voices": [],
			"engines": [],
			"clean_audio": false,
			"output_path": "out.mp4",
			"notes": "hand-edited"
		},
		"sentences": [
			{"text": "hi", "start": 0, "end": 1, "speaker_index": 0, "reviewed": true}
		]
	}`
	path := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rs, err := ReadRenderScript(path)
	if err != nil {
		t.Fatalf("ReadRenderScript: %v", err)
	}
	if string(rs.Metadata.Extra["notes"]) != `"hand-edited"` {
		t.Errorf("metadata extra = %v", rs.Metadata.Extra)
	}
	if string(rs.Sentences[0].Extra["reviewed"]) != "true" {
		t.Errorf("fragment extra = %v", rs.Sentences[0].Extra)
	}

	roundTripPath := filepath.Join(t.TempDir(), "script2.json")
	if err := WriteRenderScript(roundTripPath, rs); err != nil {
		t.Fatalf("WriteRenderScript: %v", err)
	}
	reloaded, err := ReadRenderScript(roundTripPath)
	if err != nil {
		t.Fatalf("ReadRenderScript: %v", err)
	}
	if string(reloaded.Metadata.Extra["notes"]) != `"hand-edited"` {
		t.Errorf("notes did not survive round trip: %v", reloaded.Metadata.Extra)
	}
}
