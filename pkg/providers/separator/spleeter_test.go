package separator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeSpleeterScript writes a tiny shell script that mimics spleeter's output
// layout (<outDir>/<name>/{vocals,accompaniment}.wav) without requiring
// the real binary or model weights to be present.
func fakeSpleeterScript(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}
	script := filepath.Join(dir, "fake-spleeter.sh")
	contents := `#!/bin/sh
set -e
outdir=""
input=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) outdir="$2"; shift 2 ;;
    -p) shift 2 ;;
    -c) shift 2 ;;
    separate) shift ;;
    *) input="$1"; shift ;;
  esac
done
name=$(basename "$input" | sed 's/\.[^.]*$//')
mkdir -p "$outdir/$name"
echo fake-vocals > "$outdir/$name/vocals.wav"
echo fake-accompaniment > "$outdir/$name/accompaniment.wav"
`
	if err := os.WriteFile(script, []byte(contents), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestSpleeterSeparatorReturnsStemPaths(t *testing.T) {
	dir := t.TempDir()
	script := fakeSpleeterScript(t, dir)

	audioPath := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(audioPath, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")
	s := &SpleeterSeparator{binary: script}

	vocals, accompaniment, err := s.Split(context.Background(), audioPath, outDir)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if _, err := os.Stat(vocals); err != nil {
		t.Errorf("vocals path missing: %v", err)
	}
	if _, err := os.Stat(accompaniment); err != nil {
		t.Errorf("accompaniment path missing: %v", err)
	}
}

func TestSpleeterSeparatorSkipsWhenStemsExist(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(audioPath, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")
	stemDir := filepath.Join(outDir, "input")
	if err := os.MkdirAll(stemDir, 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(stemDir, "vocals.wav"), []byte("v"), 0o644)
	os.WriteFile(filepath.Join(stemDir, "accompaniment.wav"), []byte("a"), 0o644)

	// A binary that cannot exist proves the subprocess is never launched.
	s := &SpleeterSeparator{binary: filepath.Join(dir, "no-such-spleeter")}
	vocals, accompaniment, err := s.Split(context.Background(), audioPath, outDir)
	if err != nil {
		t.Fatalf("Split should reuse existing stems: %v", err)
	}
	if vocals != filepath.Join(stemDir, "vocals.wav") || accompaniment != filepath.Join(stemDir, "accompaniment.wav") {
		t.Errorf("unexpected stem paths %q, %q", vocals, accompaniment)
	}
}
