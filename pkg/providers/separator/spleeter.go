// Package separator implements the vocal/accompaniment separation
// collaborator boundary (dub.Separator) by shelling out to spleeter.
package separator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

type SpleeterSeparator struct {
	binary string
}

func NewSpleeterSeparator() *SpleeterSeparator {
	return &SpleeterSeparator{binary: "spleeter"}
}

// Split implements dub.Separator. It runs spleeter's 2-stem model into
// outDir and returns the resulting vocals/accompaniment WAV paths.
func (s *SpleeterSeparator) Split(ctx context.Context, audioPath, outDir string) (string, string, error) {
	name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	vocalsPath := filepath.Join(outDir, name, "vocals.wav")
	accompanimentPath := filepath.Join(outDir, name, "accompaniment.wav")

	// Separation is the slowest whole-media step; skip it when both stems
	// are already on disk from a previous run.
	if fileExists(vocalsPath) && fileExists(accompanimentPath) {
		return vocalsPath, accompanimentPath, nil
	}

	if _, err := exec.LookPath(s.binary); err != nil {
		return "", "", fmt.Errorf("%w: %s (pip install spleeter)", dub.ErrMissingExternalTool, s.binary)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("separator: mkdir %s: %w", outDir, err)
	}

	cmd := exec.CommandContext(ctx, s.binary,
		"separate",
		"-o", outDir,
		"-p", "spleeter:2stems",
		"-c", "wav",
		audioPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("spleeter: %w: %s", err, string(out))
	}

	if !fileExists(vocalsPath) {
		return "", "", fmt.Errorf("separator: missing vocals output at %s", vocalsPath)
	}
	if !fileExists(accompanimentPath) {
		return "", "", fmt.Errorf("separator: missing accompaniment output at %s", accompanimentPath)
	}
	return vocalsPath, accompanimentPath, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
