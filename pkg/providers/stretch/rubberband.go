// Package stretch implements the time-stretch collaborator boundary
// (dub.Stretcher) by shelling out to rubberband.
package stretch

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

type RubberbandStretcher struct {
	binary string
}

func NewRubberbandStretcher() *RubberbandStretcher {
	return &RubberbandStretcher{binary: "rubberband"}
}

// Stretch implements dub.Stretcher. tempoFactor > 1 speeds the clip up
// (shortens it); < 1 slows it down.
func (r *RubberbandStretcher) Stretch(ctx context.Context, inPath, outPath string, tempoFactor float64) error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("%w: %s (install rubberband-cli)", dub.ErrMissingExternalTool, r.binary)
	}
	cmd := exec.CommandContext(ctx, r.binary,
		"--fine",
		"--formant",
		"--crisp", "6",
		"--tempo", fmt.Sprintf("%f", tempoFactor),
		inPath,
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rubberband: %w: %s", err, string(out))
	}
	return nil
}
