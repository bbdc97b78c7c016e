package fluidsynth

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/forPelevin/notecut/internal/errs"
)

const DefaultSampleRate = 44100

type Adapter struct {
	bin        string
	sampleRate int
}

func New(binPath string, sampleRate int) *Adapter {
	if binPath == "" {
		binPath = "fluidsynth"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Adapter{bin: binPath, sampleRate: sampleRate}
}

// Synthesize renders midiPath to wavPath with the given soundfont.
func (a *Adapter) Synthesize(ctx context.Context, midiPath, wavPath, soundFont string) error {
	if soundFont == "" {
		return errs.Input("soundfont path is required for synthesis")
	}
	cmd := exec.CommandContext(ctx, a.bin, a.args(midiPath, wavPath, soundFont)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Tool("fluidsynth", err, b)
	}
	return nil
}

func (a *Adapter) args(midiPath, wavPath, soundFont string) []string {
	return []string{
		"-ni",
		soundFont,
		midiPath,
		"-F", wavPath,
		"-r", strconv.Itoa(a.sampleRate),
	}
}
