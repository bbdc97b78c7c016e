package wavprobe

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) WaveDuration(wavPath string) (time.Duration, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s: not a valid wav file", wavPath)
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration %s: %w", wavPath, err)
	}
	return dur, nil
}
