package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type Tools struct {
	FFmpeg     string `validate:"required"`
	FFprobe    string `validate:"required"`
	FluidSynth string `validate:"required"`
}

type CuesConfig struct {
	MIDIPath   string `validate:"required"`
	OutDir     string `validate:"required"`
	CacheDir   string
	Synthesize bool
	SoundFont  string `validate:"required_if=Synthesize true"`
	SampleRate int    `validate:"omitempty,gte=8000,lte=192000"`
	Overlap    string `validate:"omitempty,oneof=clamp-head trim-tail"`
	Comma      bool
	Tools      Tools
	Log        logrus.FieldLogger
}

func (c CuesConfig) Validate() error {
	if err := structErr(validate.Struct(c)); err != nil {
		return err
	}
	if err := statFile("midi", c.MIDIPath); err != nil {
		return err
	}
	if c.Synthesize {
		return statFile("soundfont", c.SoundFont)
	}
	return nil
}

type NormalizeConfig struct {
	CueFile string `validate:"required"`
	// Output defaults to <name>.normalized.srt next to CueFile.
	Output  string
	Overlap string `validate:"omitempty,oneof=clamp-head trim-tail"`
	Comma   bool
	Log     logrus.FieldLogger
}

func (c NormalizeConfig) Validate() error {
	if err := structErr(validate.Struct(c)); err != nil {
		return err
	}
	return statFile("cue file", c.CueFile)
}

type AssembleConfig struct {
	CueFile    string `validate:"required"`
	ClipsDir   string `validate:"required"`
	OutDir     string `validate:"required"`
	CacheDir   string
	Seed       *uint64
	FPS        int    `validate:"gt=0,lte=240"`
	Size       string `validate:"required"`
	BurnLabels bool
	// PlanOnly stops after plan.yaml and manifest.json are written.
	PlanOnly bool
	Overlap  string `validate:"omitempty,oneof=clamp-head trim-tail"`
	Tools    Tools
	Log      logrus.FieldLogger
}

func (c AssembleConfig) Validate() error {
	if err := structErr(validate.Struct(c)); err != nil {
		return err
	}
	if _, err := c.format(); err != nil {
		return err
	}
	if err := statFile("cue file", c.CueFile); err != nil {
		return err
	}
	st, err := os.Stat(c.ClipsDir)
	if err != nil {
		return errs.Input("stat clips dir: %v", err)
	}
	if !st.IsDir() {
		return errs.Input("clips dir %s is not a directory", c.ClipsDir)
	}
	return nil
}

func (c AssembleConfig) format() (types.Format, error) {
	w, h, err := parseSize(c.Size)
	if err != nil {
		return types.Format{}, err
	}
	return types.Format{FPS: c.FPS, Width: w, Height: h}, nil
}

type RenderConfig struct {
	PlanPath string `validate:"required"`
	// Output defaults to <cue file name>.mp4 next to the plan.
	Output   string
	CacheDir string
	Tools    Tools
	Log      logrus.FieldLogger
}

func (c RenderConfig) Validate() error {
	if err := structErr(validate.Struct(c)); err != nil {
		return err
	}
	return statFile("plan", c.PlanPath)
}

// parseSize reads WxH. Both sides must be even for yuv420p output.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, errs.Input("size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, errs.Input("size %q: bad width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, errs.Input("size %q: bad height", s)
	}
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return 0, 0, errs.Input("size %q: sides must be positive and even", s)
	}
	return w, h, nil
}

func overlapPolicy(s string) (timeline.OverlapPolicy, error) {
	p, err := timeline.ParseOverlapPolicy(s)
	if err != nil {
		return 0, errs.Input("%v", err)
	}
	return p, nil
}

func separator(comma bool) byte {
	if comma {
		return timeline.SepComma
	}
	return timeline.SepDot
}

func statFile(what, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return errs.Input("stat %s: %v", what, err)
	}
	if st.IsDir() {
		return errs.Input("%s %s is a directory", what, path)
	}
	return nil
}

func structErr(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs.Input("%v", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		m := fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			m = fmt.Sprintf("%s (%s)", m, fe.Param())
		}
		msgs = append(msgs, m)
	}
	return errs.Input("%s", strings.Join(msgs, "; "))
}
