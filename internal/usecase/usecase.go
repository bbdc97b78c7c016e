package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forPelevin/notecut/internal/config"
	"github.com/forPelevin/notecut/internal/domain/subtitles"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/ports"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Video ports.VideoTool
	Notes ports.NoteExtractor
	Synth ports.Synthesizer
	Wave  ports.WaveProber
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return config.Discard()
	}
	return l
}

// readCueFile parses path and logs every skipped block. A file without a single
// valid block is a parse error.
func readCueFile(path string, log logrus.FieldLogger) (subtitles.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return subtitles.ParseResult{}, errs.Input("cue file: %v", err)
	}
	defer f.Close()

	res, err := subtitles.ParseSRT(f)
	if err != nil {
		return subtitles.ParseResult{}, err
	}
	for _, sb := range res.Skipped {
		log.WithField("line", sb.Line).Warnf("skipped cue block: %s", sb.Reason)
	}
	if len(res.Cues) == 0 {
		return res, fmt.Errorf("%w: %s: no valid cue blocks (%d skipped)", errs.ErrParse, path, len(res.Skipped))
	}
	return res, nil
}

func writeCueFile(path string, cues []types.Cue, sep byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := subtitles.WriteCues(f, cues, sep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func logDropped(log logrus.FieldLogger, dropped []types.TimedEvent) {
	for _, ev := range dropped {
		log.WithFields(logrus.Fields{
			"label": ev.Label,
			"start": ev.Start,
			"end":   ev.End,
		}).Warn("dropped event without positive duration after overlap resolution")
	}
}
