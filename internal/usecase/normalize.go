package usecase

import (
	"context"

	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

type NormalizeInput struct {
	CueFile string
	OutFile string
	Overlap timeline.OverlapPolicy
	Sep     byte
	Log     logrus.FieldLogger
}

type NormalizeResult struct {
	Cues    []types.Cue
	Dropped []types.TimedEvent
	Skipped []types.SkippedBlock
}

// NormalizeCues rewrites an arbitrary cue file as a contiguous timeline.
func (u Usecase) NormalizeCues(ctx context.Context, in NormalizeInput) (NormalizeResult, error) {
	log := logger(in.Log)
	if err := ctx.Err(); err != nil {
		return NormalizeResult{}, err
	}
	parsed, err := readCueFile(in.CueFile, log)
	if err != nil {
		return NormalizeResult{}, err
	}
	norm := timeline.Normalize(timeline.FromCues(parsed.Cues), in.Overlap)
	logDropped(log, norm.Dropped)
	if len(norm.Cues) == 0 {
		return NormalizeResult{}, errs.Input("%s: every cue was dropped", in.CueFile)
	}

	if err := writeCueFile(in.OutFile, norm.Cues, in.Sep); err != nil {
		return NormalizeResult{}, err
	}
	log.WithField("file", in.OutFile).Infof("normalized %d cues (%d skipped, %d dropped)", len(norm.Cues), len(parsed.Skipped), len(norm.Dropped))
	return NormalizeResult{Cues: norm.Cues, Dropped: norm.Dropped, Skipped: parsed.Skipped}, nil
}
