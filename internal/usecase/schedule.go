package usecase

import (
	"context"

	"github.com/forPelevin/notecut/internal/domain/pool"
	"github.com/forPelevin/notecut/internal/domain/schedule"
	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

type ScheduleInput struct {
	CueFile  string
	ClipsDir string
	Overlap  timeline.OverlapPolicy
	// Rand overrides Seed; with neither the scheduler seeds itself from the OS.
	Rand     schedule.Rand
	Seed     *uint64
	Progress func(current, total int)
	Log      logrus.FieldLogger
}

type ScheduleResult struct {
	Cues     []types.Cue
	Segments []types.AssignedSegment
	Dropped  []types.TimedEvent
	Skipped  []types.SkippedBlock
	PoolSize int
	Unused   int
}

// Schedule reads a cue file, indexes the clip directory and assigns one clip per cue.
// Cues are normalized first so that segment boundaries line up with the timeline.
func (u Usecase) Schedule(ctx context.Context, in ScheduleInput) (ScheduleResult, error) {
	log := logger(in.Log)

	parsed, err := readCueFile(in.CueFile, log)
	if err != nil {
		return ScheduleResult{}, err
	}
	norm := timeline.Normalize(timeline.FromCues(parsed.Cues), in.Overlap)
	logDropped(log, norm.Dropped)
	if len(norm.Cues) == 0 {
		return ScheduleResult{}, errs.Input("%s: every cue was dropped", in.CueFile)
	}
	if err := timeline.Validate(norm.Cues); err != nil {
		return ScheduleResult{}, err
	}

	p, err := pool.Index(ctx, in.ClipsDir, u.d.Video)
	if err != nil {
		return ScheduleResult{}, err
	}
	log.Infof("indexed %d clips in %d groups", p.Len(), len(p.Keys()))
	for _, k := range p.Keys() {
		if g := p.Group(k); len(g) > 0 {
			log.WithFields(logrus.Fields{"group": k, "clips": len(g)}).Debugf("longest clip %s", g[0].Duration)
		}
	}

	opts := []schedule.Option{schedule.WithLogger(log)}
	switch {
	case in.Rand != nil:
		opts = append(opts, schedule.WithRand(in.Rand))
	case in.Seed != nil:
		opts = append(opts, schedule.WithSeed(*in.Seed))
	}
	s, err := schedule.New(p, opts...)
	if err != nil {
		return ScheduleResult{}, err
	}
	segs, err := s.Assign(norm.Cues, in.Progress)
	if err != nil {
		return ScheduleResult{}, err
	}

	return ScheduleResult{
		Cues:     norm.Cues,
		Segments: segs,
		Dropped:  norm.Dropped,
		Skipped:  parsed.Skipped,
		PoolSize: p.Len(),
		Unused:   p.Available(),
	}, nil
}
