package usecase

import (
	"context"
	"time"

	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

type CuesInput struct {
	MIDIPath string
	CueFile  string
	// WavPath receives the synthesized song when Synthesize is set.
	WavPath    string
	SoundFont  string
	Synthesize bool
	Overlap    timeline.OverlapPolicy
	Sep        byte
	Log        logrus.FieldLogger
}

type CuesResult struct {
	Cues          []types.Cue
	Dropped       []types.TimedEvent
	AudioDuration time.Duration
}

// GenerateCues turns the notes of a MIDI file into a contiguous cue file.
func (u Usecase) GenerateCues(ctx context.Context, in CuesInput) (CuesResult, error) {
	log := logger(in.Log)
	var res CuesResult

	if in.Synthesize {
		if err := u.d.Synth.Synthesize(ctx, in.MIDIPath, in.WavPath, in.SoundFont); err != nil {
			return CuesResult{}, err
		}
		d, err := u.d.Wave.WaveDuration(in.WavPath)
		if err != nil {
			return CuesResult{}, err
		}
		res.AudioDuration = d
		log.WithField("wav", in.WavPath).Infof("synthesized %s of audio", d)
	}

	events, err := u.d.Notes.Extract(ctx, in.MIDIPath)
	if err != nil {
		return CuesResult{}, err
	}
	if len(events) == 0 {
		return CuesResult{}, errs.Input("%s has no notes", in.MIDIPath)
	}
	log.Infof("extracted %d notes", len(events))

	norm := timeline.Normalize(events, in.Overlap)
	logDropped(log, norm.Dropped)
	if len(norm.Cues) == 0 {
		return CuesResult{}, errs.Input("%s: every note was dropped", in.MIDIPath)
	}
	res.Cues, res.Dropped = norm.Cues, norm.Dropped

	if last := res.Cues[len(res.Cues)-1]; res.AudioDuration > 0 && last.End > res.AudioDuration {
		log.Warnf("last cue ends at %s, after the synthesized audio (%s)", last.End, res.AudioDuration)
	}

	if err := writeCueFile(in.CueFile, res.Cues, in.Sep); err != nil {
		return CuesResult{}, err
	}
	log.WithField("file", in.CueFile).Infof("wrote %d cues", len(res.Cues))
	return res, nil
}
