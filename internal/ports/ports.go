package ports

import (
	"context"
	"time"

	"github.com/forPelevin/notecut/internal/types"
)

type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

type VideoTool interface {
	DurationProber
	// TrimSegment encodes [0, dur] of src at the given format, optionally burning an ASS file.
	TrimSegment(ctx context.Context, src string, dur time.Duration, f types.Format, burnASS, out string) error
	// Concat joins the files listed in a concat demuxer list into out.
	Concat(ctx context.Context, listFile, out string) error
}

type NoteExtractor interface {
	Extract(ctx context.Context, midiPath string) ([]types.TimedEvent, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, midiPath, wavPath, soundFont string) error
}

type WaveProber interface {
	WaveDuration(wavPath string) (time.Duration, error)
}
