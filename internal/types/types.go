package types

import "time"

// TimedEvent is a raw labelled interval, e.g. one MIDI note.
type TimedEvent struct {
	Label string
	Start time.Duration
	End   time.Duration
}

// Cue is one entry of a normalized timeline. Index is 1-based.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Label string
}

func (c Cue) Duration() time.Duration { return c.End - c.Start }

type ClipDescriptor struct {
	Path     string
	Duration time.Duration
}

// AssignedSegment is the part [TrimStart, TrimEnd] of SourcePath placed for one cue.
type AssignedSegment struct {
	CueIndex   int
	SourcePath string
	Group      string
	TrimStart  time.Duration
	TrimEnd    time.Duration
}

func (s AssignedSegment) Duration() time.Duration { return s.TrimEnd - s.TrimStart }

type Manifest struct {
	Input         string            `json:"input"`
	Output        string            `json:"output,omitempty"`
	CueFile       string            `json:"cue_file,omitempty"`
	Cues          int               `json:"cues"`
	Dropped       []DroppedEvent    `json:"dropped,omitempty"`
	Skipped       []SkippedBlock    `json:"skipped,omitempty"`
	AudioDuration float64           `json:"audio_duration_sec,omitempty"`
	Seed          *uint64           `json:"seed,omitempty"`
	Segments      []ManifestSegment `json:"segments,omitempty"`
}

type DroppedEvent struct {
	Label    string  `json:"label"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// SkippedBlock records a cue file block that did not match the grammar.
type SkippedBlock struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ManifestSegment struct {
	Cue      int     `json:"cue"`
	Source   string  `json:"source"`
	Group    string  `json:"group"`
	TrimSec  float64 `json:"trim_sec"`
	ClipFile string  `json:"clip_file,omitempty"`
}

// Format is the frame geometry and rate of a rendered timeline.
type Format struct {
	FPS    int `yaml:"fps" json:"fps"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}
