package plan

import (
	"fmt"
	"os"

	"github.com/forPelevin/notecut/internal/domain/timeline"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
	"gopkg.in/yaml.v3"
)

const Version = 1

// Plan is the persisted result of scheduling: what to cut from where, in timeline order.
type Plan struct {
	Version    int          `yaml:"version"`
	CueFile    string       `yaml:"cue_file"`
	ClipsDir   string       `yaml:"clips_dir"`
	Seed       *uint64      `yaml:"seed,omitempty"`
	Format     types.Format `yaml:"format"`
	BurnLabels bool         `yaml:"burn_labels"`
	Segments   []Segment    `yaml:"segments"`
}

// Segment times are HH:MM:SS.mmm strings so plans stay readable and editable.
type Segment struct {
	Cue    int    `yaml:"cue"`
	Label  string `yaml:"label,omitempty"`
	At     string `yaml:"at"`
	Source string `yaml:"source"`
	Group  string `yaml:"group"`
	Trim   string `yaml:"trim"`
}

func FromAssignment(cues []types.Cue, segs []types.AssignedSegment) ([]Segment, error) {
	if len(cues) != len(segs) {
		return nil, fmt.Errorf("%d cues but %d segments", len(cues), len(segs))
	}
	out := make([]Segment, 0, len(segs))
	for i, s := range segs {
		out = append(out, Segment{
			Cue:    s.CueIndex,
			Label:  cues[i].Label,
			At:     timeline.FormatTimestamp(cues[i].Start, timeline.SepDot),
			Source: s.SourcePath,
			Group:  s.Group,
			Trim:   timeline.FormatTimestamp(s.Duration(), timeline.SepDot),
		})
	}
	return out, nil
}

// Assignment converts the plan back into segments and their labels.
func (p Plan) Assignment() ([]types.AssignedSegment, []string, error) {
	segs := make([]types.AssignedSegment, 0, len(p.Segments))
	labels := make([]string, 0, len(p.Segments))
	for i, s := range p.Segments {
		trim, err := timeline.ParseTimestamp(s.Trim)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: segment %d: %v", errs.ErrParse, i+1, err)
		}
		if trim <= 0 {
			return nil, nil, fmt.Errorf("%w: segment %d: empty trim", errs.ErrParse, i+1)
		}
		if s.Source == "" {
			return nil, nil, fmt.Errorf("%w: segment %d: source is empty", errs.ErrParse, i+1)
		}
		segs = append(segs, types.AssignedSegment{
			CueIndex:   s.Cue,
			SourcePath: s.Source,
			Group:      s.Group,
			TrimStart:  0,
			TrimEnd:    trim,
		})
		labels = append(labels, s.Label)
	}
	return segs, labels, nil
}

func Write(path string, p Plan) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func Read(path string) (Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errs.Input("plan: %v", err)
	}
	var p Plan
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Plan{}, fmt.Errorf("%w: plan %s: %v", errs.ErrParse, path, err)
	}
	if p.Version != Version {
		return Plan{}, fmt.Errorf("%w: plan %s: unsupported version %d", errs.ErrParse, path, p.Version)
	}
	return p, nil
}
