package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/notecut/internal/domain/subtitles"
	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/ports"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/sirupsen/logrus"
)

type Job struct {
	Segments []types.AssignedSegment
	// Labels, when set, are burned onto their segment. Same length as Segments.
	Labels  []string
	Format  types.Format
	Output  string
	WorkDir string
}

type Renderer struct {
	video ports.VideoTool
	log   logrus.FieldLogger
}

func New(video ports.VideoTool, log logrus.FieldLogger) *Renderer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Renderer{video: video, log: log}
}

// Render trims every segment into the work dir, then concatenates them into
// job.Output. progress is called once per segment placed. Intermediate files are kept
// in the work dir whether or not the render succeeds.
func (r *Renderer) Render(ctx context.Context, job Job, progress func(current, total int)) error {
	if len(job.Segments) == 0 {
		return errs.Input("nothing to render")
	}
	if len(job.Labels) != 0 && len(job.Labels) != len(job.Segments) {
		return errs.Input("%d labels for %d segments", len(job.Labels), len(job.Segments))
	}
	segDir := filepath.Join(job.WorkDir, "segments")
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return err
	}

	var list strings.Builder
	total := len(job.Segments)
	for i, seg := range job.Segments {
		id := fmt.Sprintf("%04d", i+1)
		out := filepath.Join(segDir, id+".mp4")

		burn := ""
		if len(job.Labels) > 0 {
			burn = filepath.Join(segDir, id+".ass")
			ass := subtitles.RenderLabelASS(job.Labels[i], seg.Duration(), job.Format.Width, job.Format.Height)
			if err := os.WriteFile(burn, []byte(ass), 0o644); err != nil {
				return err
			}
		}

		if err := r.video.TrimSegment(ctx, seg.SourcePath, seg.Duration(), job.Format, burn, out); err != nil {
			return fmt.Errorf("segment %d (cue %d): %w", i+1, seg.CueIndex, err)
		}
		abs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		list.WriteString(concatLine(abs))
		r.log.WithFields(logrus.Fields{"cue": seg.CueIndex, "clip": seg.SourcePath}).Debugf("segment %s placed", id)
		if progress != nil {
			progress(i+1, total)
		}
	}

	listPath := filepath.Join(job.WorkDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return err
	}
	if err := r.video.Concat(ctx, listPath, job.Output); err != nil {
		return err
	}
	r.log.WithField("output", job.Output).Infof("rendered %d segments", total)
	return nil
}

// concatLine renders one entry of an ffmpeg concat demuxer list.
func concatLine(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'\n"
}
