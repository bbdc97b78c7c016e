package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) TrimSegment(ctx context.Context, src string, dur time.Duration, f types.Format, burnASS, out string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, trimArgs(src, dur, f, burnASS, out)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Tool("ffmpeg trim segment", err, b)
	}
	return nil
}

func trimArgs(src string, dur time.Duration, f types.Format, burnASS, out string) []string {
	// Every segment is brought to the same geometry and rate so the concat demuxer can
	// join them without re-encoding.
	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", f.Width, f.Height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", f.Width, f.Height),
		"setsar=1",
		fmt.Sprintf("fps=%d", f.FPS),
	}
	if burnASS != "" {
		filters = append(filters, "subtitles="+escapeFilterPath(burnASS))
	}
	return []string{
		"-y",
		"-ss", "0",
		"-i", src,
		"-t", fmtSeconds(dur),
		"-vf", strings.Join(filters, ","),
		"-an",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		out,
	}
}

func (a *Adapter) Concat(ctx context.Context, listFile, out string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Tool("ffmpeg concat", err, b)
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errs.Tool("ffprobe duration", err, b)
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if sec < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
