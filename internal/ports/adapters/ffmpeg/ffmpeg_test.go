package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
)

func TestTrimArgs(t *testing.T) {
	args := trimArgs("in.mp4", 1500*time.Millisecond, types.Format{FPS: 30, Width: 1280, Height: 720}, "", "out.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i in.mp4 -t 1.500",
		"scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=30",
		"-an",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output must be last, got %v", args)
	}
	if strings.Contains(joined, "subtitles=") {
		t.Fatalf("unexpected subtitles filter: %s", joined)
	}
}

func TestTrimArgs_BurnsSubtitles(t *testing.T) {
	args := trimArgs("in.mp4", time.Second, types.Format{FPS: 24, Width: 640, Height: 360}, `C:\subs\001.ass`, "out.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, `,subtitles=C\:\\subs\\001.ass`) {
		t.Fatalf("expected escaped subtitles filter, got %s", joined)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration(" 12.345000\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Round(time.Millisecond) != 12345*time.Millisecond {
		t.Fatalf("unexpected duration %s", d)
	}
	for _, bad := range []string{"N/A", "", "-1"} {
		if _, err := parseDuration(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestProbeDuration_MissingBinary(t *testing.T) {
	a := New("", filepath.Join(t.TempDir(), "no-ffprobe"))
	_, err := a.ProbeDuration(context.Background(), "x.mp4")
	if !errors.Is(err, errs.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
