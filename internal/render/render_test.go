package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
)

type fakeVideoTool struct {
	trims     []time.Duration
	burns     []string
	concatIn  string
	concatOut string
	failAt    int
}

func (f *fakeVideoTool) ProbeDuration(context.Context, string) (time.Duration, error) {
	return 0, nil
}

func (f *fakeVideoTool) TrimSegment(_ context.Context, _ string, dur time.Duration, _ types.Format, burnASS, out string) error {
	if f.failAt > 0 && len(f.trims)+1 == f.failAt {
		return errs.Tool("ffmpeg trim segment", errors.New("exit status 1"), nil)
	}
	f.trims = append(f.trims, dur)
	f.burns = append(f.burns, burnASS)
	return os.WriteFile(out, []byte("x"), 0o644)
}

func (f *fakeVideoTool) Concat(_ context.Context, listFile, out string) error {
	b, err := os.ReadFile(listFile)
	if err != nil {
		return err
	}
	f.concatIn, f.concatOut = string(b), out
	return nil
}

func testJob(tmp string) Job {
	return Job{
		Segments: []types.AssignedSegment{
			{CueIndex: 1, SourcePath: "a_1.mp4", TrimEnd: time.Second},
			{CueIndex: 2, SourcePath: "b_1.mp4", TrimEnd: 2 * time.Second},
		},
		Format:  types.Format{FPS: 30, Width: 1280, Height: 720},
		Output:  filepath.Join(tmp, "out", "final.mp4"),
		WorkDir: filepath.Join(tmp, "work"),
	}
}

func TestRender_TrimsInOrderAndConcats(t *testing.T) {
	tmp := t.TempDir()
	video := &fakeVideoTool{}
	var calls [][2]int
	err := New(video, nil).Render(context.Background(), testJob(tmp), func(cur, total int) {
		calls = append(calls, [2]int{cur, total})
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(video.trims) != 2 || video.trims[0] != time.Second || video.trims[1] != 2*time.Second {
		t.Fatalf("unexpected trims: %v", video.trims)
	}
	if len(calls) != 2 || calls[0] != [2]int{1, 2} || calls[1] != [2]int{2, 2} {
		t.Fatalf("unexpected progress: %v", calls)
	}
	lines := strings.Split(strings.TrimSpace(video.concatIn), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "0001.mp4'") || !strings.HasSuffix(lines[1], "0002.mp4'") {
		t.Fatalf("unexpected concat list:\n%s", video.concatIn)
	}
	if video.concatOut != filepath.Join(tmp, "out", "final.mp4") {
		t.Fatalf("unexpected output: %s", video.concatOut)
	}
	for _, b := range video.burns {
		if b != "" {
			t.Fatalf("expected no burn-in without labels, got %q", b)
		}
	}
}

func TestRender_BurnsLabels(t *testing.T) {
	tmp := t.TempDir()
	job := testJob(tmp)
	job.Labels = []string{"C4", "D4"}
	video := &fakeVideoTool{}
	if err := New(video, nil).Render(context.Background(), job, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := os.ReadFile(video.burns[1])
	if err != nil {
		t.Fatalf("read ass: %v", err)
	}
	if !strings.Contains(string(b), ",Label,,0,0,0,,D4") {
		t.Fatalf("expected label D4 in ass:\n%s", b)
	}
}

func TestRender_FailureKeepsWorkDir(t *testing.T) {
	tmp := t.TempDir()
	video := &fakeVideoTool{failAt: 2}
	err := New(video, nil).Render(context.Background(), testJob(tmp), nil)
	if !errors.Is(err, errs.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "work", "segments", "0001.mp4")); statErr != nil {
		t.Fatalf("expected first segment to remain: %v", statErr)
	}
	if video.concatOut != "" {
		t.Fatalf("concat must not run after a failed segment")
	}
}

func TestRender_Validation(t *testing.T) {
	tmp := t.TempDir()
	r := New(&fakeVideoTool{}, nil)
	if err := r.Render(context.Background(), Job{WorkDir: tmp}, nil); !errors.Is(err, errs.ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation for empty job, got %v", err)
	}
	job := testJob(tmp)
	job.Labels = []string{"only one"}
	if err := r.Render(context.Background(), job, nil); !errors.Is(err, errs.ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation for label mismatch, got %v", err)
	}
}

func TestConcatLine_QuotesPath(t *testing.T) {
	if got := concatLine("/tmp/it's.mp4"); got != `file '/tmp/it'\''s.mp4'`+"\n" {
		t.Fatalf("unexpected concat line: %q", got)
	}
}
