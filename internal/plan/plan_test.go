package plan

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/types"
)

func TestWriteRead(t *testing.T) {
	cues := []types.Cue{
		{Index: 1, Start: 500 * time.Millisecond, End: 2 * time.Second, Label: "C4"},
		{Index: 2, Start: 2 * time.Second, End: 3250 * time.Millisecond, Label: "E4"},
	}
	segs := []types.AssignedSegment{
		{CueIndex: 1, SourcePath: "/clips/a_1.mp4", Group: "a", TrimEnd: 1500 * time.Millisecond},
		{CueIndex: 2, SourcePath: "/clips/b_1.mp4", Group: "b", TrimEnd: 1250 * time.Millisecond},
	}
	entries, err := FromAssignment(cues, segs)
	if err != nil {
		t.Fatalf("from assignment: %v", err)
	}
	seed := uint64(7)
	p := Plan{
		Version:  Version,
		CueFile:  "song.srt",
		ClipsDir: "/clips",
		Seed:     &seed,
		Format:   types.Format{FPS: 30, Width: 1280, Height: 720},
		Segments: entries,
	}
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := Write(path, p); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(b), "00:00:01.500") || !strings.Contains(string(b), "00:00:02.000") {
		t.Fatalf("expected readable timestamps, got:\n%s", b)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("plan mismatch:\n got %+v\nwant %+v", got, p)
	}
	back, labels, err := got.Assignment()
	if err != nil {
		t.Fatalf("assignment: %v", err)
	}
	if !reflect.DeepEqual(back, segs) {
		t.Fatalf("segments mismatch:\n got %v\nwant %v", back, segs)
	}
	if !reflect.DeepEqual(labels, []string{"C4", "E4"}) {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestFromAssignment_LengthMismatch(t *testing.T) {
	if _, err := FromAssignment([]types.Cue{{Index: 1}}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.yaml")); !errors.Is(err, errs.ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation, got %v", err)
	}
	cases := map[string]string{
		"garbage.yaml": "version: [",
		"version.yaml": "version: 9\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, err := Read(path); !errors.Is(err, errs.ErrParse) {
			t.Fatalf("%s: expected ErrParse, got %v", name, err)
		}
	}
}

func TestAssignment_BadTrim(t *testing.T) {
	p := Plan{Version: Version, Segments: []Segment{{Cue: 1, Source: "a.mp4", Trim: "soon"}}}
	if _, _, err := p.Assignment(); !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
