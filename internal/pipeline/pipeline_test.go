package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/sirupsen/logrus/hooks/test"
)

var testTools = Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe", FluidSynth: "fluidsynth"}

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-video-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-video-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{in: "1280x720", w: 1280, h: 720},
		{in: " 640X360 ", w: 640, h: 360},
		{in: "1280", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "641x360", wantErr: true},
		{in: "0x0", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			w, h, err := parseSize(tc.in)
			if tc.wantErr {
				if !errors.Is(err, errs.ErrInputValidation) {
					t.Fatalf("expected input validation error, got %v", err)
				}
				return
			}
			if err != nil || w != tc.w || h != tc.h {
				t.Fatalf("parseSize(%q) = %d, %d, %v", tc.in, w, h, err)
			}
		})
	}
}

func TestAssembleConfigValidate(t *testing.T) {
	tmp := t.TempDir()
	cues := filepath.Join(tmp, "cues.srt")
	if err := os.WriteFile(cues, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	valid := AssembleConfig{
		CueFile:  cues,
		ClipsDir: tmp,
		OutDir:   filepath.Join(tmp, "out"),
		FPS:      30,
		Size:     "1280x720",
		Tools:    testTools,
	}

	cases := []struct {
		name   string
		mutate func(*AssembleConfig)
		ok     bool
	}{
		{name: "valid", mutate: func(*AssembleConfig) {}, ok: true},
		{name: "missing cue file", mutate: func(c *AssembleConfig) { c.CueFile = filepath.Join(tmp, "nope.srt") }},
		{name: "clips dir is a file", mutate: func(c *AssembleConfig) { c.ClipsDir = cues }},
		{name: "zero fps", mutate: func(c *AssembleConfig) { c.FPS = 0 }},
		{name: "bad size", mutate: func(c *AssembleConfig) { c.Size = "big" }},
		{name: "bad overlap", mutate: func(c *AssembleConfig) { c.Overlap = "merge" }},
		{name: "no ffmpeg", mutate: func(c *AssembleConfig) { c.Tools.FFmpeg = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, errs.ErrInputValidation) {
				t.Fatalf("expected input validation error, got %v", err)
			}
		})
	}
}

func TestCuesConfigValidate_SoundFontRequired(t *testing.T) {
	tmp := t.TempDir()
	midi := filepath.Join(tmp, "song.mid")
	if err := os.WriteFile(midi, []byte("MThd"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := CuesConfig{MIDIPath: midi, OutDir: tmp, Synthesize: true, SampleRate: 44100, Tools: testTools}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SoundFont") {
		t.Fatalf("expected soundfont error, got %v", err)
	}
	cfg.Synthesize = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error without synthesis: %v", err)
	}
}

func TestPercentLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	report := percentLogger(log, "rendering")
	for i := 1; i <= 300; i++ {
		report(i, 300)
	}
	if got := len(hook.AllEntries()); got != 101 {
		t.Fatalf("expected 101 progress lines, got %d", got)
	}
	if last := hook.LastEntry().Message; last != "rendering: 300/300 (100%)" {
		t.Fatalf("unexpected last line %q", last)
	}
}
