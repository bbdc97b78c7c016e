//go:build integration

package itest

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/notecut/internal/pipeline"
	"github.com/forPelevin/notecut/internal/ports/adapters/ffmpeg"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var tools = pipeline.Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe", FluidSynth: "fluidsynth"}

func TestE2E_Assemble(t *testing.T) {
	tmp := t.TempDir()
	clips := filepath.Join(tmp, "clips")
	if err := os.MkdirAll(clips, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, sec := range map[string]string{"cat_1.mp4": "2", "cat_2.mp4": "3", "dog_1.mp4": "4"} {
		ff := exec.Command("ffmpeg",
			"-y",
			"-f", "lavfi",
			"-i", "testsrc=s=320x240:d="+sec,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			filepath.Join(clips, name),
		)
		if b, err := ff.CombinedOutput(); err != nil {
			t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
		}
	}

	cues := filepath.Join(tmp, "song.srt")
	body := strings.Join([]string{
		"1", "00:00:00.000 --> 00:00:01.000", "C4", "",
		"2", "00:00:01.000 --> 00:00:02.500", "E4", "",
		"3", "00:00:02.500 --> 00:00:03.000", "G4", "",
	}, "\n")
	if err := os.WriteFile(cues, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	seed := uint64(1)
	res, err := pipeline.RunAssemble(ctx, pipeline.AssembleConfig{
		CueFile:    cues,
		ClipsDir:   clips,
		OutDir:     filepath.Join(tmp, "out"),
		CacheDir:   filepath.Join(tmp, ".cache"),
		Seed:       &seed,
		FPS:        30,
		Size:       "640x360",
		BurnLabels: true,
		Tools:      tools,
	})
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if _, err := os.Stat(res.Manifest); err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
	probe := ffmpeg.New(tools.FFmpeg, tools.FFprobe)
	got, err := probe.ProbeDuration(ctx, res.Output)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if math.Abs(got.Seconds()-3.0) > 0.2 {
		t.Fatalf("expected ~3s of video, got %s", got)
	}

	replay := filepath.Join(tmp, "replay.mp4")
	if _, err := pipeline.RunRender(ctx, pipeline.RenderConfig{
		PlanPath: res.PlanFile,
		Output:   replay,
		CacheDir: filepath.Join(tmp, ".cache"),
		Tools:    tools,
	}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got, err := probe.ProbeDuration(ctx, replay); err != nil || math.Abs(got.Seconds()-3.0) > 0.2 {
		t.Fatalf("replayed render: %s, %v", got, err)
	}
}

func TestE2E_Cues(t *testing.T) {
	tmp := t.TempDir()
	midiPath := filepath.Join(tmp, "scale.mid")

	var tr smf.Track
	for _, key := range []uint8{60, 62, 64, 65} {
		tr.Add(0, midi.NoteOn(0, key, 100))
		tr.Add(960, midi.NoteOff(0, key))
	}
	tr.Close(0)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(midiPath); err != nil {
		t.Fatal(err)
	}

	soundFont := os.Getenv("NOTECUT_SOUNDFONT")
	res, err := pipeline.RunCues(context.Background(), pipeline.CuesConfig{
		MIDIPath:   midiPath,
		OutDir:     filepath.Join(tmp, "out"),
		CacheDir:   filepath.Join(tmp, ".cache"),
		Synthesize: soundFont != "",
		SoundFont:  soundFont,
		SampleRate: 44100,
		Tools:      tools,
	})
	if err != nil {
		t.Fatalf("cues failed: %v", err)
	}
	b, err := os.ReadFile(res.CueFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "4\n00:00:01.500 --> 00:00:02.000\nF4\n") {
		t.Fatalf("unexpected cue file:\n%s", b)
	}
}
