package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/notecut/internal/config"
	"github.com/forPelevin/notecut/internal/plan"
	"github.com/forPelevin/notecut/internal/ports"
	"github.com/forPelevin/notecut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/notecut/internal/ports/adapters/fluidsynth"
	"github.com/forPelevin/notecut/internal/ports/adapters/smf"
	"github.com/forPelevin/notecut/internal/ports/adapters/wavprobe"
	"github.com/forPelevin/notecut/internal/render"
	"github.com/forPelevin/notecut/internal/types"
	"github.com/forPelevin/notecut/internal/usecase"
	"github.com/forPelevin/notecut/internal/worker"
	"github.com/sirupsen/logrus"
)

// Result names the artifacts a run produced. Empty fields were not written.
type Result struct {
	RunDir   string
	CueFile  string
	PlanFile string
	Manifest string
	Output   string
}

func newDeps(t Tools, sampleRate int) usecase.Deps {
	return usecase.Deps{
		Video: ffmpeg.New(t.FFmpeg, t.FFprobe),
		Notes: smf.New(),
		Synth: fluidsynth.New(t.FluidSynth, sampleRate),
		Wave:  wavprobe.New(),
	}
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return config.Discard()
	}
	return l
}

// RunCues writes <out>/<midi name>.srt and its manifest.
func RunCues(ctx context.Context, cfg CuesConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return runCues(ctx, cfg, newDeps(cfg.Tools, cfg.SampleRate))
}

func runCues(ctx context.Context, cfg CuesConfig, deps usecase.Deps) (Result, error) {
	log := logger(cfg.Log)
	policy, err := overlapPolicy(cfg.Overlap)
	if err != nil {
		return Result{}, err
	}

	cacheDir := runCacheDir(cfg.CacheDir, cfg.MIDIPath)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Result{}, err
	}
	log.Debugf("cache: %s", cacheDir)

	name := baseName(cfg.MIDIPath)
	cueFile := filepath.Join(cfg.OutDir, name+".srt")
	res, err := usecase.New(deps).GenerateCues(ctx, usecase.CuesInput{
		MIDIPath:   cfg.MIDIPath,
		CueFile:    cueFile,
		WavPath:    filepath.Join(cacheDir, name+".wav"),
		SoundFont:  cfg.SoundFont,
		Synthesize: cfg.Synthesize,
		Overlap:    policy,
		Sep:        separator(cfg.Comma),
		Log:        log,
	})
	if err != nil {
		return Result{}, err
	}

	m := types.Manifest{
		Input:         cfg.MIDIPath,
		CueFile:       cueFile,
		Cues:          len(res.Cues),
		Dropped:       droppedEvents(res.Dropped),
		AudioDuration: res.AudioDuration.Seconds(),
	}
	manifestPath := filepath.Join(cfg.OutDir, name+".manifest.json")
	if err := writeManifest(manifestPath, m); err != nil {
		return Result{}, err
	}
	log.Infof("manifest written: %s", manifestPath)
	return Result{RunDir: cfg.OutDir, CueFile: cueFile, Manifest: manifestPath}, nil
}

func RunNormalize(ctx context.Context, cfg NormalizeConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	log := logger(cfg.Log)
	policy, err := overlapPolicy(cfg.Overlap)
	if err != nil {
		return Result{}, err
	}
	out := cfg.Output
	if out == "" {
		out = filepath.Join(filepath.Dir(cfg.CueFile), baseName(cfg.CueFile)+".normalized.srt")
	}
	if _, err := usecase.New(usecase.Deps{}).NormalizeCues(ctx, usecase.NormalizeInput{
		CueFile: cfg.CueFile,
		OutFile: out,
		Overlap: policy,
		Sep:     separator(cfg.Comma),
		Log:     log,
	}); err != nil {
		return Result{}, err
	}
	return Result{CueFile: out}, nil
}

// RunAssemble schedules clips for a cue file into a fresh run dir under cfg.OutDir,
// then renders the plan unless cfg.PlanOnly is set.
func RunAssemble(ctx context.Context, cfg AssembleConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return runAssemble(ctx, cfg, newDeps(cfg.Tools, 0))
}

func runAssemble(ctx context.Context, cfg AssembleConfig, deps usecase.Deps) (Result, error) {
	log := logger(cfg.Log)
	policy, err := overlapPolicy(cfg.Overlap)
	if err != nil {
		return Result{}, err
	}
	format, err := cfg.format()
	if err != nil {
		return Result{}, err
	}

	res, err := usecase.New(deps).Schedule(ctx, usecase.ScheduleInput{
		CueFile:  cfg.CueFile,
		ClipsDir: cfg.ClipsDir,
		Overlap:  policy,
		Seed:     cfg.Seed,
		Progress: percentLogger(log, "scheduling"),
		Log:      log,
	})
	if err != nil {
		return Result{}, err
	}
	log.Infof("assigned %d cues, %d of %d clips left unused", len(res.Segments), res.Unused, res.PoolSize)

	runDir := buildRunOutDir(cfg.OutDir, cfg.CueFile, time.Now().UTC())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Result{}, err
	}
	log.Infof("output run dir: %s", runDir)

	entries, err := plan.FromAssignment(res.Cues, res.Segments)
	if err != nil {
		return Result{}, err
	}
	p := plan.Plan{
		Version:    plan.Version,
		CueFile:    cfg.CueFile,
		ClipsDir:   cfg.ClipsDir,
		Seed:       cfg.Seed,
		Format:     format,
		BurnLabels: cfg.BurnLabels,
		Segments:   entries,
	}
	planPath := filepath.Join(runDir, "plan.yaml")
	if err := plan.Write(planPath, p); err != nil {
		return Result{}, err
	}

	out := Result{RunDir: runDir, PlanFile: planPath}

	// Output is only recorded once the video exists.
	m := types.Manifest{
		Input:    cfg.ClipsDir,
		CueFile:  cfg.CueFile,
		Cues:     len(res.Cues),
		Dropped:  droppedEvents(res.Dropped),
		Skipped:  res.Skipped,
		Seed:     cfg.Seed,
		Segments: manifestSegments(res.Segments),
	}
	out.Manifest = filepath.Join(runDir, "manifest.json")
	if err := writeManifest(out.Manifest, m); err != nil {
		return Result{}, err
	}
	log.Infof("manifest written (%d segments): %s", len(m.Segments), out.Manifest)

	if cfg.PlanOnly {
		return out, nil
	}
	var labels []string
	if cfg.BurnLabels {
		labels = make([]string, len(res.Cues))
		for i, c := range res.Cues {
			labels[i] = c.Label
		}
	}
	job := render.Job{
		Segments: res.Segments,
		Labels:   labels,
		Format:   format,
		Output:   filepath.Join(runDir, baseName(cfg.CueFile)+".mp4"),
		WorkDir:  runCacheDir(cfg.CacheDir, runDir),
	}
	if err := renderInBackground(ctx, deps.Video, job, log); err != nil {
		return Result{}, err
	}
	out.Output = job.Output
	m.Output = job.Output
	if err := writeManifest(out.Manifest, m); err != nil {
		return Result{}, err
	}
	return out, nil
}

// RunRender renders a saved plan.
func RunRender(ctx context.Context, cfg RenderConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return runRender(ctx, cfg, ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe))
}

func runRender(ctx context.Context, cfg RenderConfig, video ports.VideoTool) (Result, error) {
	log := logger(cfg.Log)
	p, err := plan.Read(cfg.PlanPath)
	if err != nil {
		return Result{}, err
	}
	segs, labels, err := p.Assignment()
	if err != nil {
		return Result{}, err
	}
	if !p.BurnLabels {
		labels = nil
	}
	output := cfg.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(cfg.PlanPath), baseName(p.CueFile)+".mp4")
	}
	abs, err := filepath.Abs(cfg.PlanPath)
	if err != nil {
		return Result{}, err
	}
	job := render.Job{
		Segments: segs,
		Labels:   labels,
		Format:   p.Format,
		Output:   output,
		WorkDir:  runCacheDir(cfg.CacheDir, abs),
	}
	if err := renderInBackground(ctx, video, job, log); err != nil {
		return Result{}, err
	}
	return Result{RunDir: filepath.Dir(cfg.PlanPath), PlanFile: cfg.PlanPath, Output: output}, nil
}

// renderInBackground runs the render job on a worker and logs its progress until it
// finishes. The work dir is kept on failure for inspection.
func renderInBackground(ctx context.Context, video ports.VideoTool, job render.Job, log logrus.FieldLogger) error {
	r := render.New(video, log)
	h := worker.Start(ctx, func(ctx context.Context, progress func(current, total int)) error {
		return r.Render(ctx, job, progress)
	})
	jlog := log.WithField("job", h.ID)
	jlog.Infof("rendering %d segments (work dir %s)", len(job.Segments), job.WorkDir)

	report := percentLogger(jlog, "rendering")
	for p := range h.Progress() {
		report(p.Current, p.Total)
	}
	if err := <-h.Done(); err != nil {
		jlog.WithError(err).Error("render failed, work dir left in place")
		return err
	}
	jlog.Infof("video written: %s", job.Output)
	return nil
}

// percentLogger logs whole-percent steps only, so long timelines stay readable.
func percentLogger(log logrus.FieldLogger, what string) func(current, total int) {
	last := -1
	return func(current, total int) {
		if total <= 0 {
			return
		}
		pct := current * 100 / total
		if pct == last {
			return
		}
		last = pct
		log.Infof("%s: %d/%d (%d%%)", what, current, total, pct)
	}
}

func droppedEvents(evs []types.TimedEvent) []types.DroppedEvent {
	out := make([]types.DroppedEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, types.DroppedEvent{Label: ev.Label, StartSec: ev.Start.Seconds(), EndSec: ev.End.Seconds()})
	}
	return out
}

func manifestSegments(segs []types.AssignedSegment) []types.ManifestSegment {
	out := make([]types.ManifestSegment, 0, len(segs))
	for _, s := range segs {
		out = append(out, types.ManifestSegment{
			Cue:     s.CueIndex,
			Source:  s.SourcePath,
			Group:   s.Group,
			TrimSec: s.Duration().Seconds(),
		})
	}
	return out
}

func writeManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func runCacheDir(base, key string) string {
	if base == "" {
		base = ".cache"
	}
	return filepath.Join(base, "runs", hash(key))
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := normalizePathSegment(baseName(input))
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.NoteExtractor = (*smf.Adapter)(nil)
var _ ports.Synthesizer = (*fluidsynth.Adapter)(nil)
var _ ports.WaveProber = (*wavprobe.Adapter)(nil)
