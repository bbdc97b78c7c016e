package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/forPelevin/notecut/internal/config"
	"github.com/forPelevin/notecut/internal/pipeline"
	"github.com/spf13/cobra"
)

const runTimeout = 3 * time.Hour

const overlapUsage = "Overlap policy: clamp-head starts a note at the end of the one it overlaps; " +
	"trim-tail ends the earlier note where the later one starts (A 1.0-1.5 + B 1.2-2.0 gives A 1.0-1.2, B 1.2-2.0)"

func newCuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cues <song.mid>",
		Short: "Write a contiguous cue file from the notes of a MIDI song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd, map[string]string{
				"out":         config.KeyOutDir,
				"soundfont":   config.KeySoundFont,
				"synth":       config.KeySynth,
				"sample-rate": config.KeySampleRate,
				"fluidsynth":  config.KeyFluidSynth,
				"overlap":     config.KeyOverlap,
				"comma":       config.KeyComma,
			}); err != nil {
				return err
			}
			midi, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			cfg := pipeline.CuesConfig{
				MIDIPath:   midi,
				OutDir:     a.v.GetString(config.KeyOutDir),
				CacheDir:   a.v.GetString(config.KeyCacheDir),
				Synthesize: a.v.GetBool(config.KeySynth),
				SoundFont:  a.v.GetString(config.KeySoundFont),
				SampleRate: a.v.GetInt(config.KeySampleRate),
				Overlap:    a.v.GetString(config.KeyOverlap),
				Comma:      a.v.GetBool(config.KeyComma),
				Tools:      a.tools(),
				Log:        a.log,
			}
			ctx, cancel := runContext()
			defer cancel()
			res, err := pipeline.RunCues(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.CueFile)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("out", "out", "Output directory")
	f.String("soundfont", "", "SoundFont (.sf2) used to synthesize the song")
	f.Bool("synth", true, "Synthesize the song to WAV and check the cue timeline against it")
	f.String("overlap", "clamp-head", overlapUsage)
	f.Bool("comma", false, "Write HH:MM:SS,mmm timestamps")

	// Hidden tuning flags
	f.Int("sample-rate", 44100, "Synthesis sample rate")
	f.String("fluidsynth", "fluidsynth", "fluidsynth binary")
	_ = f.MarkHidden("sample-rate")
	_ = f.MarkHidden("fluidsynth")
	return cmd
}

func newNormalizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <cues.srt>",
		Short: "Rewrite a cue file as a contiguous, non-overlapping timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd, map[string]string{
				"overlap": config.KeyOverlap,
				"comma":   config.KeyComma,
			}); err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			ctx, cancel := runContext()
			defer cancel()
			res, err := pipeline.RunNormalize(ctx, pipeline.NormalizeConfig{
				CueFile: args[0],
				Output:  output,
				Overlap: a.v.GetString(config.KeyOverlap),
				Comma:   a.v.GetBool(config.KeyComma),
				Log:     a.log,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.CueFile)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output cue file (default <name>.normalized.srt)")
	f.String("overlap", "clamp-head", overlapUsage)
	f.Bool("comma", false, "Write HH:MM:SS,mmm timestamps")
	return cmd
}

func newAssembleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble <cues.srt> <clips-dir>",
		Short: "Assign one clip per cue and render the video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd, map[string]string{
				"out":         config.KeyOutDir,
				"fps":         config.KeyFPS,
				"size":        config.KeySize,
				"burn-labels": config.KeyBurnLabels,
				"overlap":     config.KeyOverlap,
				"ffmpeg":      config.KeyFFmpeg,
				"ffprobe":     config.KeyFFprobe,
			}); err != nil {
				return err
			}
			cues, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			clips, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			planOnly, _ := cmd.Flags().GetBool("plan-only")
			cfg := pipeline.AssembleConfig{
				CueFile:    cues,
				ClipsDir:   clips,
				OutDir:     a.v.GetString(config.KeyOutDir),
				CacheDir:   a.v.GetString(config.KeyCacheDir),
				FPS:        a.v.GetInt(config.KeyFPS),
				Size:       a.v.GetString(config.KeySize),
				BurnLabels: a.v.GetBool(config.KeyBurnLabels),
				PlanOnly:   planOnly,
				Overlap:    a.v.GetString(config.KeyOverlap),
				Tools:      a.tools(),
				Log:        a.log,
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				cfg.Seed = &seed
			}
			ctx, cancel := runContext()
			defer cancel()
			res, err := pipeline.RunAssemble(ctx, cfg)
			if err != nil {
				return err
			}
			if res.Output != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), res.PlanFile)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("out", "out", "Output directory")
	f.Uint64("seed", 0, "Seed for clip selection (random when unset)")
	f.Bool("plan-only", false, "Write plan.yaml and manifest.json without rendering")
	f.Bool("burn-labels", false, "Burn each cue label onto its segment")
	f.String("overlap", "clamp-head", overlapUsage)

	// Hidden tuning flags
	f.Int("fps", 30, "Output frame rate")
	f.String("size", "1280x720", "Output size WxH")
	f.String("ffmpeg", "ffmpeg", "ffmpeg binary")
	f.String("ffprobe", "ffprobe", "ffprobe binary")
	for _, name := range []string{"fps", "size", "ffmpeg", "ffprobe"} {
		_ = f.MarkHidden(name)
	}
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <plan.yaml>",
		Short: "Render a saved assembly plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd, map[string]string{
				"ffmpeg":  config.KeyFFmpeg,
				"ffprobe": config.KeyFFprobe,
			}); err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			ctx, cancel := runContext()
			defer cancel()
			res, err := pipeline.RunRender(ctx, pipeline.RenderConfig{
				PlanPath: args[0],
				Output:   output,
				CacheDir: a.v.GetString(config.KeyCacheDir),
				Tools:    a.tools(),
				Log:      a.log,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output video (default next to the plan)")
	f.String("ffmpeg", "ffmpeg", "ffmpeg binary")
	f.String("ffprobe", "ffprobe", "ffprobe binary")
	_ = f.MarkHidden("ffmpeg")
	_ = f.MarkHidden("ffprobe")
	return cmd
}

func (a *app) bind(cmd *cobra.Command, bindings map[string]string) error {
	return config.Bind(a.v, cmd.Flags(), bindings)
}

func (a *app) tools() pipeline.Tools {
	return pipeline.Tools{
		FFmpeg:     a.v.GetString(config.KeyFFmpeg),
		FFprobe:    a.v.GetString(config.KeyFFprobe),
		FluidSynth: a.v.GetString(config.KeyFluidSynth),
	}
}

func runContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
