package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "NOTECUT"

// Keys shared by the config file, NOTECUT_* env vars and flags.
const (
	KeyLogLevel   = "log.level"
	KeyLogFormat  = "log.format"
	KeyCacheDir   = "cache_dir"
	KeyOutDir     = "out"
	KeyFFmpeg     = "tools.ffmpeg"
	KeyFFprobe    = "tools.ffprobe"
	KeyFluidSynth = "tools.fluidsynth"
	KeySoundFont  = "synth.soundfont"
	KeySampleRate = "synth.sample_rate"
	KeySynth      = "synth.enabled"
	KeyFPS        = "render.fps"
	KeySize       = "render.size"
	KeyBurnLabels = "render.burn_labels"
	KeyOverlap    = "timeline.overlap"
	KeyComma      = "timeline.comma"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCacheDir, ".cache")
	v.SetDefault(KeyOutDir, "out")
	v.SetDefault(KeyFFmpeg, "ffmpeg")
	v.SetDefault(KeyFFprobe, "ffprobe")
	v.SetDefault(KeyFluidSynth, "fluidsynth")
	v.SetDefault(KeySampleRate, 44100)
	v.SetDefault(KeySynth, true)
	v.SetDefault(KeyFPS, 30)
	v.SetDefault(KeySize, "1280x720")
	v.SetDefault(KeyOverlap, "clamp-head")
}

// Load layers defaults, an optional YAML file and NOTECUT_* env vars. With an empty
// cfgFile, ./notecut.yaml is read when present.
func Load(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return v, nil
	}
	v.SetConfigName("notecut")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Bind makes flags override their keys. bindings maps flag name to key; flags the
// command does not define are skipped.
func Bind(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
