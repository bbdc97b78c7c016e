package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/forPelevin/notecut/internal/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once the root has parsed its flags.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRoot(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "notecut",
		Short:        "Cut a video clip for every note of a song",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, stderr)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default ./notecut.yaml when present)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text or json)")
	pf.String("cache-dir", ".cache", "Directory for run caches and intermediate files")

	root.AddCommand(
		newCuesCmd(a),
		newNormalizeCmd(a),
		newAssembleCmd(a),
		newRenderCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, stderr io.Writer) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Bind(v, cmd.Flags(), map[string]string{
		"log-level":  config.KeyLogLevel,
		"log-format": config.KeyLogFormat,
		"cache-dir":  config.KeyCacheDir,
	}); err != nil {
		return err
	}
	log, err := config.NewLogger(stderr, v.GetString(config.KeyLogLevel), v.GetString(config.KeyLogFormat))
	if err != nil {
		return err
	}
	a.v, a.log = v, log
	if used := v.ConfigFileUsed(); used != "" {
		log.Debugf("config: %s", used)
	}
	return nil
}
