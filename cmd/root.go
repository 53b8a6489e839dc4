// Package cmd is the beatwarp command line.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/spf13/cobra"

	"github.com/robmorgan/beatwarp/config"
	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/project"
)

var (
	configPath string
	logLevel   string

	cfg = config.NewBeatwarpConfig()
)

var rootCmd = &cobra.Command{
	Use:   "beatwarp",
	Short: "Line a score up with a recording",
	Long: `beatwarp maps the measures of a score onto an audio recording. Tempo marks,
fermatas and warp markers decide where every measure starts; the same map drives the
timeline, the cursor, the metronome and MIDI export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			loaded, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		cfg.Logger = logger.GetProjectLogger()
		return logger.SetLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.GetProjectLogger().Debug(errors.PrintErrorWithStackTrace(err))
		os.Exit(1)
	}
}

func sessionOptions() project.Options {
	return project.Options{
		DefaultMeasures: cfg.Project.DefaultMeasures,
		DefaultBPM:      cfg.Project.DefaultBPM,
		HistoryLimit:    cfg.Project.HistoryLimit,
		BeatDir:         cfg.Project.BeatDir,
		AutosaveDelay:   cfg.Project.AutosaveDelay,
	}
}

func isProject(path string) bool {
	return strings.EqualFold(filepath.Ext(path), project.Extension)
}

// openSession opens a .beat file, or the project belonging to an audio file.
func openSession(path string) (*project.Session, error) {
	if isProject(path) {
		return project.OpenProject(path, sessionOptions())
	}
	return project.OpenAudio(path, sessionOptions())
}

// audioFor returns the audio file to play for path, which may be the audio itself or
// its project.
func audioFor(path string, sess *project.Session) (string, bool) {
	if !isProject(path) {
		return path, true
	}
	return project.FindAudio(path, sess.Document(), "")
}
