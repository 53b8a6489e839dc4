package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/midiexport"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "MIDI file to write (default: next to the input, .mid)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export-midi <project|audio>",
	Short: "Write the beat map as a MIDI file with a tempo map and a BEAT track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0])
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".mid"
		}
		title := sess.AudioFileName()
		if title == "" {
			title = filepath.Base(args[0])
		}

		if err := midiexport.WriteFile(out, sess.TimeMap(), title); err != nil {
			return err
		}
		logger.GetProjectLogger().WithField("path", out).Info("Exported beat map")
		return nil
	},
}
