package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robmorgan/beatwarp/transport"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <project|audio>",
	Short: "Summarise a project and its audio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0])
		if err != nil {
			return err
		}
		s := sess.Score()
		tm := sess.TimeMap()

		fmt.Printf("Project:   %s\n", sess.Path())
		fmt.Printf("Audio:     %s\n", sess.AudioFileName())
		fmt.Printf("Measures:  %d\n", len(s.Measures))
		fmt.Printf("Markers:   %d\n", len(s.WarpMarkers))
		fmt.Printf("Offset:    %.1fms\n", s.OffsetMs)
		fmt.Printf("Score end: %s\n", time.Duration(tm.EndMs()*float64(time.Millisecond)).Round(time.Millisecond))

		path, ok := audioFor(args[0], sess)
		if !ok {
			fmt.Println("Audio file not found")
			return nil
		}
		audio, err := transport.Decode(path)
		if err != nil {
			return err
		}
		defer audio.Close()
		fmt.Printf("Duration:  %s (%d Hz)\n", audio.Duration().Round(time.Millisecond), audio.Format.SampleRate)
		if end := tm.EndMs(); end > float64(audio.Duration().Milliseconds()) {
			fmt.Printf("The score runs %.0fms past the end of the audio\n", end-float64(audio.Duration().Milliseconds()))
		}
		return nil
	},
}
