package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
)

var (
	beatsFrom float64
	beatsTo   float64
)

func init() {
	beatsCmd.Flags().Float64Var(&beatsFrom, "from", 0, "first audio time in ms")
	beatsCmd.Flags().Float64Var(&beatsTo, "to", math.Inf(1), "last audio time in ms (exclusive)")
	rootCmd.AddCommand(beatsCmd)
}

var beatsCmd = &cobra.Command{
	Use:   "beats <project|audio>",
	Short: "List the metronome clicks of the score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0])
		if err != nil {
			return err
		}
		for _, b := range sess.TimeMap().Beats(beatsFrom, beatsTo) {
			accent := ""
			if b.IsDownbeat() {
				accent = " *"
			}
			fmt.Printf("%.1f\t%d.%d%s\n", b.TimeMs, b.MeasureIndex+1, b.Index+1, accent)
		}
		return nil
	},
}
