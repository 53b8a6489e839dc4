package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(locateCmd)
}

var locateCmd = &cobra.Command{
	Use:   "locate <project|audio> <ms>...",
	Short: "Print the measure and beat at audio timestamps",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0])
		if err != nil {
			return err
		}
		tm := sess.TimeMap()
		for _, raw := range args[1:] {
			ms, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q", raw)
			}
			pos := tm.Locate(ms)
			suffix := ""
			if pos.Beyond {
				suffix = " (past the last measure)"
			}
			fmt.Printf("%.1fms\t%s\tbeat %.3f%s\n", ms, pos.Marker(), pos.Beat, suffix)
		}
		return nil
	},
}
