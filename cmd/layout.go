package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robmorgan/beatwarp/timemap"
)

var (
	layoutZoom float64
	layoutJSON bool
)

func init() {
	layoutCmd.Flags().Float64Var(&layoutZoom, "zoom", timemap.DefaultZoom, "pixels per second")
	layoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "print JSON")
	rootCmd.AddCommand(layoutCmd)
}

var layoutCmd = &cobra.Command{
	Use:   "layout <project|audio>",
	Short: "Print where every measure falls in the audio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(args[0])
		if err != nil {
			return err
		}
		layout := sess.TimeMap().Layout(timemap.ClampZoom(layoutZoom))
		if layoutJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(layout)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MEASURE\tSTART\tEND\tMETER\tTEMPO\tWARPED\tX\tWIDTH")
		for _, m := range layout {
			fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%d/%d\t%.2f %s\t%t\t%.1f\t%.1f\n",
				m.Index+1, m.StartMs, m.EndMs, m.TimeSignature.Num, m.TimeSignature.Den,
				m.BPM, m.BaseNote, m.Warped, m.X, m.Width)
		}
		return w.Flush()
	},
}
