package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/table"
	"github.com/pixperk/spssprep/internal/ui"
)

var (
	detectSheet     string
	detectTopValues int
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Profile the columns of a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.PrintTitle("Column Detection")

		t, err := table.Read(args[0], table.ReadOptions{Sheet: detectSheet})
		if err != nil {
			return err
		}
		logx.StyledLog.Debug("Read input", logx.Path(args[0]), logx.Rows(t.Rows()))

		meta := detect.DetectOrdered(t)
		rows := make([][]string, len(meta))
		for i, m := range meta {
			rows[i] = detectRow(m, detectTopValues)
		}

		ui.PrintSubtitle(fmt.Sprintf("%s: %s rows, %d columns",
			args[0], humanize.Comma(int64(t.Rows())), len(t.Columns)))
		ui.DisplayTable(
			[]string{"Column", "Suggested", "Distinct", "Missing", "Numeric", "Multi", "Top values"},
			rows,
		)
		return nil
	},
}

func detectRow(m detect.Metadata, top int) []string {
	values := m.Values
	if top > 0 && len(values) > top {
		values = values[:top]
	}
	shown := make([]string, len(values))
	for i, v := range values {
		shown[i] = fmt.Sprintf("%s (%d)", v, m.Counts[v])
	}

	multi := ""
	if m.MultiResponse {
		multi = "yes"
	}

	return []string{
		ui.Truncate(m.Name, 30),
		ui.KindBadge(string(detect.Suggest(m))),
		humanize.Comma(int64(m.Distinct)),
		humanize.Comma(int64(m.Missing)),
		fmt.Sprintf("%.0f%%", m.NumericRatio*100),
		multi,
		ui.Truncate(strings.Join(shown, ", "), 60),
	}
}

func init() {
	detectCmd.Flags().StringVar(&detectSheet, "sheet", "", "Worksheet to read (default: first sheet)")
	detectCmd.Flags().IntVar(&detectTopValues, "top", 5, "Number of most frequent values to show per column")
	rootCmd.AddCommand(detectCmd)
}
