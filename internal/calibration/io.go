package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/fmmeval/internal/cli"
	"github.com/agbru/fmmeval/internal/config"
)

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []trialResult, bestTheta float64, bestLeaf int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sTheta%s\t%sLeaf size%s\t%sExecution Time%s\t%sRel. Error%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(),
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset())
	fmt.Fprintf(tw, "  %s\n", strings.Repeat("─", 50))
	for _, res := range results {
		durationStr := fmt.Sprintf("%sN/A%s", cli.ColorRed(), cli.ColorReset())
		relErrStr := "-"
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
			if res.Duration == 0 {
				durationStr = "< 1µs"
			}
			relErrStr = fmt.Sprintf("%.3e", res.RelError)
		}
		highlight := ""
		if res.Theta == bestTheta && res.LeafSize == bestLeaf && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", cli.ColorGreen(), cli.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%.3g%s\t%s%d%s\t%s%s%s\t%s%s\n",
			cli.ColorCyan(), res.Theta, cli.ColorReset(),
			cli.ColorCyan(), res.LeafSize, cli.ColorReset(),
			cli.ColorYellow(), durationStr, cli.ColorReset(),
			relErrStr, highlight)
	}
	tw.Flush()
}

// printCalibrationOutput prints the auto-calibration results.
func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "%sAuto-calibration%s: theta=%s%.3g%s, leaf size=%s%d%s\n",
		cli.ColorGreen(), cli.ColorReset(),
		cli.ColorYellow(), cfg.Theta, cli.ColorReset(),
		cli.ColorYellow(), cfg.MaxLeafSize, cli.ColorReset())
}
