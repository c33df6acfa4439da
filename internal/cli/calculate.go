package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fmmeval/internal/config"
)

// PrintExecutionConfig displays the current execution configuration to the
// user: body count, distribution, mode, theta, and environment details.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Evaluating %s%d%s bodies (%s%s%s distribution) with a timeout of %s%s%s.\n",
		ColorMagenta(), cfg.NumBodies, ColorReset(), ColorCyan(), cfg.Distribution, ColorReset(), ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
	writeOut(out, "Mode=%s%s%s, kernel=%s%s%s, theta=%s%.3g%s, leaf size=%s%d%s.\n",
		ColorCyan(), cfg.Mode, ColorReset(), ColorCyan(), cfg.Kernel, ColorReset(),
		ColorCyan(), cfg.Theta, ColorReset(), ColorCyan(), cfg.MaxLeafSize, ColorReset())
}

// PrintExecutionMode displays the execution mode (single evaluation vs
// comparison across modes).
func PrintExecutionMode(compare bool, out io.Writer) {
	modeDesc := "Single evaluation"
	if compare {
		modeDesc = "Parallel comparison of FMM, Treecode, and a direct sum"
	}
	writeOut(out, "Execution mode: %s%s%s.\n", ColorGreen(), modeDesc, ColorReset())
	writeOut(out, "\n--- Starting Execution ---\n")
}

// writeOut writes a formatted string to the output writer.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// CLIColorProvider adapts the cli package's color functions to
// apperrors.ColorProvider, avoiding an import cycle between apperrors and
// cli.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ColorYellow() }
func (CLIColorProvider) Reset() string  { return ColorReset() }
