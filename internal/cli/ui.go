// The cli package provides functions for building a command-line interface
// (CLI) for the evaluator application. It handles the display of execution
// progress and formats results for a clear and readable presentation.
package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/agbru/fmmeval/internal/service"
	"github.com/agbru/fmmeval/internal/ui"
	"github.com/briandowns/spinner"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
// This approach provides a more human-readable output for short durations.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// TruncationLimit is the body-count threshold above which the per-body
	// result listing is truncated in standard output.
	TruncationLimit = 20
	// ProgressRefreshRate defines the refresh frequency of the spinner.
	ProgressRefreshRate = 200 * time.Millisecond
)

// Color functions return ANSI escape codes from the current theme.
// These provide backward compatibility while allowing theme switching.
// They delegate to the ui package to reduce coupling.

// ColorReset returns the reset escape code from the current theme.
func ColorReset() string { return ui.GetCurrentTheme().Reset }

// ColorRed returns the error color from the current theme.
func ColorRed() string { return ui.GetCurrentTheme().Error }

// ColorGreen returns the success color from the current theme.
func ColorGreen() string { return ui.GetCurrentTheme().Success }

// ColorYellow returns the warning color from the current theme.
func ColorYellow() string { return ui.GetCurrentTheme().Warning }

// ColorBlue returns the primary color from the current theme.
func ColorBlue() string { return ui.GetCurrentTheme().Primary }

// ColorMagenta returns the info color from the current theme.
func ColorMagenta() string { return ui.GetCurrentTheme().Info }

// ColorCyan returns the secondary color from the current theme.
func ColorCyan() string { return ui.GetCurrentTheme().Secondary }

// ColorBold returns the bold escape code from the current theme.
func ColorBold() string { return ui.GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code from the current theme.
func ColorUnderline() string { return ui.GetCurrentTheme().Underline }

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of RunWithSpinner from a specific spinner
// implementation, facilitating easier testing and maintenance.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface. This adapter allows the `spinner` library to be used
// within the application's CLI framework.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                    { rs.s.Start() }
func (rs *realSpinner) Stop()                     { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// RunWithSpinner runs fn while displaying a spinner with the given label.
// The evaluator runs to completion with no intermediate progress reporting
// or suspension points, so unlike a channel-driven progress bar this only
// brackets a single synchronous call.
func RunWithSpinner(out io.Writer, label string, quiet bool, fn func() error) error {
	if quiet {
		return fn()
	}
	s := newSpinner(spinner.WithWriter(out), spinner.WithSuffix(" "+label))
	s.Start()
	err := fn()
	s.Stop()
	return err
}

// DisplayResult formats and prints the outcome of an evaluation: body
// count, mode, kernel and duration; traversal statistics when details is
// requested; and, when verbose is requested, per-body results (at most
// TruncationLimit of them).
func DisplayResult(res *service.Result, mode, kernel string, duration time.Duration, verbose, details bool, out io.Writer) {
	n := len(res.Results)
	fmt.Fprintf(out, "Evaluated %s%s%s bodies with %s%s%s/%s%s%s in %s%s%s.\n",
		ColorCyan(), formatNumberString(fmt.Sprintf("%d", n)), ColorReset(),
		ColorMagenta(), mode, ColorReset(),
		ColorMagenta(), kernel, ColorReset(),
		ColorGreen(), FormatExecutionDuration(duration), ColorReset())

	if details {
		fmt.Fprintf(out, "\n%s--- Traversal statistics ---%s\n", ColorBold(), ColorReset())
		fmt.Fprintf(out, "Pairs visited : %s%d%s\n", ColorCyan(), res.Stats.PairsVisited, ColorReset())
		fmt.Fprintf(out, "Far-field (M2L/M2P) : %s%d%s\n", ColorCyan(), res.Stats.FarField, ColorReset())
		fmt.Fprintf(out, "Direct (P2P) : %s%d%s\n", ColorCyan(), res.Stats.P2P, ColorReset())
		fmt.Fprintf(out, "Mean result : %s%.6g%s\n", ColorCyan(), mean(res.Results), ColorReset())
	}

	if !verbose {
		return
	}

	limit := n
	truncated := false
	if limit > TruncationLimit {
		limit = TruncationLimit
		truncated = true
	}
	fmt.Fprintf(out, "\n%s--- Per-body results ---%s\n", ColorBold(), ColorReset())
	for i := 0; i < limit; i++ {
		fmt.Fprintf(out, "  body %s%d%s at (%.3f, %.3f, %.3f): %s%.6g%s",
			ColorMagenta(), i, ColorReset(),
			res.Points[i].X, res.Points[i].Y, res.Points[i].Z,
			ColorGreen(), res.Results[i], ColorReset())
		if res.Gradients != nil {
			g := res.Gradients[i]
			fmt.Fprintf(out, " grad=(%s%.6g, %.6g, %.6g%s)", ColorCyan(), g.X, g.Y, g.Z, ColorReset())
		}
		fmt.Fprintln(out)
	}
	if truncated {
		fmt.Fprintf(out, "  ... (%d more bodies)\n", n-limit)
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// formatNumberString inserts thousand separators into a numeric string.
func formatNumberString(s string) string {
	if len(s) == 0 {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix = "-"
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	numSeparators := (n - 1) / 3
	capacity := len(prefix) + n + numSeparators
	var builder strings.Builder
	builder.Grow(capacity)
	builder.WriteString(prefix)

	firstGroupLen := n % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(s[:firstGroupLen])

	for i := firstGroupLen; i < n; i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}

// RelativeError computes the mean relative difference between two result
// vectors of equal length, guarding against division by values near zero.
func RelativeError(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range a {
		denom := math.Abs(a[i])
		if denom < 1e-12 {
			denom = 1e-12
		}
		sum += math.Abs(a[i]-b[i]) / denom
	}
	return sum / float64(len(a))
}
