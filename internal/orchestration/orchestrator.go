package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/fmmeval/internal/calibration"
	"github.com/agbru/fmmeval/internal/cli"
	"github.com/agbru/fmmeval/internal/config"
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/service"
	"github.com/agbru/fmmeval/internal/ui"
)

// run is one named evaluation configuration to execute and compare, e.g.
// "fmm" at the configured theta, "treecode" at the configured theta, or a
// "direct" baseline run at a near-zero theta.
type run struct {
	name  string
	mode  string
	theta float64
}

// ComparisonResult encapsulates the outcome of a single evaluation within a
// comparison run. It serves as a standardized container for results from
// different modes, facilitating cross-mode comparison and reporting.
type ComparisonResult struct {
	// Name is the identifier of the run (e.g., "fmm", "treecode", "direct").
	Name string
	// Result is the evaluation outcome. It is nil if an error occurred.
	Result *service.Result
	// Duration is the time taken to complete the evaluation.
	Duration time.Duration
	// Err contains any error that occurred during the evaluation.
	Err error
}

// comparisonRuns builds the set of runs to compare: the configured mode at
// the configured theta, the other mode at the same theta, and a direct-sum
// baseline (treecode with theta near zero, forcing P2P everywhere).
func comparisonRuns(cfg config.AppConfig) []run {
	runs := []run{
		{name: "fmm", mode: "fmm", theta: cfg.Theta},
		{name: "treecode", mode: "treecode", theta: cfg.Theta},
		{name: "direct", mode: "treecode", theta: 1e-9},
	}
	return runs
}

// RunComparisons orchestrates the concurrent execution of an evaluation
// under FMM, Treecode, and a direct-sum baseline, for the configured
// kernel and body set.
//
// It manages the lifecycle of the evaluation goroutines and collects their
// results. The comparison operationalizes Treecode idempotence and FMM
// convergence as a user-facing check: a direct-sum baseline run alongside
// the approximate modes lets AnalyzeComparisonResults compute a relative
// error instead of merely asserting non-crash behavior.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - svc: The evaluation service to run each configuration through.
//   - cfg: The application configuration (body count, kernel, theta, etc.).
//
// Returns:
//   - []ComparisonResult: A slice containing the results of each run.
func RunComparisons(ctx context.Context, svc service.Service, cfg config.AppConfig) []ComparisonResult {
	runs := comparisonRuns(cfg)
	g, _ := errgroup.WithContext(ctx)
	results := make([]ComparisonResult, len(runs))

	for i, r := range runs {
		idx, run := i, r
		g.Go(func() error {
			runCfg := cfg
			runCfg.Mode = run.mode
			runCfg.Theta = run.theta

			startTime := time.Now()
			res, err := svc.Evaluate(runCfg)
			results[idx] = ComparisonResult{
				Name: run.name, Result: res, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// AnalyzeComparisonResults processes the results from multiple runs and
// generates a summary report.
//
// It sorts the results by execution time, computes relative error of each
// successful run against the direct-sum baseline, and displays a
// comparative table. It handles the logic for determining global success
// or failure based on the individual outcomes.
//
// Parameters:
//   - results: The slice of comparison results to analyze.
//   - cfg: The application configuration.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []ComparisonResult, cfg config.AppConfig, out io.Writer) int {
	var baseline *service.Result
	for _, res := range results {
		if res.Name == "direct" && res.Err == nil {
			baseline = res.Result
			break
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstValidResult *service.Result
	var firstValidResultDuration time.Duration
	var firstError error
	successCount := 0
	mismatch := false

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sRun%s\t%sDuration%s\t%sRel. Error%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		var status, relErr string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			relErr = "-"
			if firstError == nil {
				firstError = res.Err
			}
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			successCount++
			if firstValidResult == nil {
				firstValidResult = res.Result
				firstValidResultDuration = res.Duration
			}
			if baseline != nil && res.Name != "direct" {
				errVal := cli.RelativeError(baseline.Results, res.Result.Results)
				errColor := ui.ColorForRelativeError(errVal, calibration.MaxAcceptableRelativeError)
				relErr = fmt.Sprintf("%s%.3e%s", errColor, errVal, ui.ColorReset())
				if errVal > calibration.MaxAcceptableRelativeError {
					mismatch = true
				}
			} else {
				relErr = "-"
			}
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			relErr, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No run could complete the evaluation.\n")
		return apperrors.HandleEvaluationError(firstError, 0, out, cli.CLIColorProvider{})
	}

	if mismatch {
		fmt.Fprintf(out, "\nGlobal Status: %sFailure%s. A run's relative error against the direct-sum baseline exceeded %.0e.\n",
			ui.ColorRed(), ui.ColorReset(), calibration.MaxAcceptableRelativeError)
		cli.DisplayResult(firstValidResult, cfg.Mode, cfg.Kernel, firstValidResultDuration, cfg.Verbose, cfg.Details, out)
		return apperrors.ExitErrorMismatch
	}

	fmt.Fprintf(out, "\nGlobal Status: Success.\n")
	cli.DisplayResult(firstValidResult, cfg.Mode, cfg.Kernel, firstValidResultDuration, cfg.Verbose, cfg.Details, out)
	return apperrors.ExitSuccess
}
