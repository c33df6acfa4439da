package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/agbru/fmmeval/internal/calibration"
	"github.com/agbru/fmmeval/internal/cli"
	"github.com/agbru/fmmeval/internal/config"
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/orchestration"
	"github.com/agbru/fmmeval/internal/server"
	"github.com/agbru/fmmeval/internal/service"
	"github.com/agbru/fmmeval/internal/ui"
)

// Application represents the fmmeval application instance. It encapsulates
// the configuration and provides methods to run the application in various
// modes (CLI, server, calibration).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Service runs evaluations against the configuration. Uses the
	// interface type for better testability and dependency injection.
	Service service.Service
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// MaxBodiesLimit bounds how many bodies a single run may request, guarding
// against pathologically large allocations from untrusted input.
const MaxBodiesLimit = 50_000_000

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or
// validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "fmmeval"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	// Try to load a cached calibration profile first. This allows the
	// application to use good theta/leaf-size values found in previous
	// runs without re-running calibration.
	if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = cfgWithProfile
	}

	return &Application{
		Config:    cfg,
		Service:   service.NewEvaluationService(MaxBodiesLimit),
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode. It dispatches
// to the appropriate handler (server, calibration, or CLI evaluation).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	if a.Config.ServerMode {
		return a.runServer()
	}

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)

	if a.Config.Compare {
		return a.runCompare(ctx, out)
	}

	return a.runEvaluate(ctx, out)
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	srv := server.NewServer(a.Service, a.Config)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	return calibration.RunCalibration(ctx, out, a.Service)
}

// runAutoCalibrationIfEnabled runs auto-calibration if enabled in the
// configuration. Returns the potentially updated configuration with
// calibrated theta/leaf-size values.
func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if a.Config.AutoCalibrate {
		if updated, ok := calibration.AutoCalibrate(ctx, a.Config, out, a.Service); ok {
			return updated
		}
	}
	return a.Config
}

// runEvaluate orchestrates a single evaluation under the configured mode
// and kernel.
func (a *Application) runEvaluate(ctx context.Context, out io.Writer) int {
	_, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()
	// The evaluator core runs to completion in one synchronous call (no
	// suspension points); the lifecycle context is discarded, so neither its
	// timeout nor signal cancellation reaches Service.Evaluate.

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(false, out)
	}

	var res *service.Result
	start := time.Now()
	err := cli.RunWithSpinner(out, "Evaluating...", a.Config.Quiet, func() error {
		var evalErr error
		res, evalErr = a.Service.Evaluate(a.Config)
		return evalErr
	})
	duration := time.Since(start)

	if err != nil {
		return apperrors.HandleEvaluationError(err, duration, out, cli.CLIColorProvider{})
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		JSONOutput: a.Config.JSONOutput,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
		Details:    a.Config.Details,
	}
	if err := cli.DisplayResultWithConfig(out, res, a.Config.Mode, a.Config.Kernel, a.Config.Theta, duration, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	return apperrors.ExitSuccess
}

// runCompare orchestrates a concurrent comparison of FMM, Treecode, and a
// direct-sum baseline.
func (a *Application) runCompare(ctx context.Context, out io.Writer) int {
	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(true, out)
	}

	var results []orchestration.ComparisonResult
	err := cli.RunWithSpinner(out, "Comparing modes...", a.Config.Quiet, func() error {
		results = orchestration.RunComparisons(ctx, a.Service, a.Config)
		return nil
	})
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error running comparison: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if a.Config.JSONOutput {
		return printJSONResults(results, out)
	}

	return orchestration.AnalyzeComparisonResults(results, a.Config, out)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// jsonComparisonResult represents a single comparison result in JSON format.
type jsonComparisonResult struct {
	Name     string  `json:"name"`
	Duration string  `json:"duration"`
	Error    string  `json:"error,omitempty"`
	Bodies   int     `json:"bodies,omitempty"`
	RelError float64 `json:"relative_error,omitempty"`
}

// printJSONResults formats the comparison results as a JSON array.
func printJSONResults(results []orchestration.ComparisonResult, out io.Writer) int {
	output := make([]jsonComparisonResult, len(results))
	for i, res := range results {
		jr := jsonComparisonResult{
			Name:     res.Name,
			Duration: res.Duration.String(),
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		} else {
			jr.Bodies = len(res.Result.Results)
		}
		output[i] = jr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
