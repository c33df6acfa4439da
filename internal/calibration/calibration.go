package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/agbru/fmmeval/internal/cli"
	"github.com/agbru/fmmeval/internal/config"
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/service"
)

// Calibration trial parameters: the synthetic workload every candidate
// (theta, leaf size) pair is benchmarked against.
const (
	// CalibrationNumBodies is the body count used for calibration trials:
	// large enough to separate FMM from Treecode behavior, small enough to
	// finish an exhaustive grid search quickly.
	CalibrationNumBodies = 4000
	// CalibrationDistribution is the point-cloud generator used for trials.
	CalibrationDistribution = "uniform"
	// CalibrationSeed is the RNG seed used for trials, fixed for reproducible
	// calibration results.
	CalibrationSeed = 1
	// CalibrationKernel is the analytic kernel used for trials.
	CalibrationKernel = "coulomb"
	// CalibrationTrialTimeout bounds a single trial's evaluation.
	CalibrationTrialTimeout = 2 * time.Minute
	// MaxAcceptableRelativeError bounds how much accuracy a candidate theta
	// may trade away for speed, measured against a direct-sum baseline.
	MaxAcceptableRelativeError = 1e-2
)

// trialResult holds the outcome of a single (theta, leaf size) trial.
type trialResult struct {
	Theta    float64
	LeafSize int
	Duration time.Duration
	RelError float64
	Err      error
}

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is the path to save/load the calibration profile. If
	// empty, uses the default path.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
	// LoadProfile indicates whether to try loading an existing profile.
	LoadProfile bool
}

// RunCalibration executes an exhaustive benchmark to determine good
// theta/leaf-size values for the current hardware.
//
// It uses adaptive candidate generation based on CPU characteristics and
// iterates through every (theta, leaf size) pair, evaluating a standard
// synthetic body set for each. Execution times are compared against a
// direct-sum baseline's relative error to identify the fastest candidate
// that stays within MaxAcceptableRelativeError.
func RunCalibration(ctx context.Context, out io.Writer, svc service.Service) int {
	return RunCalibrationWithOptions(ctx, out, svc, CalibrationOptions{
		SaveProfile: true,
		LoadProfile: false, // a full calibration should run fresh
	})
}

// RunCalibrationWithOptions executes calibration with the specified options.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, svc service.Service, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding Good Theta/Leaf-Size Values ---\n")

	if opts.LoadProfile {
		profile, loaded := LoadOrCreateProfile(opts.ProfilePath)
		if loaded && profile.IsValid() {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				cli.ColorGreen(), GetDefaultProfilePath(), cli.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			fmt.Fprintf(out, "\n%s✅ Using cached calibration: %s-theta %.3g -leaf-size %d%s\n",
				cli.ColorGreen(), cli.ColorYellow(), profile.Theta, profile.MaxLeafSize, cli.ColorReset())
			return apperrors.ExitSuccess
		}
	}

	baseline, err := runBaseline(svc)
	if err != nil {
		fmt.Fprintf(out, "%sCritical error: could not establish a direct-sum baseline: %v%s\n", cli.ColorRed(), err, cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	fmt.Fprintf(out, "%sUsing adaptive candidates for %d CPU cores%s\n", cli.ColorCyan(), runtime.NumCPU(), cli.ColorReset())

	runner := newCalibrationRunner(ctx)
	leafCandidates := GenerateLeafSizeCandidates()
	thetaCandidates := GenerateThetaCandidates()

	results := make([]trialResult, 0, len(leafCandidates)*len(thetaCandidates))
	bestDuration := time.Duration(1<<63 - 1)
	bestTheta, bestLeaf := EstimatedCandidates()
	calibrationStart := time.Now()

	for _, leaf := range leafCandidates {
		for _, theta := range thetaCandidates {
			if ctx.Err() != nil {
				fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", cli.ColorYellow(), cli.ColorReset())
				return apperrors.ExitErrorCanceled
			}

			res, dur, err := runner.runTrial(svc, theta, leaf)
			if err != nil {
				fmt.Fprintf(out, "%s❌ theta=%.3g leaf=%d failed: %v%s\n", cli.ColorRed(), theta, leaf, err, cli.ColorReset())
				results = append(results, trialResult{theta, leaf, 0, 0, err})
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return apperrors.HandleEvaluationError(err, dur, out, cli.CLIColorProvider{})
				}
				continue
			}

			relErr := cli.RelativeError(baseline.Results, res.Results)
			results = append(results, trialResult{theta, leaf, dur, relErr, nil})
			if relErr > MaxAcceptableRelativeError {
				continue
			}
			if dur < bestDuration {
				bestDuration, bestTheta, bestLeaf = dur, theta, leaf
			}
		}
	}

	if bestDuration == time.Duration(1<<63-1) {
		fmt.Fprintf(out, "\n%sCalibration failed: no candidate met the accuracy bound.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	calibrationDuration := time.Since(calibrationStart)

	printCalibrationResults(out, results, bestTheta, bestLeaf)

	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-theta %.3g -leaf-size %d%s\n",
		cli.ColorGreen(), cli.ColorYellow(), bestTheta, bestLeaf, cli.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.Theta = bestTheta
		profile.MaxLeafSize = bestLeaf
		profile.CalibrationN = CalibrationNumBodies
		profile.CalibrationTime = calibrationDuration.String()

		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", cli.ColorYellow(), err, cli.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", cli.ColorGreen(), GetDefaultProfilePath(), cli.ColorReset())
		}
	}

	return apperrors.ExitSuccess
}

// AutoCalibrate runs a quick startup calibration to fine-tune theta and
// leaf size.
//
// Unlike RunCalibration's exhaustive grid, this function performs a
// heuristic search over a small candidate subset, fast enough to run at
// application startup without significant delay. It first checks for an
// existing valid calibration profile, then tries the quick micro-benchmark,
// and runs the reduced candidate search only if neither gives a result.
func AutoCalibrate(parentCtx context.Context, cfg config.AppConfig, out io.Writer, svc service.Service) (updated config.AppConfig, ok bool) {
	return AutoCalibrateWithProfile(parentCtx, cfg, out, svc, cfg.CalibrationProfile)
}

// AutoCalibrateWithProfile runs auto-calibration with a specific profile
// path. It first tries to load a cached profile, then falls back to quick
// micro-benchmarks, and finally a reduced candidate search if needed.
func AutoCalibrateWithProfile(parentCtx context.Context, cfg config.AppConfig, out io.Writer, svc service.Service, profilePath string) (updated config.AppConfig, ok bool) {
	if profile, loaded := LoadOrCreateProfile(profilePath); loaded && profile.IsValid() {
		updated := cfg
		updated.Theta = profile.Theta
		updated.MaxLeafSize = profile.MaxLeafSize

		fmt.Fprintf(out, "%sUsing cached calibration%s: theta=%s%.3g%s, leaf size=%s%d%s\n",
			cli.ColorGreen(), cli.ColorReset(),
			cli.ColorYellow(), updated.Theta, cli.ColorReset(),
			cli.ColorYellow(), updated.MaxLeafSize, cli.ColorReset())
		return updated, true
	}

	microResults, err := QuickCalibrate(parentCtx)
	if err == nil && microResults.Confidence >= 0.5 {
		updated := cfg
		updated.Theta = microResults.Theta
		updated.MaxLeafSize = microResults.LeafSize

		fmt.Fprintf(out, "%sQuick calibration%s (%v): theta=%s%.3g%s, leaf size=%s%d%s (confidence: %.0f%%)\n",
			cli.ColorGreen(), cli.ColorReset(),
			microResults.Duration.Round(time.Millisecond),
			cli.ColorYellow(), updated.Theta, cli.ColorReset(),
			cli.ColorYellow(), updated.MaxLeafSize, cli.ColorReset(),
			microResults.Confidence*100)

		saveCalibrationProfile(updated, profilePath, out)
		return updated, true
	}

	runner := newCalibrationRunner(parentCtx)
	baseline, baselineErr := runBaseline(svc)

	bestLeaf, bestLeafDur := runner.findBestLeafSize(svc, cfg.Theta, cfg.MaxLeafSize)
	var bestTheta float64
	var bestThetaDur time.Duration
	if baselineErr == nil {
		bestTheta, bestThetaDur = runner.findBestTheta(svc, bestLeaf, cfg.Theta, baseline)
	} else {
		bestTheta, bestThetaDur = cfg.Theta, time.Duration(1<<63-1)
	}

	updated, ok = applyCalibrationResults(cfg, bestTheta, bestThetaDur, bestLeaf, bestLeafDur)
	if !ok {
		return cfg, false
	}

	saveCalibrationProfile(updated, profilePath, out)
	printCalibrationOutput(updated, out)

	return updated, true
}

// LoadCachedCalibration attempts to load a cached calibration profile and
// apply it to the configuration. Returns the updated config and true if a
// valid cached profile was found.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (updated config.AppConfig, ok bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded || !profile.IsValid() {
		return cfg, false
	}

	updated = cfg
	updated.Theta = profile.Theta
	updated.MaxLeafSize = profile.MaxLeafSize
	return updated, true
}

// applyCalibrationResults updates the configuration with the calibration
// results.
func applyCalibrationResults(cfg config.AppConfig, bestTheta float64, bestThetaDur time.Duration, bestLeaf int, bestLeafDur time.Duration) (updated config.AppConfig, ok bool) {
	maxDuration := time.Duration(1<<63 - 1)
	if bestThetaDur == maxDuration && bestLeafDur == maxDuration {
		return cfg, false
	}

	updated = cfg
	if bestThetaDur != maxDuration {
		updated.Theta = bestTheta
	}
	if bestLeafDur != maxDuration {
		updated.MaxLeafSize = bestLeaf
	}
	return updated, true
}

// saveCalibrationProfile saves the calibration results to a profile.
func saveCalibrationProfile(cfg config.AppConfig, profilePath string, out io.Writer) {
	profile := NewProfile()
	profile.Theta = cfg.Theta
	profile.MaxLeafSize = cfg.MaxLeafSize
	profile.CalibrationN = CalibrationNumBodies

	if err := profile.SaveProfile(profilePath); err != nil {
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n",
			cli.ColorYellow(), err, cli.ColorReset())
	}
}
