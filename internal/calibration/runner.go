package calibration

import (
	"context"
	"time"

	"github.com/agbru/fmmeval/internal/cli"
	"github.com/agbru/fmmeval/internal/config"
	"github.com/agbru/fmmeval/internal/service"
)

// calibrationRunner encapsulates the trial run logic for calibration: each
// trial evaluates a synthetic body set under one candidate (theta, leaf
// size) pair through the same Service the CLI and server use.
type calibrationRunner struct {
	ctx context.Context
}

// newCalibrationRunner creates a new calibration runner.
func newCalibrationRunner(ctx context.Context) *calibrationRunner {
	return &calibrationRunner{ctx: ctx}
}

// runTrial executes a single calibration trial with the given theta and
// leaf size.
func (r *calibrationRunner) runTrial(svc service.Service, theta float64, leafSize int) (res *service.Result, duration time.Duration, err error) {
	if err := r.ctx.Err(); err != nil {
		return nil, 0, err
	}
	cfg := config.AppConfig{
		NumBodies:    CalibrationNumBodies,
		Distribution: CalibrationDistribution,
		Seed:         CalibrationSeed,
		MaxLeafSize:  leafSize,
		Mode:         "fmm",
		Theta:        theta,
		Kernel:       CalibrationKernel,
		Timeout:      CalibrationTrialTimeout,
	}
	start := time.Now()
	res, err = svc.Evaluate(cfg)
	return res, time.Since(start), err
}

// runBaseline evaluates the calibration body set at a near-zero theta,
// forcing P2P everywhere. It is the accuracy reference every candidate
// theta is measured against.
func runBaseline(svc service.Service) (*service.Result, error) {
	cfg := config.AppConfig{
		NumBodies:    CalibrationNumBodies,
		Distribution: CalibrationDistribution,
		Seed:         CalibrationSeed,
		MaxLeafSize:  config.DefaultMaxLeafSize,
		Mode:         "treecode",
		Theta:        1e-9,
		Kernel:       CalibrationKernel,
		Timeout:      CalibrationTrialTimeout,
	}
	return svc.Evaluate(cfg)
}

// findBestLeafSize finds the fastest leaf size at a fixed theta.
func (r *calibrationRunner) findBestLeafSize(svc service.Service, theta float64, defaultLeaf int) (leafSize int, duration time.Duration) {
	best := defaultLeaf
	bestDur := time.Duration(1<<63 - 1)

	for _, cand := range GenerateQuickLeafSizeCandidates() {
		_, dur, err := r.runTrial(svc, theta, cand)
		if err != nil {
			continue
		}
		if dur < bestDur {
			bestDur, best = dur, cand
		}
	}
	return best, bestDur
}

// findBestTheta finds the fastest theta at a fixed leaf size, among
// candidates whose relative error against baseline stays within
// MaxAcceptableRelativeError.
func (r *calibrationRunner) findBestTheta(svc service.Service, leafSize int, defaultTheta float64, baseline *service.Result) (theta float64, duration time.Duration) {
	best := defaultTheta
	bestDur := time.Duration(1<<63 - 1)

	for _, cand := range GenerateQuickThetaCandidates() {
		res, dur, err := r.runTrial(svc, cand, leafSize)
		if err != nil || res == nil {
			continue
		}
		if baseline != nil && cli.RelativeError(baseline.Results, res.Results) > MaxAcceptableRelativeError {
			continue
		}
		if dur < bestDur {
			bestDur, best = dur, cand
		}
	}
	return best, bestDur
}
