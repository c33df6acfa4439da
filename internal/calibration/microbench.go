// Package calibration provides performance calibration for the evaluator.
// This file implements a fast micro-benchmark for quick theta/leaf-size
// estimation at startup (bounded by MicroBenchTimeout, 150ms of wall-clock
// budget).
package calibration

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/fmmeval/internal/config"
	"github.com/agbru/fmmeval/internal/service"
)

const (
	// MicroBenchNumBodies is the tiny body count used for the quick
	// micro-benchmark, chosen to finish each trial in low single-digit
	// milliseconds.
	MicroBenchNumBodies = 400

	// MicroBenchTimeout is the maximum time for the entire micro-benchmark
	// suite.
	MicroBenchTimeout = 150 * time.Millisecond
)

// ThetaLeafResult contains the estimated theta/leaf-size pair from a quick
// micro-benchmark.
type ThetaLeafResult struct {
	// Theta is the estimated good acceptance threshold.
	Theta float64
	// LeafSize is the estimated good octree leaf capacity.
	LeafSize int
	// Confidence is a score from 0-1 indicating result reliability.
	Confidence float64
	// Duration is how long the micro-benchmark took.
	Duration time.Duration
}

// microTrial holds timing data for a single configuration test.
type microTrial struct {
	theta    float64
	leafSize int
	duration time.Duration
	err      error
}

// QuickCalibrate performs a fast calibration using a small parallel sweep
// over theta/leaf-size candidates. It is designed to run in well under
// MicroBenchTimeout and provide a reasonable starting point, not a
// definitive answer (RunCalibration's exhaustive grid is that).
func QuickCalibrate(ctx context.Context) (ThetaLeafResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, MicroBenchTimeout)
	defer cancel()

	svc := service.NewEvaluationService(0)
	trials := runParallelMicroTrials(ctx, svc)
	result := analyzeMicroTrials(trials)
	result.Duration = time.Since(start)
	return result, nil
}

func microBenchConfig(theta float64, leafSize int) config.AppConfig {
	return config.AppConfig{
		NumBodies:    MicroBenchNumBodies,
		Distribution: CalibrationDistribution,
		Seed:         CalibrationSeed,
		MaxLeafSize:  leafSize,
		Mode:         "fmm",
		Theta:        theta,
		Kernel:       CalibrationKernel,
		Timeout:      MicroBenchTimeout,
	}
}

func runParallelMicroTrials(ctx context.Context, svc service.Service) []microTrial {
	var trials []microTrial
	var mu sync.Mutex
	var wg sync.WaitGroup

	type candidate struct {
		theta    float64
		leafSize int
	}
	var candidates []candidate
	for _, theta := range GenerateQuickThetaCandidates() {
		for _, leaf := range GenerateQuickLeafSizeCandidates() {
			candidates = append(candidates, candidate{theta, leaf})
		}
	}

	semaphore := make(chan struct{}, runtime.NumCPU())

	for _, c := range candidates {
		wg.Add(1)
		go func(theta float64, leafSize int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			}

			start := time.Now()
			_, err := svc.Evaluate(microBenchConfig(theta, leafSize))
			duration := time.Since(start)

			mu.Lock()
			trials = append(trials, microTrial{theta, leafSize, duration, err})
			mu.Unlock()
		}(c.theta, c.leafSize)
	}

	wg.Wait()
	return trials
}

// analyzeMicroTrials picks the fastest candidate that completed without
// error. Confidence reflects how many candidates completed in time.
func analyzeMicroTrials(trials []microTrial) ThetaLeafResult {
	tr := ThetaLeafResult{
		Theta:      EstimateOptimalTheta(),
		LeafSize:   EstimateOptimalLeafSize(),
		Confidence: 0.3,
	}

	if len(trials) == 0 {
		tr.Confidence = 0
		return tr
	}

	succeeded := 0
	bestDur := time.Duration(1<<63 - 1)
	for _, t := range trials {
		if t.err != nil {
			continue
		}
		succeeded++
		if t.duration < bestDur {
			bestDur = t.duration
			tr.Theta = t.theta
			tr.LeafSize = t.leafSize
		}
	}

	if succeeded == 0 {
		tr.Confidence = 0
		return tr
	}

	tr.Confidence = 0.3 + 0.6*float64(succeeded)/float64(len(trials))
	if tr.Confidence > 1.0 {
		tr.Confidence = 1.0
	}
	return tr
}

// QuickCalibrateWithDefaults performs quick calibration and returns values
// that can be directly used as configuration defaults.
func QuickCalibrateWithDefaults(ctx context.Context, defaultTheta float64, defaultLeaf int) (float64, int) {
	results, err := QuickCalibrate(ctx)
	if err != nil || results.Confidence < 0.3 {
		return defaultTheta, defaultLeaf
	}
	return results.Theta, results.LeafSize
}
