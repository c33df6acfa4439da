package orchestration

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/agbru/fmmeval/internal/config"
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/evaluator"
	"github.com/agbru/fmmeval/internal/service"
)

// agreeingService returns near-identical results for every run, regardless
// of mode/theta, simulating FMM/Treecode agreeing with the direct baseline.
type agreeingService struct{}

func (agreeingService) Evaluate(cfg config.AppConfig) (*service.Result, error) {
	return &service.Result{
		Results: []float64{1.0, 2.0, 3.0},
		Stats:   evaluator.Stats{PairsVisited: 1},
	}, nil
}

// disagreeingService returns the direct-sum baseline's numbers for its
// near-zero-theta run, but wildly different numbers for the approximate
// (fmm/treecode) runs, simulating a broken approximation.
type disagreeingService struct{}

func (disagreeingService) Evaluate(cfg config.AppConfig) (*service.Result, error) {
	if cfg.Theta < 1e-6 {
		return &service.Result{Results: []float64{1.0, 2.0, 3.0}}, nil
	}
	return &service.Result{Results: []float64{100.0, 200.0, 300.0}}, nil
}

func baseCompareConfig() config.AppConfig {
	return config.AppConfig{
		NumBodies:    16,
		Mode:         "fmm",
		Theta:        0.5,
		Kernel:       "coulomb",
		Distribution: "uniform",
	}
}

// TestAnalyzeComparisonResultsSucceedsWhenRunsAgree verifies the common
// path: every run's relative error against the direct-sum baseline stays
// within calibration.MaxAcceptableRelativeError, so the overall status is
// success.
func TestAnalyzeComparisonResultsSucceedsWhenRunsAgree(t *testing.T) {
	cfg := baseCompareConfig()
	results := RunComparisons(context.Background(), agreeingService{}, cfg)

	var out bytes.Buffer
	code := AnalyzeComparisonResults(results, cfg, &out)

	if code != apperrors.ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d; output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "Global Status: Success") {
		t.Errorf("expected success status in output, got:\n%s", out.String())
	}
}

// TestAnalyzeComparisonResultsFlagsMismatch verifies that a run whose
// relative error against the direct-sum baseline exceeds
// calibration.MaxAcceptableRelativeError is reported as a failure with
// apperrors.ExitErrorMismatch, the same way findBestTheta rejects a
// candidate theta whose error exceeds the threshold.
func TestAnalyzeComparisonResultsFlagsMismatch(t *testing.T) {
	cfg := baseCompareConfig()
	results := RunComparisons(context.Background(), disagreeingService{}, cfg)

	var out bytes.Buffer
	code := AnalyzeComparisonResults(results, cfg, &out)

	if code != apperrors.ExitErrorMismatch {
		t.Fatalf("expected ExitErrorMismatch, got %d; output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "Global Status") || !strings.Contains(out.String(), "exceeded") {
		t.Errorf("expected a mismatch explanation in output, got:\n%s", out.String())
	}
}
