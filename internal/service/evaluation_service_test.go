package service

import (
	"math"
	"testing"

	"github.com/agbru/fmmeval/internal/config"
)

func baseConfig(kernel string) config.AppConfig {
	return config.AppConfig{
		NumBodies:    40,
		Distribution: "uniform",
		Seed:         7,
		MaxLeafSize:  4,
		Mode:         "fmm",
		Theta:        0.5,
		Kernel:       kernel,
	}
}

// TestEvaluateLaplaceGradientReachableThroughService exercises the
// "laplacegradient" kernel through the same Evaluate call the CLI and
// server use, instead of only against its raw operators: it checks that
// Gradients comes back with one entry per body and that the potential it
// reports agrees with the plain Laplace kernel run on the identical point
// cloud, since both share the same expansion math and only their
// point-evaluation operators differ.
func TestEvaluateLaplaceGradientReachableThroughService(t *testing.T) {
	svc := NewEvaluationService(0)

	gradCfg := baseConfig("laplacegradient")
	gradResult, err := svc.Evaluate(gradCfg)
	if err != nil {
		t.Fatalf("Evaluate(laplacegradient) returned error: %v", err)
	}
	if len(gradResult.Gradients) != gradCfg.NumBodies {
		t.Fatalf("expected %d gradients, got %d", gradCfg.NumBodies, len(gradResult.Gradients))
	}

	laplaceCfg := baseConfig("laplace")
	laplaceResult, err := svc.Evaluate(laplaceCfg)
	if err != nil {
		t.Fatalf("Evaluate(laplace) returned error: %v", err)
	}

	for i := range gradResult.Results {
		diff := math.Abs(gradResult.Results[i] - laplaceResult.Results[i])
		if diff > 1e-9 {
			t.Errorf("body %d: laplacegradient potential %v diverges from laplace potential %v", i, gradResult.Results[i], laplaceResult.Results[i])
		}
	}
}

// TestEvaluateCoulombAndIdentityStillWork guards the existing kernel
// switch cases against regressions introduced while adding the
// laplacegradient branch.
func TestEvaluateCoulombAndIdentityStillWork(t *testing.T) {
	svc := NewEvaluationService(0)

	for _, kernel := range []string{"coulomb", "identity"} {
		cfg := baseConfig(kernel)
		res, err := svc.Evaluate(cfg)
		if err != nil {
			t.Fatalf("Evaluate(%s) returned error: %v", kernel, err)
		}
		if len(res.Results) != cfg.NumBodies {
			t.Errorf("%s: expected %d results, got %d", kernel, cfg.NumBodies, len(res.Results))
		}
		if res.Gradients != nil {
			t.Errorf("%s: expected nil Gradients, got %v", kernel, res.Gradients)
		}
	}
}

// TestEvaluateUnrecognizedKernel confirms the default branch in the kernel
// switch still rejects unknown kernel names.
func TestEvaluateUnrecognizedKernel(t *testing.T) {
	svc := NewEvaluationService(0)
	cfg := baseConfig("nonexistent")
	if _, err := svc.Evaluate(cfg); err == nil {
		t.Fatal("expected an error for an unrecognized kernel, got nil")
	}
}
