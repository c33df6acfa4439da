// Package service centralizes validation, point generation, and kernel
// selection around the evaluator core: a thin layer between configuration
// and the computational core that the CLI and the HTTP server both call
// through.
package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agbru/fmmeval/internal/config"
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/evaluator"
	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

var tracer = otel.Tracer("fmmeval/service")

// ErrMaxBodiesExceeded is returned when the requested body count exceeds
// the service's configured maximum.
var ErrMaxBodiesExceeded = errors.New("maximum body count exceeded")

// Result is the outcome of a single evaluation run: the generated point
// cloud, the charges used, the per-body results, and traversal statistics,
// all in the caller's original point order. Gradients is populated only
// when cfg.Kernel is "laplacegradient"; it is nil otherwise.
type Result struct {
	Points    []geom.Vec3
	Charges   []float64
	Results   []float64
	Gradients []geom.Vec3
	Stats     evaluator.Stats
}

// Service defines the interface for running a single evaluation from an
// AppConfig. This abstraction enables dependency injection and easier
// testing/mocking.
type Service interface {
	Evaluate(cfg config.AppConfig) (*Result, error)
}

// EvaluationService generates a point cloud per cfg, builds an octree over
// it, selects the named kernel, and runs the evaluator. It centralizes the
// max-body-count guard the HTTP server and CLI both need.
type EvaluationService struct {
	maxBodies int
}

var _ Service = (*EvaluationService)(nil)

// NewEvaluationService creates an EvaluationService. maxBodies of 0 means
// no limit.
func NewEvaluationService(maxBodies int) *EvaluationService {
	return &EvaluationService{maxBodies: maxBodies}
}

// Evaluate runs a single FMM/Treecode evaluation per cfg: it generates
// cfg.NumBodies points from cfg.Distribution, builds an octree with leaf
// capacity cfg.MaxLeafSize, gives every body a unit charge, and evaluates
// the configured kernel under cfg.ToOptions(). The whole run is wrapped in
// an otel span so the upward/traversal/downward passes show up as a single
// unit of work in a connected trace backend.
func (s *EvaluationService) Evaluate(cfg config.AppConfig) (*Result, error) {
	_, span := tracer.Start(context.Background(), "EvaluationService.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("fmmeval.num_bodies", cfg.NumBodies),
		attribute.String("fmmeval.mode", cfg.Mode),
		attribute.String("fmmeval.kernel", cfg.Kernel),
		attribute.Float64("fmmeval.theta", cfg.Theta),
	)

	if s.maxBodies > 0 && cfg.NumBodies > s.maxBodies {
		return nil, ErrMaxBodiesExceeded
	}

	points, err := GeneratePoints(cfg.Distribution, cfg.NumBodies, cfg.Seed)
	if err != nil {
		return nil, err
	}

	tree := spatial.Build(points, cfg.MaxLeafSize)

	charges := make([]float64, len(points))
	for i := range charges {
		charges[i] = 1
	}
	orderedCharges := make([]float64, len(points))
	evaluator.Reorder(tree, charges, orderedCharges)

	orderedResults := make([]float64, len(points))
	opt := cfg.ToOptions()

	var stats evaluator.Stats
	var orderedGradients []geom.Vec3
	switch cfg.Kernel {
	case "coulomb":
		stats, err = runEvaluation[kernel.Expansion, kernel.Expansion](tree, kernel.Coulomb{}, opt, orderedCharges, orderedResults)
	case "laplace":
		stats, err = runEvaluation[kernel.Expansion, kernel.Expansion](tree, kernel.Laplace{}, opt, orderedCharges, orderedResults)
	case "identity":
		stats, err = runEvaluation[float64, float64](tree, kernel.Identity{}, opt, orderedCharges, orderedResults)
	case "laplacegradient":
		var orderedFields []kernel.Result
		orderedFields, stats, err = runGradientEvaluation(tree, opt, orderedCharges)
		orderedGradients = make([]geom.Vec3, len(points))
		for i, r := range orderedFields {
			orderedResults[i] = r.Potential
			orderedGradients[i] = r.Grad
		}
	default:
		return nil, apperrors.NewConfigError("unrecognized kernel: %s", cfg.Kernel)
	}
	if err != nil {
		return nil, err
	}

	results := make([]float64, len(points))
	var gradients []geom.Vec3
	if orderedGradients != nil {
		gradients = make([]geom.Vec3, len(points))
	}
	order := tree.BodyOrder()
	for slot, orig := range order {
		results[orig] = orderedResults[slot]
		if gradients != nil {
			gradients[orig] = orderedGradients[slot]
		}
	}

	return &Result{Points: points, Charges: charges, Results: results, Gradients: gradients, Stats: stats}, nil
}

// runGradientEvaluation runs LaplaceGradient, whose result_type is
// kernel.Result rather than a bare float64: it is a separate instantiation
// from runEvaluation because Evaluator[M, L, C, R] is parameterized on R,
// and the evaluator core cannot mix result types within one call.
func runGradientEvaluation(tree *spatial.Tree, opt evaluator.Options, charges []float64) ([]kernel.Result, evaluator.Stats, error) {
	fields := make([]kernel.Result, len(charges))
	ev := evaluator.New(tree, kernel.LaplaceGradient{}, opt)
	err := ev.Evaluate(charges, fields)
	return fields, ev.Stats(), err
}

// runEvaluation instantiates a generic Evaluator for one concrete
// (multipole, local) expansion pair and runs it to completion. Kernels
// with different M/L types are different Evaluator instantiations, so
// Evaluate dispatches by an explicit type argument per kernel name rather
// than by a shared runtime interface.
func runEvaluation[M, L any](tree *spatial.Tree, k kernel.Operators[M, L, float64, float64], opt evaluator.Options, charges, results []float64) (evaluator.Stats, error) {
	ev := evaluator.New(tree, k, opt)
	err := ev.Evaluate(charges, results)
	return ev.Stats(), err
}
