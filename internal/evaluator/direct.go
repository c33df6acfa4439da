package evaluator

import (
	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/pkg/geom"
)

// Direct computes the same pairwise sum the evaluator approximates, using a
// single O(N^2) P2P call over the full point set against itself. It exists
// only for tests: it is the reference against which the M[] invariant,
// Treecode idempotence, and FMM convergence properties are checked.
func Direct[M, L, C, R any](k kernel.Operators[M, L, C, R], points []geom.Vec3, charges []C, results []R) {
	k.P2P(points, charges, points, results)
}
