// Package kernel defines the evaluator's kernel collaborator contract and
// ships a handful of concrete kernels satisfying it. The contract is
// expressed as a generic interface rather than a class hierarchy: a
// capability set parameterized by the types it operates over, selected at
// construction. The evaluator holds the kernel as an interface value, so
// operator calls are dispatched dynamically.
package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// Expansion is the coefficient storage for a multipole or local expansion.
// Coefficients are stored as complex128 to accommodate kernels whose
// expansion basis is genuinely complex (e.g. spherical harmonics); the
// Cartesian-moment kernels in this package only ever populate the real part.
type Expansion []complex128

// Result is a richer accumulator than a bare scalar, for kernels that report
// both a potential and its gradient. Kernels that only need a scalar
// potential use float64 directly as their result_type instead.
type Result struct {
	Potential float64
	Grad      geom.Vec3
}

// Add accumulates other into r, matching the "all operators accumulate into
// their output argument" contract.
func (r *Result) Add(other Result) {
	r.Potential += other.Potential
	r.Grad = r.Grad.Add(other.Grad)
}

// Operators is the evaluator's kernel collaborator contract: the eight
// translation operators a hierarchical evaluator needs, parameterized over
// the multipole type M, the local type L, the charge type C and the result
// type R. All eight operators accumulate into their named output argument;
// none of them return an error, matching the "kernel operators are assumed
// total" failure-semantics contract.
type Operators[M, L, C, R any] interface {
	// InitMultipole zero-initializes a box's multipole expansion for a box
	// of the given side length.
	InitMultipole(m *M, boxSize float64)

	// InitLocal zero-initializes a box's local expansion for a box of the
	// given side length.
	InitLocal(l *L, boxSize float64)

	// P2M accumulates the multipole expansion of the given points/charges,
	// taken about center, into m.
	P2M(points []geom.Vec3, charges []C, center geom.Vec3, m *M)

	// M2M shifts a child's multipole (about the child's center) by
	// translation t and accumulates it into the parent's multipole.
	M2M(child *M, parent *M, t geom.Vec3)

	// M2L converts a source box's multipole, separated from the target box
	// by translation t, into a contribution to the target's local
	// expansion.
	M2L(src *M, tgt *L, t geom.Vec3)

	// M2P evaluates a source multipole (about center) directly at each of
	// the given target points, accumulating into results.
	M2P(center geom.Vec3, m *M, targets []geom.Vec3, results []R)

	// L2L shifts a parent's local expansion by translation t and
	// accumulates it into the child's local expansion.
	L2L(parent *L, child *L, t geom.Vec3)

	// L2P evaluates a local expansion (about center) at each of the given
	// target points, accumulating into results.
	L2P(targets []geom.Vec3, results []R, center geom.Vec3, l *L)

	// P2P computes the direct, one-sided pairwise interaction of sources on
	// targets, accumulating into results. It writes only into the targets'
	// results, never the sources'.
	P2P(sources []geom.Vec3, srcCharges []C, targets []geom.Vec3, results []R)
}
