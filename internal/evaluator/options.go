// Package evaluator is the core of the module: the traversal and dispatch
// engine that, given a built octree and a kernel satisfying
// internal/kernel.Operators, orchestrates the upward sweep, the dual-tree
// traversal, and the downward sweep.
package evaluator

// Mode selects the evaluator's algorithmic variant: the admissible-pair
// dispatch (M2L vs M2P) and whether the downward pass runs at all. It
// replaces what would otherwise be a class hierarchy (FMMEvaluator,
// TreecodeEvaluator) with a single generic Evaluator plus a mode tag and
// two small dispatch points, the same way a strategy interface dispatches
// on a predicate instead of subclassing.
type Mode string

const (
	// ModeFMM uses M2L to accumulate far-field contributions into the
	// local expansion, followed by a downward pass (L2L, L2P).
	ModeFMM Mode = "fmm"
	// ModeTreecode uses M2P to evaluate far-field contributions directly
	// at target points during traversal; the downward pass is a no-op.
	ModeTreecode Mode = "treecode"
)

// Options configures a single evaluation: mode and theta are the two
// required fields; Parallel is an additive, implementer-chosen knob for
// the allowed-but-not-required intra-level parallelism.
type Options struct {
	// Mode selects FMM or Treecode dispatch.
	Mode Mode
	// Theta is the multipole acceptance threshold, in (0, 1]. Smaller is
	// more accurate and slower. Typical values are 0.4-0.7.
	Theta float64
	// Parallel enables intra-level parallel-for in the upward and downward
	// passes. The dual-tree traversal itself remains single-threaded: it
	// mutates the shared local-expansion store per popped pair and
	// parallelizing it safely requires either per-box locking or a
	// reduction, which this implementation does not attempt.
	Parallel bool
}

// DefaultOptions returns the evaluator's recommended starting point: FMM
// mode with a mid-range theta.
func DefaultOptions() Options {
	return Options{Mode: ModeFMM, Theta: 0.5}
}
