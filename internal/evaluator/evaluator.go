package evaluator

import (
	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
)

// Evaluator is the generic core: a single struct parameterized by the
// kernel's multipole type M, local type L, charge type C and result type R,
// holding an interface value of kernel.Operators[M, L, C, R]. This
// generalizes a "strategy interface plus a handful of concrete strategies"
// design to the eight-operator kernel contract: the mode tag
// (Options.Mode) plus two small dispatch points (dispatchAdmissible in
// traversal.go, and whether downward runs here) replace what would
// otherwise be an FMMEvaluator/TreecodeEvaluator class hierarchy.
//
// An Evaluator instance is single-shot: Idle -> Upward -> Traversing ->
// Downward -> Idle. Calling Evaluate a second time on the same instance is
// a contract violation.
type Evaluator[M, L, C, R any] struct {
	tree   *spatial.Tree
	kernel kernel.Operators[M, L, C, R]
	opt    Options
	store  *Store[M, L]
	pool   *Pool[M, L]
	used   bool
	stats  Stats
}

// New constructs an Evaluator over tree and k with the given options. Each
// call allocates its own Store; use NewWithPool to recycle Store buffers
// across many evaluations instead.
func New[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], opt Options) *Evaluator[M, L, C, R] {
	return &Evaluator[M, L, C, R]{tree: tree, kernel: k, opt: opt}
}

// NewWithPool constructs an Evaluator that acquires its Store from pool at
// Evaluate time and releases it back when Evaluate returns, so repeated
// evaluations over same-shaped trees (e.g. from a server or calibration
// loop) reuse M/L backing arrays instead of reallocating them.
func NewWithPool[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], opt Options, pool *Pool[M, L]) *Evaluator[M, L, C, R] {
	return &Evaluator[M, L, C, R]{tree: tree, kernel: k, opt: opt, pool: pool}
}

// Stats returns the dispatch counters from the most recently completed
// traversal. It is meaningless before Evaluate has run.
func (e *Evaluator[M, L, C, R]) Stats() Stats { return e.stats }

// Evaluate runs the evaluator's three passes in order: upward (P2M/M2M),
// traversal (MAC test, M2L/M2P/P2P dispatch), and, in FMM mode, downward
// (L2L/L2P). Precondition: len(charges) == len(results) == tree.NumBodies()
// and results is zero-initialized by the caller. Postcondition: results
// holds the accumulated interactions. Re-entry is forbidden: a second call
// on the same Evaluator returns a ContractViolationError without doing any
// work.
func (e *Evaluator[M, L, C, R]) Evaluate(charges []C, results []R) error {
	if e.used {
		return apperrors.NewContractViolationError("evaluator instance already used; construct a new one")
	}
	e.used = true

	n := e.tree.NumBodies()
	if len(charges) != n {
		return apperrors.NewContractViolationError("charges length %d does not match tree body count %d", len(charges), n)
	}
	if len(results) != n {
		return apperrors.NewContractViolationError("results length %d does not match tree body count %d", len(results), n)
	}
	switch e.opt.Mode {
	case ModeFMM, ModeTreecode:
	default:
		return apperrors.NewContractViolationError("unrecognized mode %q", e.opt.Mode)
	}
	if e.opt.Theta <= 0 || e.opt.Theta > 1 {
		return apperrors.NewContractViolationError("theta %v out of range (0, 1]", e.opt.Theta)
	}

	store := e.store
	var release func()
	if store == nil {
		if e.pool != nil {
			store, release = e.pool.Acquire(e.tree.NumBoxes())
			defer release()
		} else {
			store = NewStore[M, L](e.tree.NumBoxes())
		}
	}

	if err := upward(e.tree, e.kernel, store, charges, e.opt); err != nil {
		return err
	}

	e.stats = traverse(e.tree, e.kernel, store, charges, results, e.opt, nil)

	if e.opt.Mode == ModeFMM {
		if err := downward(e.tree, e.kernel, store, results, e.opt); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate is the module's functional entry point: it constructs a
// single-use Evaluator and runs it. Use New/NewWithPool directly when
// Stats() after completion, or Store reuse across calls, is needed.
func Evaluate[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], opt Options, charges []C, results []R) error {
	return New(tree, k, opt).Evaluate(charges, results)
}

// Reorder permutes src (ordered by the caller's original point array) into
// dst, ordered by the tree's contiguous body slots, using the permutation
// returned by tree.BodyOrder. dst must have the same length as src.
func Reorder[T any](tree *spatial.Tree, src []T, dst []T) {
	order := tree.BodyOrder()
	for slot, orig := range order {
		dst[slot] = src[orig]
	}
}
