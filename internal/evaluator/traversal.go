package evaluator

import (
	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

// Stats records dispatch counts from a single traversal, for observability
// (exported to Prometheus by internal/server, printed by internal/cli).
type Stats struct {
	// P2P is the number of inadmissible leaf-leaf pairs resolved by direct
	// summation.
	P2P int
	// FarField is the number of admissible pairs resolved by M2L (FMM mode)
	// or M2P (Treecode mode).
	FarField int
	// PairsVisited is the total number of (box, box) pairs popped from the
	// traversal queue, admissible or not.
	PairsVisited int
}

type boxPair struct {
	b1, b2 spatial.Box
}

// dispatchEvent is reported to an optional recorder for each pair the
// traversal resolves, for tests that need to observe dispatch decisions
// directly rather than inferring them from Stats (completeness of
// visitation, MAC correctness, one-sided P2P exactly-once).
type dispatchEvent struct {
	kind   string // "farfield" or "p2p"
	b1, b2 spatial.Box
}

// traverse runs the dual-tree traversal: a FIFO queue of (box, box) pairs
// seeded at (root, root). Each popped pair is tested against the multipole
// acceptance criterion; admissible pairs are dispatched to M2L or M2P
// depending on mode, inadmissible leaf-leaf pairs resolve via P2P, and all
// other inadmissible pairs are refined by splitting the larger box (ties
// split b2). The traversal terminates because every refinement strictly
// decreases the maximum side length in the queue and the tree has finite
// depth. record, if non-nil, is called for every admissible or P2P
// dispatch; production calls pass nil.
func traverse[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], store *Store[M, L], charges []C, results []R, opt Options, record func(dispatchEvent)) Stats {
	var stats Stats

	queue := []boxPair{{tree.Root(), tree.Root()}}
	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		stats.PairsVisited++

		b1, b2 := pair.b1, pair.b2
		d := b1.Center().Dist(b2.Center())
		s := 0.5*b1.SideLength() + 0.5*b2.SideLength()

		switch {
		case d*opt.Theta > s:
			// Admissible: well-separated relative to size.
			stats.FarField++
			dispatchAdmissible(k, store, charges, results, opt.Mode, b1, b2)
			if record != nil {
				record(dispatchEvent{"farfield", b1, b2})
			}

		case b1.IsLeaf() && b2.IsLeaf():
			// Inadmissible and both leaves: direct interaction, one-sided.
			stats.P2P++
			dispatchP2P(k, charges, results, b1, b2)
			if record != nil {
				record(dispatchEvent{"p2p", b1, b2})
			}

		default:
			// Inadmissible, at least one internal: split the larger box.
			// Equal sizes: split b2 (the canonical tie-break per design).
			if b2.IsLeaf() || (!b1.IsLeaf() && b1.SideLength() > b2.SideLength()) {
				for _, c := range b1.Children() {
					queue = append(queue, boxPair{c, b2})
				}
			} else {
				for _, c := range b2.Children() {
					queue = append(queue, boxPair{b1, c})
				}
			}
		}
	}
	return stats
}

// dispatchAdmissible handles a pair that satisfies the multipole acceptance
// criterion: FMM mode accumulates b1's multipole into b2's local expansion
// (M2L); Treecode mode evaluates b1's multipole directly at b2's targets
// (M2P).
func dispatchAdmissible[M, L, C, R any](k kernel.Operators[M, L, C, R], store *Store[M, L], charges []C, results []R, mode Mode, b1, b2 spatial.Box) {
	switch mode {
	case ModeTreecode:
		start, count := b2.BodyRange()
		if count == 0 {
			return
		}
		targets := boxPoints(b2)
		k.M2P(b1.Center(), &store.M[b1.Index()], targets, results[start:start+count])
	default: // ModeFMM
		t := b2.Center().Sub(b1.Center())
		k.M2L(&store.M[b1.Index()], &store.L[b2.Index()], t)
	}
}

// dispatchP2P resolves an inadmissible leaf-leaf pair by direct summation,
// one-sided: sources in b1 act on targets in b2 only.
func dispatchP2P[M, L, C, R any](k kernel.Operators[M, L, C, R], charges []C, results []R, b1, b2 spatial.Box) {
	srcStart, srcCount := b1.BodyRange()
	tgtStart, tgtCount := b2.BodyRange()
	if srcCount == 0 || tgtCount == 0 {
		return
	}
	sources := boxPoints(b1)
	srcCharges := charges[srcStart : srcStart+srcCount]
	targets := boxPoints(b2)
	k.P2P(sources, srcCharges, targets, results[tgtStart:tgtStart+tgtCount])
}

// boxPoints gathers a box's body locations into a fresh slice, in the same
// order as BodyRange addresses charges/results.
func boxPoints(b spatial.Box) []geom.Vec3 {
	bodies := b.Bodies()
	points := make([]geom.Vec3, len(bodies))
	for i, body := range bodies {
		points[i] = body.Point()
	}
	return points
}
