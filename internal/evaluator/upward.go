package evaluator

import (
	"sync"

	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/parallel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

// upward performs the bottom-up sweep: for every level from deepest up to
// the root, initialize each box's multipole and local expansion, then
// either gather the box's bodies into a P2M call (leaves) or shift each
// child's multipole into the box via M2M (internal boxes). Ordering across
// levels is mandatory (deepest-first, since M2M reads children's M); within
// a level it is free, which is what runLevel's parallel-for exploits.
func upward[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], store *Store[M, L], charges []C, opt Options) error {
	for level := tree.NumLevels() - 1; level >= 0; level-- {
		boxes := tree.BoxesAtLevel(level)
		err := runLevel(boxes, opt.Parallel, func(b spatial.Box) error {
			idx := b.Index()
			k.InitMultipole(&store.M[idx], b.SideLength())
			k.InitLocal(&store.L[idx], b.SideLength())

			if b.IsLeaf() {
				start, count := b.BodyRange()
				if count == 0 {
					return nil
				}
				points := make([]geom.Vec3, count)
				boxCharges := make([]C, count)
				for i, body := range b.Bodies() {
					points[i] = body.Point()
					boxCharges[i] = charges[start+i]
				}
				k.P2M(points, boxCharges, b.Center(), &store.M[idx])
				return nil
			}

			for _, c := range b.Children() {
				t := b.Center().Sub(c.Center())
				k.M2M(&store.M[c.Index()], &store.M[idx], t)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// runLevel executes fn for every box in boxes, either sequentially or as a
// parallel-for across a single level's worth of boxes. It reduces a
// pointer-constrained task-batch pattern to a simple per-box callback,
// since the upward/downward passes have no analogue of a typed "task"
// struct to dispatch on.
func runLevel(boxes []spatial.Box, inParallel bool, fn func(spatial.Box) error) error {
	if !inParallel || len(boxes) <= 1 {
		for _, b := range boxes {
			if err := fn(b); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var ec parallel.ErrorCollector
	wg.Add(len(boxes))
	for _, b := range boxes {
		go func(b spatial.Box) {
			defer wg.Done()
			ec.SetError(fn(b))
		}(b)
	}
	wg.Wait()
	return ec.Err()
}
