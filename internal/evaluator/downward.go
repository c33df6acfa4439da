package evaluator

import (
	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

// downward performs the top-down sweep: for every level from the root down
// to the deepest, either shift the box's local expansion into each child
// via L2L (internal boxes) or evaluate it at the box's bodies via L2P
// (leaves), accumulating into results. It is only meaningful in FMM mode;
// Treecode mode never calls it, since M2P already wrote directly into
// results during traversal and no local expansion was ever populated.
func downward[M, L, C, R any](tree *spatial.Tree, k kernel.Operators[M, L, C, R], store *Store[M, L], results []R, opt Options) error {
	for level := 0; level < tree.NumLevels(); level++ {
		boxes := tree.BoxesAtLevel(level)
		err := runLevel(boxes, opt.Parallel, func(b spatial.Box) error {
			idx := b.Index()

			if b.IsLeaf() {
				start, count := b.BodyRange()
				if count == 0 {
					return nil
				}
				targets := make([]geom.Vec3, count)
				for i, body := range b.Bodies() {
					targets[i] = body.Point()
				}
				k.L2P(targets, results[start:start+count], b.Center(), &store.L[idx])
				return nil
			}

			for _, c := range b.Children() {
				t := c.Center().Sub(b.Center())
				k.L2L(&store.L[idx], &store.L[c.Index()], t)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
