package spatial

import (
	"testing"

	"github.com/agbru/fmmeval/pkg/geom"
)

func cubeCorners() []geom.Vec3 {
	pts := make([]geom.Vec3, 0, 8)
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			for _, z := range []float64{0, 1} {
				pts = append(pts, geom.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

func TestBuildCubeCornersOneLeafEach(t *testing.T) {
	tree := Build(cubeCorners(), 1)
	if tree.NumBoxes() != 9 {
		t.Fatalf("expected 1 root + 8 leaves = 9 boxes, got %d", tree.NumBoxes())
	}
	if tree.NumBodies() != 8 {
		t.Fatalf("expected 8 bodies, got %d", tree.NumBodies())
	}
	leaves := 0
	for _, b := range tree.Root().Children() {
		if !b.IsLeaf() {
			t.Fatalf("expected all children of a single-split cube to be leaves")
		}
		if b.NumBodies() != 1 {
			t.Fatalf("expected 1 body per leaf, got %d", b.NumBodies())
		}
		leaves++
	}
	if leaves != 8 {
		t.Fatalf("expected 8 children, got %d", leaves)
	}
}

func TestBuildContiguousBodyIndexing(t *testing.T) {
	pts := make([]geom.Vec3, 0, 64)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				pts = append(pts, geom.Vec3{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	tree := Build(pts, 4)

	var walk func(b Box)
	walk = func(b Box) {
		if b.IsLeaf() {
			start, count := b.BodyRange()
			bodies := b.Bodies()
			if len(bodies) != count {
				t.Fatalf("BodyRange count %d != len(Bodies()) %d", count, len(bodies))
			}
			for i, body := range bodies {
				if body.Index() != start+i {
					t.Fatalf("body indices not contiguous/sorted: slot %d has index %d, want %d", i, body.Index(), start+i)
				}
			}
			return
		}
		for _, c := range b.Children() {
			walk(c)
		}
	}
	walk(tree.Root())
}

func TestBuildSingleBody(t *testing.T) {
	tree := Build([]geom.Vec3{{X: 1, Y: 2, Z: 3}}, 4)
	if tree.NumBoxes() != 1 {
		t.Fatalf("expected single root leaf, got %d boxes", tree.NumBoxes())
	}
	if !tree.Root().IsLeaf() {
		t.Fatalf("expected root to be a leaf for a single body")
	}
}

func TestBuildCoincidentPointsTerminates(t *testing.T) {
	pts := make([]geom.Vec3, 10)
	for i := range pts {
		pts[i] = geom.Vec3{X: 1, Y: 1, Z: 1}
	}
	tree := Build(pts, 2)
	if !tree.Root().IsLeaf() {
		t.Fatalf("expected coincident points to force a single leaf")
	}
	if tree.Root().NumBodies() != 10 {
		t.Fatalf("expected all 10 bodies in the forced leaf, got %d", tree.Root().NumBodies())
	}
}

func TestInternalBoxBodyRangeSpansChildren(t *testing.T) {
	pts := make([]geom.Vec3, 0, 64)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				pts = append(pts, geom.Vec3{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	tree := Build(pts, 4)

	root := tree.Root()
	start, count := root.BodyRange()
	if start != 0 || count != tree.NumBodies() {
		t.Fatalf("expected root's range to cover all %d bodies, got [%d, %d)", tree.NumBodies(), start, start+count)
	}
	if len(root.Bodies()) != tree.NumBodies() {
		t.Fatalf("expected root.Bodies() to return all bodies, got %d", len(root.Bodies()))
	}

	var checkMonotonic func(b Box)
	checkMonotonic = func(b Box) {
		if b.IsLeaf() {
			return
		}
		prevEnd := -1
		for _, c := range b.Children() {
			cs, cc := c.BodyRange()
			if prevEnd != -1 && cs != prevEnd {
				t.Fatalf("children's body ranges are not contiguous: previous ended at %d, next starts at %d", prevEnd, cs)
			}
			prevEnd = cs + cc
			checkMonotonic(c)
		}
	}
	checkMonotonic(root)
}

func TestBoxesAtLevel(t *testing.T) {
	tree := Build(cubeCorners(), 1)
	level0 := tree.BoxesAtLevel(0)
	if len(level0) != 1 {
		t.Fatalf("expected exactly one box at level 0, got %d", len(level0))
	}
	level1 := tree.BoxesAtLevel(1)
	if len(level1) != 8 {
		t.Fatalf("expected 8 boxes at level 1, got %d", len(level1))
	}
}
