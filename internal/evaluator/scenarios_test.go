package evaluator

import (
	"math"
	"testing"

	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

// cubeCorners returns the 8 corners of a cube of the given half-width
// centered at the origin.
func cubeCorners(halfWidth float64) []geom.Vec3 {
	pts := make([]geom.Vec3, 0, 8)
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				pts = append(pts, geom.Vec3{X: sx * halfWidth, Y: sy * halfWidth, Z: sz * halfWidth})
			}
		}
	}
	return pts
}

func unitCharges(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = 1
	}
	return c
}

// TestScenarioS1 verifies a single source/target pair reduces to the
// identity kernel's sum-of-charges semantics.
func TestScenarioS1(t *testing.T) {
	pts := []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	tree := spatial.Build(pts, 4)
	charges := make([]float64, 2)
	Reorder(tree, []float64{1, 0}, charges)

	results := make([]float64, 2)
	if err := Evaluate[float64, float64](tree, kernel.Identity{}, Options{Mode: ModeTreecode, Theta: 0.5}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	order := tree.BodyOrder()
	targetResult := results[indexOf(order, 1)]
	if targetResult != 1 {
		t.Errorf("target result = %v, want 1", targetResult)
	}
}

func indexOf(order []int, orig int) int {
	for slot, o := range order {
		if o == orig {
			return slot
		}
	}
	panic("not found")
}

// TestScenarioS2 verifies 8 sources at cube corners under Treecode mode:
// every target sees the full sum of 8 charges.
func TestScenarioS2(t *testing.T) {
	pts := cubeCorners(1)
	tree := spatial.Build(pts, 1) // force 1 root + 8 leaves
	charges := make([]float64, 8)
	Reorder(tree, unitCharges(8), charges)

	results := make([]float64, 8)
	if err := Evaluate[float64, float64](tree, kernel.Identity{}, Options{Mode: ModeTreecode, Theta: 0.5}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	for i, r := range results {
		if r != 8 {
			t.Errorf("result[%d] = %v, want 8", i, r)
		}
	}
}

// TestScenarioS3 is S2 under FMM mode instead of Treecode.
func TestScenarioS3(t *testing.T) {
	pts := cubeCorners(1)
	tree := spatial.Build(pts, 1)
	charges := make([]float64, 8)
	Reorder(tree, unitCharges(8), charges)

	results := make([]float64, 8)
	if err := Evaluate[float64, float64](tree, kernel.Identity{}, Options{Mode: ModeFMM, Theta: 0.5}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	for i, r := range results {
		if math.Abs(r-8) > 1e-9 {
			t.Errorf("result[%d] = %v, want 8 (within eps)", i, r)
		}
	}
}

// TestScenarioS4 runs Treecode mode at theta=1.0, the most permissive
// threshold the MAC accepts, so far-field (M2P) dispatch occurs alongside
// P2P. The Identity kernel adds exact integer counts on every path, so the
// result still matches a naive direct sum bit-exactly.
func TestScenarioS4(t *testing.T) {
	pts := randomPoints(64, 7)
	tree := spatial.Build(pts, 8)
	charges := make([]float64, 64)
	Reorder(tree, unitCharges(64), charges)

	results := make([]float64, 64)
	if err := Evaluate[float64, float64](tree, kernel.Identity{}, Options{Mode: ModeTreecode, Theta: 1.0}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	direct := make([]float64, 64)
	Direct[float64, float64](kernel.Identity{}, pts, unitCharges(64), direct)

	order := tree.BodyOrder()
	for slot, orig := range order {
		if results[slot] != direct[orig] {
			t.Errorf("body %d: treecode=%v direct=%v, want bit-exact match", orig, results[slot], direct[orig])
		}
	}
}

// TestScenarioS5 checks FMM accuracy against a direct sum at theta=0.3 with
// the Coulomb kernel, requiring a maximum relative error of at most 1%.
func TestScenarioS5(t *testing.T) {
	pts := randomPoints(64, 11)
	tree := spatial.Build(pts, 8)
	chargesOrig := make([]float64, 64)
	for i := range chargesOrig {
		chargesOrig[i] = 1 + float64(i%5)*0.1
	}
	charges := make([]float64, 64)
	Reorder(tree, chargesOrig, charges)

	results := make([]float64, 64)
	k := kernel.Coulomb{}
	if err := Evaluate[kernel.Expansion, kernel.Expansion](tree, k, Options{Mode: ModeFMM, Theta: 0.3}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	direct := make([]float64, 64)
	Direct[kernel.Expansion, kernel.Expansion](k, pts, chargesOrig, direct)

	order := tree.BodyOrder()
	var maxRelErr float64
	for slot, orig := range order {
		d := direct[orig]
		if d == 0 {
			continue
		}
		relErr := math.Abs((results[slot]-d)/d)
		if relErr > maxRelErr {
			maxRelErr = relErr
		}
	}
	const maxAllowed = 1e-2
	if maxRelErr > maxAllowed {
		t.Errorf("max relative error = %v, want <= %v", maxRelErr, maxAllowed)
	}
}

// TestScenarioS6 checks a deep, lopsided tree: 20 collinear bodies 1e-6
// apart leave most octants of every split without bodies. Build creates no
// box for an empty octant, so the test checks that such a tree still gives
// every target the exact total, with nothing lost or counted twice.
func TestScenarioS6(t *testing.T) {
	pts := make([]geom.Vec3, 20)
	for i := range pts {
		pts[i] = geom.Vec3{X: float64(i) * 1e-6, Y: 0, Z: 0}
	}
	// Force a deep split by using a tiny leaf capacity relative to body
	// count; most octants of each split hold no bodies.
	tree := spatial.Build(pts, 2)
	charges := make([]float64, 20)
	Reorder(tree, unitCharges(20), charges)

	results := make([]float64, 20)
	if err := Evaluate[float64, float64](tree, kernel.Identity{}, Options{Mode: ModeFMM, Theta: 0.5}, charges, results); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	for i, r := range results {
		if math.Abs(r-20) > 1e-9 {
			t.Errorf("result[%d] = %v, want 20 (within eps)", i, r)
		}
	}
}
