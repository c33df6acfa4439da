package evaluator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/fmmeval/internal/kernel"
	"github.com/agbru/fmmeval/internal/spatial"
	"github.com/agbru/fmmeval/pkg/geom"
)

// randomPoints generates n deterministic pseudo-random points in [0, 10)^3
// from seed, for property tests that need many different point clouds
// without depending on external data.
func randomPoints(n int, seed int64) []geom.Vec3 {
	r := rand.New(rand.NewSource(seed))
	pts := make([]geom.Vec3, n)
	for i := range pts {
		pts[i] = geom.Vec3{X: r.Float64() * 10, Y: r.Float64() * 10, Z: r.Float64() * 10}
	}
	return pts
}

// leafIDs returns the box ids of every leaf in the tree.
func leafIDs(b spatial.Box) []int {
	if b.IsLeaf() {
		return []int{b.Index()}
	}
	var out []int
	for _, c := range b.Children() {
		out = append(out, leafIDs(c)...)
	}
	return out
}

// descendantLeafIDs returns the box ids of every leaf in b's subtree,
// including b itself when b is already a leaf.
func descendantLeafIDs(b spatial.Box) []int {
	return leafIDs(b)
}

// TestCompletenessAndOneSidedness_PropertyBased checks properties 1, 2 and 6
// together: every ordered (leaf, leaf) pair is covered by exactly one
// dispatch event (P2P directly, or a farfield event whose box pair subsumes
// it), and every farfield event satisfies the multipole acceptance
// criterion.
func TestCompletenessAndOneSidedness_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("traversal covers every ordered leaf pair exactly once and respects the MAC", prop.ForAll(
		func(n int, seed int64, thetaPct int) bool {
			pts := randomPoints(n, seed)
			tree := spatial.Build(pts, 4)
			theta := float64(thetaPct) / 100.0

			k := kernel.Identity{}
			store := NewStore[float64, float64](tree.NumBoxes())
			charges := make([]float64, n)
			for i := range charges {
				charges[i] = 1
			}
			results := make([]float64, n)

			if err := upward(tree, k, store, charges, Options{Theta: theta}); err != nil {
				t.Logf("upward failed: %v", err)
				return false
			}

			var events []dispatchEvent
			record := func(e dispatchEvent) { events = append(events, e) }
			traverse(tree, k, store, charges, results, Options{Mode: ModeTreecode, Theta: theta}, record)

			leaves := leafIDs(tree.Root())
			coverage := make(map[[2]int]int, len(leaves)*len(leaves))

			for _, e := range events {
				switch e.kind {
				case "farfield":
					d := e.b1.Center().Dist(e.b2.Center())
					s := 0.5*e.b1.SideLength() + 0.5*e.b2.SideLength()
					if !(d*theta > s) {
						t.Logf("farfield pair fails MAC: d=%v theta=%v s=%v", d, theta, s)
						return false
					}
					for _, l1 := range descendantLeafIDs(e.b1) {
						for _, l2 := range descendantLeafIDs(e.b2) {
							coverage[[2]int{l1, l2}]++
						}
					}
				case "p2p":
					if !e.b1.IsLeaf() || !e.b2.IsLeaf() {
						t.Logf("p2p event on non-leaf box")
						return false
					}
					coverage[[2]int{e.b1.Index(), e.b2.Index()}]++
				}
			}

			for _, l1 := range leaves {
				for _, l2 := range leaves {
					if coverage[[2]int{l1, l2}] != 1 {
						t.Logf("ordered leaf pair (%d, %d) covered %d times, want 1", l1, l2, coverage[[2]int{l1, l2}])
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.Int64Range(1, 1<<30),
		gen.IntRange(10, 100),
	))

	properties.TestingRun(t)
}

// TestMultipoleInvariant_PropertyBased checks property 3: after the upward
// sweep, every box's multipole, when evaluated against an independent
// reference P2M taken directly over all bodies in its subtree about its own
// center, agrees with the upward pass's accumulated value (built via P2M at
// the leaves and M2M shifts above them).
func TestMultipoleInvariant_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("a box's multipole matches an independent P2M over its whole subtree", prop.ForAll(
		func(n int, seed int64) bool {
			pts := randomPoints(n, seed)
			tree := spatial.Build(pts, 4)
			k := kernel.Identity{}
			store := NewStore[float64, float64](tree.NumBoxes())
			charges := make([]float64, n)
			for i := range charges {
				charges[i] = 1
			}

			if err := upward(tree, k, store, charges, Options{Theta: 0.5}); err != nil {
				t.Logf("upward failed: %v", err)
				return false
			}

			for level := 0; level < tree.NumLevels(); level++ {
				for _, b := range tree.BoxesAtLevel(level) {
					bodies := b.Bodies()
					if len(bodies) == 0 {
						continue
					}
					start, count := b.BodyRange()
					points := make([]geom.Vec3, count)
					boxCharges := make([]float64, count)
					for i, body := range bodies {
						points[i] = body.Point()
						boxCharges[i] = charges[start+i]
					}
					var reference float64
					k.P2M(points, boxCharges, b.Center(), &reference)
					id := b.Index()
					if math.Abs(reference-store.M[id]) > 1e-9 {
						t.Logf("box %d: upward M=%v, reference P2M=%v", id, store.M[id], reference)
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 60),
		gen.Int64Range(1, 1<<30),
	))

	properties.TestingRun(t)
}

// TestTreecodeIdempotence_PropertyBased checks property 4: Treecode mode
// with theta near zero (forcing every admissible pair to refine all the way
// to P2P) reproduces the direct O(N^2) sum to within floating-point
// summation-order tolerance.
func TestTreecodeIdempotence_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("treecode at theta->0 matches the direct sum", prop.ForAll(
		func(n int, seed int64) bool {
			pts := randomPoints(n, seed)
			tree := spatial.Build(pts, 4)
			k := kernel.Identity{}

			origCharges := make([]float64, n)
			for i := range origCharges {
				origCharges[i] = 1
			}
			charges := make([]float64, n)
			Reorder(tree, origCharges, charges)

			results := make([]float64, n)
			if err := Evaluate[float64, float64](tree, k, Options{Mode: ModeTreecode, Theta: 1e-9}, charges, results); err != nil {
				t.Logf("Evaluate failed: %v", err)
				return false
			}

			direct := make([]float64, n)
			Direct[float64, float64](k, pts, origCharges, direct)

			order := tree.BodyOrder()
			for slot, orig := range order {
				if math.Abs(results[slot]-direct[orig]) > 1e-6 {
					t.Logf("body %d: treecode=%v direct=%v", orig, results[slot], direct[orig])
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.Int64Range(1, 1<<30),
	))

	properties.TestingRun(t)
}

// TestConvergence_PropertyBased checks property 5: as theta decreases
// toward zero, both FMM and Treecode results converge monotonically (in
// mean relative error) toward the direct-sum baseline.
func TestConvergence_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	thetas := []float64{0.9, 0.6, 0.3, 0.05}

	check := func(mode Mode, n int, seed int64) bool {
		pts := randomPoints(n, seed)
		tree := spatial.Build(pts, 4)
		k := kernel.Coulomb{}

		origCharges := make([]float64, n)
		rnd := rand.New(rand.NewSource(seed + 1))
		for i := range origCharges {
			origCharges[i] = 0.5 + rnd.Float64()
		}
		charges := make([]float64, n)
		Reorder(tree, origCharges, charges)

		direct := make([]float64, n)
		Direct[kernel.Expansion, kernel.Expansion](k, pts, origCharges, direct)
		order := tree.BodyOrder()
		directBySlot := make([]float64, n)
		for slot, orig := range order {
			directBySlot[slot] = direct[orig]
		}

		var prevErr float64 = math.Inf(1)
		for _, theta := range thetas {
			results := make([]float64, n)
			if err := Evaluate[kernel.Expansion, kernel.Expansion](tree, k, Options{Mode: mode, Theta: theta}, charges, results); err != nil {
				return false
			}
			var sumErr float64
			for i := range results {
				d := directBySlot[i]
				if math.Abs(d) < 1e-9 {
					continue
				}
				sumErr += math.Abs((results[i] - d) / d)
			}
			meanErr := sumErr / float64(n)
			// Allow a small tolerance for non-monotonic noise near machine
			// precision, where successive errors are both negligible.
			if meanErr > prevErr+1e-9 && prevErr > 1e-8 {
				return false
			}
			prevErr = meanErr
		}
		return true
	}

	properties.Property("FMM error shrinks as theta decreases", prop.ForAll(
		func(n int, seed int64) bool { return check(ModeFMM, n, seed) },
		gen.IntRange(8, 40),
		gen.Int64Range(1, 1<<30),
	))

	properties.Property("treecode error shrinks as theta decreases", prop.ForAll(
		func(n int, seed int64) bool { return check(ModeTreecode, n, seed) },
		gen.IntRange(8, 40),
		gen.Int64Range(1, 1<<30),
	))

	properties.TestingRun(t)
}
