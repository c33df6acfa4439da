package kernel

import (
	"math"
	"testing"

	"github.com/agbru/fmmeval/pkg/geom"
)

func expansionsClose(t *testing.T, got, want Expansion, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(real(got[i])-real(want[i])) > tol {
			t.Errorf("coefficient %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestM2MMatchesDirectP2MAtParentCenter(t *testing.T) {
	points := []geom.Vec3{
		{X: 1, Y: 0.5, Z: -0.2},
		{X: -0.3, Y: 1.1, Z: 0.4},
		{X: 0.2, Y: -0.6, Z: 0.9},
	}
	charges := []float64{1.5, -0.7, 2.2}

	childCenter := geom.Vec3{X: 1, Y: 1, Z: 1}
	parentCenter := geom.Vec3{X: 0, Y: 0, Z: 0}

	var childM Expansion
	Coulomb{}.InitMultipole(&childM, 1)
	Coulomb{}.P2M(points, charges, childCenter, &childM)

	var parentViaM2M Expansion
	Coulomb{}.InitMultipole(&parentViaM2M, 2)
	Coulomb{}.M2M(&childM, &parentViaM2M, parentCenter.Sub(childCenter))

	var parentDirect Expansion
	Coulomb{}.InitMultipole(&parentDirect, 2)
	Coulomb{}.P2M(points, charges, parentCenter, &parentDirect)

	expansionsClose(t, parentViaM2M, parentDirect, 1e-9)
}

func TestP2PAndM2PAgreeForFarSeparation(t *testing.T) {
	cases := []struct {
		name      string
		sources   []geom.Vec3
		charges   []float64
		center    geom.Vec3
		targets   []geom.Vec3
		tolerance float64
	}{
		{
			name:      "small dipole, far separation",
			sources:   []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0.1, Y: -0.1, Z: 0.05}},
			charges:   []float64{1.0, 2.0},
			center:    geom.Vec3{X: 0.05, Y: -0.05, Z: 0.025},
			targets:   []geom.Vec3{{X: 50, Y: 50, Z: 50}},
			tolerance: 1e-3,
		},
		{
			// A pure dipole (zero monopole, zero quadrupole: charges +1/-1
			// at +-1 along x cancel the monopole and quadrupole moments,
			// leaving only M1) at a separation of 8 along the dipole axis,
			// isolating the dipole cross term. A sign error there flips
			// the sign of the entire approximation relative to the direct
			// sum, which a loose tolerance on a near-zero-dipole case
			// (like the one above) cannot detect.
			name:      "pure dipole, closer separation",
			sources:   []geom.Vec3{{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}},
			charges:   []float64{1.0, -1.0},
			center:    geom.Vec3{X: 0, Y: 0, Z: 0},
			targets:   []geom.Vec3{{X: 8, Y: 0, Z: 0}},
			tolerance: 0.05,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var m Expansion
			Coulomb{}.InitMultipole(&m, 1)
			Coulomb{}.P2M(c.sources, c.charges, c.center, &m)

			approx := make([]float64, 1)
			Coulomb{}.M2P(c.center, &m, c.targets, approx)

			direct := make([]float64, 1)
			Coulomb{}.P2P(c.sources, c.charges, c.targets, direct)

			relErr := math.Abs(approx[0]-direct[0]) / math.Abs(direct[0])
			if relErr > c.tolerance {
				t.Errorf("multipole approximation diverges too much: got %v, want ~%v (rel err %v, tolerance %v)", approx[0], direct[0], relErr, c.tolerance)
			}
		})
	}
}

func TestIdentityKernelSumsCharges(t *testing.T) {
	var m float64
	Identity{}.InitMultipole(&m, 1)
	Identity{}.P2M(nil, []float64{1, 2, 3}, geom.Vec3{}, &m)
	if m != 6 {
		t.Fatalf("expected P2M to sum charges to 6, got %v", m)
	}

	results := make([]float64, 2)
	Identity{}.M2P(geom.Vec3{}, &m, make([]geom.Vec3, 2), results)
	for _, r := range results {
		if r != 6 {
			t.Errorf("expected M2P to copy 6 into every result, got %v", r)
		}
	}
}
