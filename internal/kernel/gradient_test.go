package kernel

import (
	"math"
	"testing"

	"github.com/agbru/fmmeval/pkg/geom"
)

// TestLaplaceGradientM2PAgreesWithDirectSum exercises a pure dipole (zero
// monopole, zero quadrupole) at a moderate separation, isolating the
// multipole's dipole cross term in both the potential and the gradient. A
// sign error in either flips the approximation relative to the direct sum,
// which this case's tolerance is tight enough to catch.
func TestLaplaceGradientM2PAgreesWithDirectSum(t *testing.T) {
	sources := []geom.Vec3{{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}}
	charges := []float64{1.0, -1.0}
	center := geom.Vec3{X: 0, Y: 0, Z: 0}
	targets := []geom.Vec3{{X: 8, Y: 0, Z: 0}}

	var m Expansion
	LaplaceGradient{}.InitMultipole(&m, 1)
	LaplaceGradient{}.P2M(sources, charges, center, &m)

	approx := make([]Result, 1)
	LaplaceGradient{}.M2P(center, &m, targets, approx)

	direct := make([]Result, 1)
	LaplaceGradient{}.P2P(sources, charges, targets, direct)

	const tolerance = 0.05

	potErr := math.Abs(approx[0].Potential-direct[0].Potential) / math.Abs(direct[0].Potential)
	if potErr > tolerance {
		t.Errorf("potential diverges too much: got %v, want ~%v (rel err %v)", approx[0].Potential, direct[0].Potential, potErr)
	}

	gradErr := approx[0].Grad.Sub(direct[0].Grad).Norm() / direct[0].Grad.Norm()
	if gradErr > tolerance {
		t.Errorf("gradient diverges too much: got %v, want ~%v (rel err %v)", approx[0].Grad, direct[0].Grad, gradErr)
	}
}
