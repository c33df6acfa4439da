package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// Laplace is the free-space Laplace potential kernel. It shares Coulomb's
// functional form (both are the 1/r fundamental solution of Laplace's
// equation) but is kept as its own type so callers can select it by name
// and so a future screened or periodic variant can diverge without
// touching Coulomb.
type Laplace struct{}

var _ Operators[Expansion, Expansion, float64, float64] = Laplace{}

func (Laplace) InitMultipole(m *Expansion, boxSize float64) { *m = newExpansion() }
func (Laplace) InitLocal(l *Expansion, boxSize float64)     { *l = newExpansion() }

func (Laplace) P2M(points []geom.Vec3, charges []float64, center geom.Vec3, m *Expansion) {
	cartesianP2M(points, charges, center, m)
}

func (Laplace) M2M(child *Expansion, parent *Expansion, t geom.Vec3) {
	cartesianM2M(child, parent, t)
}

func (Laplace) M2L(src *Expansion, tgt *Expansion, t geom.Vec3) {
	cartesianM2L(src, tgt, t)
}

func (Laplace) M2P(center geom.Vec3, m *Expansion, targets []geom.Vec3, results []float64) {
	cartesianM2P(center, m, targets, results)
}

func (Laplace) L2L(parent *Expansion, child *Expansion, t geom.Vec3) {
	cartesianL2L(parent, child, t)
}

func (Laplace) L2P(targets []geom.Vec3, results []float64, center geom.Vec3, l *Expansion) {
	cartesianL2P(targets, results, center, l)
}

func (Laplace) P2P(sources []geom.Vec3, srcCharges []float64, targets []geom.Vec3, results []float64) {
	cartesianP2P(sources, srcCharges, targets, results)
}
