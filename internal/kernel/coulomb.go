package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// Coulomb is the 1/r potential kernel: charges are source strengths,
// results are accumulated scalar potentials. Its multipole/local
// expansions are truncated Cartesian Taylor series (monopole, dipole,
// quadrupole) of the Coulomb potential, following the classic FMM
// multipole-to-local translation scheme.
type Coulomb struct{}

var _ Operators[Expansion, Expansion, float64, float64] = Coulomb{}

func (Coulomb) InitMultipole(m *Expansion, boxSize float64) { *m = newExpansion() }
func (Coulomb) InitLocal(l *Expansion, boxSize float64)     { *l = newExpansion() }

func (Coulomb) P2M(points []geom.Vec3, charges []float64, center geom.Vec3, m *Expansion) {
	cartesianP2M(points, charges, center, m)
}

func (Coulomb) M2M(child *Expansion, parent *Expansion, t geom.Vec3) {
	cartesianM2M(child, parent, t)
}

func (Coulomb) M2L(src *Expansion, tgt *Expansion, t geom.Vec3) {
	cartesianM2L(src, tgt, t)
}

func (Coulomb) M2P(center geom.Vec3, m *Expansion, targets []geom.Vec3, results []float64) {
	cartesianM2P(center, m, targets, results)
}

func (Coulomb) L2L(parent *Expansion, child *Expansion, t geom.Vec3) {
	cartesianL2L(parent, child, t)
}

func (Coulomb) L2P(targets []geom.Vec3, results []float64, center geom.Vec3, l *Expansion) {
	cartesianL2P(targets, results, center, l)
}

func (Coulomb) P2P(sources []geom.Vec3, srcCharges []float64, targets []geom.Vec3, results []float64) {
	cartesianP2P(sources, srcCharges, targets, results)
}
