package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// LaplaceGradient is the same 1/r kernel as Laplace, but its result_type is
// Result rather than a bare float64: it reports the field gradient
// alongside the potential, exercising the evaluator's generic result type
// end to end. The expansion math is identical to Laplace/Coulomb; only the
// point-evaluation operators (M2P, L2P, P2P) differ, since they are the
// only operators that touch result_type.
type LaplaceGradient struct{}

var _ Operators[Expansion, Expansion, float64, Result] = LaplaceGradient{}

func (LaplaceGradient) InitMultipole(m *Expansion, boxSize float64) { *m = newExpansion() }
func (LaplaceGradient) InitLocal(l *Expansion, boxSize float64)     { *l = newExpansion() }

func (LaplaceGradient) P2M(points []geom.Vec3, charges []float64, center geom.Vec3, m *Expansion) {
	cartesianP2M(points, charges, center, m)
}

func (LaplaceGradient) M2M(child *Expansion, parent *Expansion, t geom.Vec3) {
	cartesianM2M(child, parent, t)
}

func (LaplaceGradient) M2L(src *Expansion, tgt *Expansion, t geom.Vec3) {
	cartesianM2L(src, tgt, t)
}

func (LaplaceGradient) M2P(center geom.Vec3, m *Expansion, targets []geom.Vec3, results []Result) {
	e := *m
	if e == nil {
		return
	}
	m0 := mget(e, 0)
	m1 := dipole(e)
	m2 := quadrupole(e)
	for i, p := range targets {
		r := p.Sub(center)
		g := potential1OverR(r)
		gGrad := grad1OverR(r)
		gHess := hess1OverR(r)
		results[i].Add(Result{
			Potential: m0*g - dotV(m1, gGrad) + 0.5*quadraticTrace(m2, gHess),
			Grad:      gGrad.Scale(m0).Sub(hessApply(gHess, m1)),
		})
	}
}

func (LaplaceGradient) L2L(parent *Expansion, child *Expansion, t geom.Vec3) {
	cartesianL2L(parent, child, t)
}

func (LaplaceGradient) L2P(targets []geom.Vec3, results []Result, center geom.Vec3, l *Expansion) {
	e := *l
	if e == nil {
		return
	}
	l0 := mget(e, 0)
	l1 := dipole(e)
	l2 := quadrupole(e)
	for i, p := range targets {
		u := p.Sub(center)
		results[i].Add(Result{
			Potential: l0 + dotV(l1, u) + 0.5*hessQuadraticForm(l2, u),
			Grad:      l1.Add(hessApply(l2, u)),
		})
	}
}

func (LaplaceGradient) P2P(sources []geom.Vec3, srcCharges []float64, targets []geom.Vec3, results []Result) {
	for i, t := range targets {
		var acc Result
		for j, s := range sources {
			r := t.Sub(s)
			n := r.Norm()
			if n == 0 {
				continue
			}
			acc.Potential += srcCharges[j] / n
			acc.Grad = acc.Grad.Add(grad1OverR(r).Scale(srcCharges[j]))
		}
		results[i].Add(acc)
	}
}
