package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// cartesianExpansion is the shared implementation behind Coulomb and
// Laplace: a truncated Cartesian multipole expansion of the 1/r potential,
// carried through monopole, dipole and quadrupole terms. Coefficient layout
// in an Expansion slice:
//
//	[0]       monopole     M0
//	[1:4]     dipole       M1.x, M1.y, M1.z
//	[4:10]    quadrupole   M2.xx, M2.yy, M2.zz, M2.xy, M2.xz, M2.yz
//
// Only the real part of each complex128 entry is used; the imaginary part
// is always zero for this real-valued moment basis.
const expansionLen = 10

func newExpansion() Expansion {
	return make(Expansion, expansionLen)
}

func mset(e Expansion, i int, v float64) { e[i] = complex(v, 0) }
func mget(e Expansion, i int) float64    { return real(e[i]) }

// potential1OverR returns g(r) = 1/|r|. r must be nonzero.
func potential1OverR(r geom.Vec3) float64 {
	return 1 / r.Norm()
}

// grad1OverR returns ∇(1/|r|) = -r/|r|^3.
func grad1OverR(r geom.Vec3) geom.Vec3 {
	n := r.Norm()
	inv3 := 1 / (n * n * n)
	return r.Scale(-inv3)
}

// hess1OverR returns the six independent entries of the symmetric Hessian
// of 1/|r|: (3 r_k r_l - |r|^2 delta_kl) / |r|^5, in the order
// [xx, yy, zz, xy, xz, yz].
func hess1OverR(r geom.Vec3) [6]float64 {
	n2 := r.X*r.X + r.Y*r.Y + r.Z*r.Z
	n := r.Norm()
	inv5 := 1 / (n2 * n2 * n)
	return [6]float64{
		(3*r.X*r.X - n2) * inv5,
		(3*r.Y*r.Y - n2) * inv5,
		(3*r.Z*r.Z - n2) * inv5,
		3 * r.X * r.Y * inv5,
		3 * r.X * r.Z * inv5,
		3 * r.Y * r.Z * inv5,
	}
}

// hessApply contracts a Hessian (packed [xx,yy,zz,xy,xz,yz]) with vector v
// on its second index, returning the resulting vector H·v.
func hessApply(h [6]float64, v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: h[0]*v.X + h[3]*v.Y + h[4]*v.Z,
		Y: h[3]*v.X + h[1]*v.Y + h[5]*v.Z,
		Z: h[4]*v.X + h[5]*v.Y + h[2]*v.Z,
	}
}

// hessQuadraticForm contracts a packed Hessian with v on both indices,
// returning v^T H v.
func hessQuadraticForm(h [6]float64, v geom.Vec3) float64 {
	hv := hessApply(h, v)
	return v.X*hv.X + v.Y*hv.Y + v.Z*hv.Z
}

// scaleHess returns a packed Hessian with every entry scaled by s.
func scaleHess(h [6]float64, s float64) [6]float64 {
	return [6]float64{h[0] * s, h[1] * s, h[2] * s, h[3] * s, h[4] * s, h[5] * s}
}

func dipole(e Expansion) geom.Vec3 {
	return geom.Vec3{X: mget(e, 1), Y: mget(e, 2), Z: mget(e, 3)}
}

func quadrupole(e Expansion) [6]float64 {
	return [6]float64{mget(e, 4), mget(e, 5), mget(e, 6), mget(e, 7), mget(e, 8), mget(e, 9)}
}

// cartesianP2M accumulates monopole/dipole/quadrupole moments of the given
// points/charges, taken about center, into m.
func cartesianP2M(points []geom.Vec3, charges []float64, center geom.Vec3, m *Expansion) {
	if *m == nil {
		*m = newExpansion()
	}
	e := *m
	var m0 float64
	var m1 geom.Vec3
	var m2 [6]float64
	for i, p := range points {
		q := charges[i]
		s := p.Sub(center)
		m0 += q
		m1 = m1.Add(s.Scale(q))
		m2[0] += q * s.X * s.X
		m2[1] += q * s.Y * s.Y
		m2[2] += q * s.Z * s.Z
		m2[3] += q * s.X * s.Y
		m2[4] += q * s.X * s.Z
		m2[5] += q * s.Y * s.Z
	}
	mset(e, 0, mget(e, 0)+m0)
	mset(e, 1, mget(e, 1)+m1.X)
	mset(e, 2, mget(e, 2)+m1.Y)
	mset(e, 3, mget(e, 3)+m1.Z)
	for k := 0; k < 6; k++ {
		mset(e, 4+k, mget(e, 4+k)+m2[k])
	}
}

// cartesianM2M shifts child's moments (about the child's center) by
// translation t = parent.center - child.center and accumulates the result
// into parent. This is an exact re-centering of Cartesian moments, not an
// approximation: computing P2M directly at the parent's center would yield
// the same result.
func cartesianM2M(child *Expansion, parent *Expansion, t geom.Vec3) {
	if *parent == nil {
		*parent = newExpansion()
	}
	c := *child
	p := *parent

	m0 := mget(c, 0)
	m1 := dipole(c)
	m2 := quadrupole(c)

	// M1'_k = M1_k - M0 * t_k
	m1p := m1.Sub(t.Scale(m0))

	// M2'_kl = M2_kl - t_l*M1_k - t_k*M1_l + t_k*t_l*M0
	m2p := [6]float64{
		m2[0] - 2*t.X*m1.X + t.X*t.X*m0,
		m2[1] - 2*t.Y*m1.Y + t.Y*t.Y*m0,
		m2[2] - 2*t.Z*m1.Z + t.Z*t.Z*m0,
		m2[3] - t.Y*m1.X - t.X*m1.Y + t.X*t.Y*m0,
		m2[4] - t.Z*m1.X - t.X*m1.Z + t.X*t.Z*m0,
		m2[5] - t.Z*m1.Y - t.Y*m1.Z + t.Y*t.Z*m0,
	}

	mset(p, 0, mget(p, 0)+m0)
	mset(p, 1, mget(p, 1)+m1p.X)
	mset(p, 2, mget(p, 2)+m1p.Y)
	mset(p, 3, mget(p, 3)+m1p.Z)
	for k := 0; k < 6; k++ {
		mset(p, 4+k, mget(p, 4+k)+m2p[k])
	}
}

// cartesianM2L converts src's multipole, separated from the target box by
// translation t = tgt.center - src.center, into a quadratic Taylor
// expansion about the target's center, accumulated into tgt. Terms beyond
// combined order 2 (dipole/quadrupole contributions to the target's own
// quadrupole coefficient, and quadrupole contributions to the target's
// linear coefficient) are dropped; see DESIGN.md for the derivation.
func cartesianM2L(src *Expansion, tgt *Expansion, t geom.Vec3) {
	if *tgt == nil {
		*tgt = newExpansion()
	}
	s := *src
	l := *tgt

	m0 := mget(s, 0)
	m1 := dipole(s)
	m2 := quadrupole(s)

	g := potential1OverR(t)
	gGrad := grad1OverR(t)
	gHess := hess1OverR(t)

	l0 := m0*g - dotV(m1, gGrad) + 0.5*quadraticTrace(m2, gHess)

	l1 := gGrad.Scale(m0).Sub(hessApply(gHess, m1))
	l2 := scaleHess(gHess, m0)

	mset(l, 0, mget(l, 0)+l0)
	mset(l, 1, mget(l, 1)+l1.X)
	mset(l, 2, mget(l, 2)+l1.Y)
	mset(l, 3, mget(l, 3)+l1.Z)
	for k := 0; k < 6; k++ {
		mset(l, 4+k, mget(l, 4+k)+l2[k])
	}
}

func dotV(a, b geom.Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// quadraticTrace contracts a packed quadrupole moment [xx,yy,zz,xy,xz,yz]
// with a packed Hessian of identical layout, summing element-wise products
// with the correct multiplicity for the off-diagonal terms
// (M_kl H_kl summed over all nine k,l pairs).
func quadraticTrace(m, h [6]float64) float64 {
	diag := m[0]*h[0] + m[1]*h[1] + m[2]*h[2]
	offDiag := 2 * (m[3]*h[3] + m[4]*h[4] + m[5]*h[5])
	return diag + offDiag
}

// cartesianL2L shifts parent's local expansion by translation
// t = child.center - parent.center and accumulates the result into child.
func cartesianL2L(parent *Expansion, child *Expansion, t geom.Vec3) {
	if *child == nil {
		*child = newExpansion()
	}
	p := *parent
	c := *child

	l0 := mget(p, 0)
	l1 := dipole(p)
	l2 := quadrupole(p)

	l0p := l0 + dotV(l1, t) + 0.5*hessQuadraticForm(l2, t)
	l1p := l1.Add(hessApply(l2, t))
	l2p := l2

	mset(c, 0, mget(c, 0)+l0p)
	mset(c, 1, mget(c, 1)+l1p.X)
	mset(c, 2, mget(c, 2)+l1p.Y)
	mset(c, 3, mget(c, 3)+l1p.Z)
	for k := 0; k < 6; k++ {
		mset(c, 4+k, mget(c, 4+k)+l2p[k])
	}
}

// cartesianL2P evaluates a local expansion (about center) at each target
// point, accumulating the scalar potential into results.
func cartesianL2P(targets []geom.Vec3, results []float64, center geom.Vec3, l *Expansion) {
	e := *l
	if e == nil {
		return
	}
	l0 := mget(e, 0)
	l1 := dipole(e)
	l2 := quadrupole(e)
	for i, p := range targets {
		u := p.Sub(center)
		results[i] += l0 + dotV(l1, u) + 0.5*hessQuadraticForm(l2, u)
	}
}

// cartesianM2P evaluates a multipole (about center) directly at each target
// point, accumulating the scalar potential into results.
func cartesianM2P(center geom.Vec3, m *Expansion, targets []geom.Vec3, results []float64) {
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
		results[i] += m0*g - dotV(m1, gGrad) + 0.5*quadraticTrace(m2, gHess)
	}
}

// cartesianP2P computes the direct pairwise 1/r potential of sources on
// targets, one-sided, accumulating into results.
func cartesianP2P(sources []geom.Vec3, srcCharges []float64, targets []geom.Vec3, results []float64) {
	for i, t := range targets {
		var acc float64
		for j, s := range sources {
			r := t.Sub(s)
			n := r.Norm()
			if n == 0 {
				continue
			}
			acc += srcCharges[j] / n
		}
		results[i] += acc
	}
}
