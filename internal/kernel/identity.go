package kernel

import "github.com/agbru/fmmeval/pkg/geom"

// Identity is the end-to-end test kernel: every operator reduces to plain
// scalar addition, so the exact answer at every target is simply the sum
// of all charges. It exists to exercise the evaluator's traversal and
// dispatch logic independent of any approximation error a real expansion
// would introduce.
type Identity struct{}

var _ Operators[float64, float64, float64, float64] = Identity{}

func (Identity) InitMultipole(m *float64, boxSize float64) { *m = 0 }
func (Identity) InitLocal(l *float64, boxSize float64)     { *l = 0 }

func (Identity) P2M(points []geom.Vec3, charges []float64, center geom.Vec3, m *float64) {
	for _, q := range charges {
		*m += q
	}
}

func (Identity) M2M(child *float64, parent *float64, t geom.Vec3) {
	*parent += *child
}

func (Identity) M2L(src *float64, tgt *float64, t geom.Vec3) {
	*tgt += *src
}

func (Identity) M2P(center geom.Vec3, m *float64, targets []geom.Vec3, results []float64) {
	for i := range targets {
		results[i] += *m
	}
}

func (Identity) L2L(parent *float64, child *float64, t geom.Vec3) {
	*child += *parent
}

func (Identity) L2P(targets []geom.Vec3, results []float64, center geom.Vec3, l *float64) {
	for i := range targets {
		results[i] += *l
	}
}

func (Identity) P2P(sources []geom.Vec3, srcCharges []float64, targets []geom.Vec3, results []float64) {
	var sum float64
	for _, q := range srcCharges {
		sum += q
	}
	for i := range targets {
		results[i] += sum
	}
}
