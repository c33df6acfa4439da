package service

import (
	"math"
	"math/rand"

	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/pkg/geom"
)

// GeneratePoints builds n points from the named distribution, seeded for
// reproducibility. Supported distributions: "uniform" (a filled cube),
// "plummer" (a truncated Plummer-model sphere, the standard astrophysical
// N-body test distribution), and "shell" (a thin spherical shell, a
// near-worst-case for octree balance since almost every leaf sits at the
// same radius).
func GeneratePoints(distribution string, n int, seed int64) ([]geom.Vec3, error) {
	r := rand.New(rand.NewSource(seed))
	switch distribution {
	case "uniform":
		return uniformCube(r, n), nil
	case "plummer":
		return plummerSphere(r, n), nil
	case "shell":
		return sphericalShell(r, n), nil
	default:
		return nil, apperrors.NewConfigError("unrecognized distribution: %s", distribution)
	}
}

func uniformCube(r *rand.Rand, n int) []geom.Vec3 {
	pts := make([]geom.Vec3, n)
	for i := range pts {
		pts[i] = geom.Vec3{X: r.Float64(), Y: r.Float64(), Z: r.Float64()}
	}
	return pts
}

// plummerSphere samples positions from the Plummer density profile via
// inverse-transform sampling of its enclosed-mass function, then scatters
// each radius uniformly over a sphere.
func plummerSphere(r *rand.Rand, n int) []geom.Vec3 {
	pts := make([]geom.Vec3, n)
	for i := range pts {
		u := r.Float64()
		radius := 1.0 / math.Sqrt(math.Pow(u, -2.0/3.0)-1.0)
		pts[i] = onSphere(r, radius)
	}
	return pts
}

func sphericalShell(r *rand.Rand, n int) []geom.Vec3 {
	pts := make([]geom.Vec3, n)
	for i := range pts {
		pts[i] = onSphere(r, 1.0)
	}
	return pts
}

// onSphere returns a point at the given radius, uniformly distributed over
// the sphere's surface (Marsaglia's method).
func onSphere(r *rand.Rand, radius float64) geom.Vec3 {
	var x1, x2, s float64
	for {
		x1 = 2*r.Float64() - 1
		x2 = 2*r.Float64() - 1
		s = x1*x1 + x2*x2
		if s < 1 {
			break
		}
	}
	factor := 2 * math.Sqrt(1-s)
	return geom.Vec3{
		X: radius * x1 * factor,
		Y: radius * x2 * factor,
		Z: radius * (1 - 2*s),
	}
}
