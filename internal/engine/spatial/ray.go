package spatial

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/pkg/math"
)

// Unbounded is the max distance used for rays without a limit.
const Unbounded = math32.MaxFloat32

// Ray is a half line with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay normalizes dir. ok is false when dir has no length.
func NewRay(origin, dir mgl32.Vec3) (Ray, bool) {
	d := math.SafeNormalize(dir)
	return Ray{Origin: origin, Direction: d}, d.LenSqr() != 0
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectBox runs a slab test against box. t is the entry distance, or 0
// when the ray starts inside.
func (r Ray) IntersectBox(box cube.BBox) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)
	lo, hi := box.Min(), box.Max()

	for i := 0; i < 3; i++ {
		if r.Direction[i] != 0 {
			t1 := (lo[i] - r.Origin[i]) / r.Direction[i]
			t2 := (hi[i] - r.Origin[i]) / r.Direction[i]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if r.Origin[i] < lo[i] || r.Origin[i] > hi[i] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

// boxDistance returns the distance from p to the closest point of box.
func boxDistance(box cube.BBox, p mgl32.Vec3) float32 {
	lo, hi := box.Min(), box.Max()
	var sq float32
	for i := 0; i < 3; i++ {
		d := math32.Max(lo[i]-p[i], math32.Max(0, p[i]-hi[i]))
		sq += d * d
	}
	return math32.Sqrt(sq)
}
