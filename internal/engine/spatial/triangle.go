package spatial

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/pkg/math"
)

// Triangle is a world-space face.
type Triangle struct {
	A, B, C mgl32.Vec3
}

// Normal returns the unit face normal, counter-clockwise winding.
func (t Triangle) Normal() mgl32.Vec3 {
	return math.SafeNormalize(t.B.Sub(t.A).Cross(t.C.Sub(t.A)))
}

// Degenerate reports whether the face has no area.
func (t Triangle) Degenerate() bool {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).LenSqr() < 1e-12
}

// Centroid returns the average of the corners.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// Bounds returns the face's bounding box.
func (t Triangle) Bounds() cube.BBox {
	lo, hi := t.A, t.A
	for _, p := range [2]mgl32.Vec3{t.B, t.C} {
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], p[i])
			hi[i] = math32.Max(hi[i], p[i])
		}
	}
	return cube.Box(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

// Transform returns the face with every corner multiplied by m.
func (t Triangle) Transform(m mgl32.Mat4) Triangle {
	return Triangle{
		A: math.TransformPoint(m, t.A),
		B: math.TransformPoint(m, t.B),
		C: math.TransformPoint(m, t.C),
	}
}

// intersect is a double sided Moller-Trumbore test.
func (t Triangle) intersect(r Ray) (float32, bool) {
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < 1e-10 {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(t.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	d := e2.Dot(q) * inv
	if d < 0 {
		return 0, false
	}
	return d, true
}

// closestPoint returns the point of the face nearest to p.
func (t Triangle) closestPoint(p mgl32.Vec3) mgl32.Vec3 {
	ab := t.B.Sub(t.A)
	ac := t.C.Sub(t.A)
	ap := p.Sub(t.A)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.A
	}

	bp := p.Sub(t.B)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return t.A.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(t.C)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return t.A.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return t.B.Add(t.C.Sub(t.B).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1 / (va + vb + vc)
	return t.A.Add(ab.Mul(vb * denom)).Add(ac.Mul(vc * denom))
}
