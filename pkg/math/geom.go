package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// IntersectLinePlaneVertical drops p vertically onto the plane through
// origin with the given normal. Unlike ProjectOnPlane the horizontal
// components are preserved, so a direction keeps its heading on slopes.
func IntersectLinePlaneVertical(p, origin, normal mgl32.Vec3) mgl32.Vec3 {
	t := normal.Dot(origin.Sub(p)) / (normal.Dot(Up) + Epsilon)
	return p.Add(Up.Mul(t))
}

// RaySphere intersects a ray with a sphere. dir does not need to be
// normalized. It returns the nearest non-negative hit distance along the
// normalized ray, the hit point and the outward surface normal.
func RaySphere(origin, dir, center mgl32.Vec3, radius float32) (dist float32, point, normal mgl32.Vec3, ok bool) {
	d := SafeNormalize(dir)
	if d.LenSqr() == 0 || radius <= 0 {
		return 0, mgl32.Vec3{}, mgl32.Vec3{}, false
	}

	oc := origin.Sub(center)
	b := oc.Dot(d)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl32.Vec3{}, mgl32.Vec3{}, false
	}

	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, mgl32.Vec3{}, mgl32.Vec3{}, false
	}

	point = origin.Add(d.Mul(t))
	return t, point, SafeNormalize(point.Sub(center)), true
}
