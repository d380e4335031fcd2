// Package math provides float32 geometry helpers on top of mgl32.
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-7

// Up is the world up axis.
var Up = mgl32.Vec3{0, 0, 1}

// SafeNormalize returns a unit vector, or the zero vector when v has no length.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < Epsilon || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// SafeNormalize2 is SafeNormalize for 2D vectors.
func SafeNormalize2(v mgl32.Vec2) mgl32.Vec2 {
	l := v.Len()
	if l < Epsilon || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return mgl32.Vec2{}
	}
	return v.Mul(1 / l)
}

// ProjectOnPlane projects p onto the plane through origin with the given normal.
func ProjectOnPlane(p, origin, normal mgl32.Vec3) mgl32.Vec3 {
	n := SafeNormalize(normal)
	return p.Sub(n.Mul(p.Sub(origin).Dot(n)))
}

// RemoveComponent removes the part of v that points along normal.
// Used to slide velocity along a contact surface.
func RemoveComponent(v, normal mgl32.Vec3) mgl32.Vec3 {
	n := SafeNormalize(normal)
	if n.LenSqr() == 0 {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n)))
}

// LerpVec3 linearly interpolates between a and b.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Finite reports whether every component of v is a finite number.
func Finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
