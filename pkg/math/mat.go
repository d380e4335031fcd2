package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RotationXYZ builds a rotation from XYZ Euler angles (X applied first).
func RotationXYZ(euler mgl32.Vec3) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(euler[2]).
		Mul4(mgl32.HomogRotate3DY(euler[1])).
		Mul4(mgl32.HomogRotate3DX(euler[0]))
}

// QuatXYZ is RotationXYZ as a quaternion.
func QuatXYZ(euler mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(euler[0], mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(euler[1], mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(euler[2], mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// EulerXYZ extracts XYZ Euler angles from the rotation part of m.
// Column scale is removed first.
func EulerXYZ(m mgl32.Mat4) mgl32.Vec3 {
	r := RotationPart(m)
	sy := -r.At(2, 0)
	y := math32.Asin(mgl32.Clamp(sy, -1, 1))
	var x, z float32
	if math32.Abs(sy) < 0.9999 {
		x = math32.Atan2(r.At(2, 1), r.At(2, 2))
		z = math32.Atan2(r.At(1, 0), r.At(0, 0))
	} else {
		x = math32.Atan2(-r.At(1, 2), r.At(1, 1))
	}
	return mgl32.Vec3{x, y, z}
}

// Translation returns the translation column of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// ScalePart returns the length of each basis column of m.
func ScalePart(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

// RotationPart returns the rotation of m with translation and scale removed.
func RotationPart(m mgl32.Mat4) mgl32.Mat4 {
	out := mgl32.Ident4()
	for i := 0; i < 3; i++ {
		col := SafeNormalize(m.Col(i).Vec3())
		out.SetCol(i, col.Vec4(0))
	}
	return out
}

// TransformDir rotates and scales d by m, ignoring translation.
func TransformDir(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// TransformPoint applies m to p.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
