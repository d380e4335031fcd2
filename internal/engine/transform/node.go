// Package transform provides a minimal scene-graph node.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/pkg/math"
)

// Space selects the frame a translation or rotation is expressed in.
type Space int

const (
	Local Space = iota
	Global
)

// Node holds position, rotation and scale. Matrix is recomputed by every
// mutating method, so it always equals T(position) * R(rotation) * S(scale).
type Node struct {
	Name string

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
	matrix   mgl32.Mat4
}

// New creates an identity node.
func New(name string) *Node {
	n := &Node{
		Name:     name,
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	n.recompute()
	return n
}

func (n *Node) recompute() {
	n.matrix = mgl32.Translate3D(n.position[0], n.position[1], n.position[2]).
		Mul4(n.rotation.Mat4()).
		Mul4(mgl32.Scale3D(n.scale[0], n.scale[1], n.scale[2]))
}

// Matrix returns the composed transform.
func (n *Node) Matrix() mgl32.Mat4 { return n.matrix }

// Position returns the node position.
func (n *Node) Position() mgl32.Vec3 { return n.position }

// Rotation returns the node orientation.
func (n *Node) Rotation() mgl32.Quat { return n.rotation }

// Scale returns the node scale.
func (n *Node) Scale() mgl32.Vec3 { return n.scale }

// Euler returns the orientation as XYZ Euler angles.
func (n *Node) Euler() mgl32.Vec3 { return math.EulerXYZ(n.rotation.Mat4()) }

// SetPosition moves the node to p.
func (n *Node) SetPosition(p mgl32.Vec3) {
	n.position = p
	n.recompute()
}

// SetEuler sets the orientation from XYZ Euler angles.
func (n *Node) SetEuler(euler mgl32.Vec3) {
	n.rotation = math.QuatXYZ(euler)
	n.recompute()
}

// SetRotation sets the orientation.
func (n *Node) SetRotation(q mgl32.Quat) {
	n.rotation = q.Normalize()
	n.recompute()
}

// SetScale sets the node scale.
func (n *Node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.recompute()
}

// SetMatrix decomposes m into position, rotation and scale.
func (n *Node) SetMatrix(m mgl32.Mat4) {
	n.position = math.Translation(m)
	n.scale = math.ScalePart(m)
	n.rotation = mgl32.Mat4ToQuat(math.RotationPart(m)).Normalize()
	n.recompute()
}

// Reset returns the node to identity.
func (n *Node) Reset() {
	n.position = mgl32.Vec3{}
	n.rotation = mgl32.QuatIdent()
	n.scale = mgl32.Vec3{1, 1, 1}
	n.recompute()
}

// Translate moves the node by v, in its own frame for Local.
func (n *Node) Translate(v mgl32.Vec3, space Space) {
	if space == Local {
		v = n.rotation.Rotate(v)
	}
	n.position = n.position.Add(v)
	n.recompute()
}

// RotateAxis rotates the node by angle radians about axis. A Global axis
// is expressed in world space, a Local axis in the node's frame.
func (n *Node) RotateAxis(angle float32, axis mgl32.Vec3, space Space) {
	axis = math.SafeNormalize(axis)
	if axis.LenSqr() == 0 {
		return
	}
	r := mgl32.QuatRotate(angle, axis)
	if space == Global {
		n.rotation = r.Mul(n.rotation).Normalize()
	} else {
		n.rotation = n.rotation.Mul(r).Normalize()
	}
	n.recompute()
}

// LookAt turns the node so that +Y points at target with +Z kept towards
// world up, blending from the current orientation by factor.
func (n *Node) LookAt(target mgl32.Vec3, factor float32) {
	fwd := math.SafeNormalize(target.Sub(n.position))
	if fwd.LenSqr() == 0 {
		return
	}
	right := math.SafeNormalize(fwd.Cross(math.Up))
	if right.LenSqr() == 0 {
		return
	}
	up := right.Cross(fwd)

	basis := mgl32.Ident4()
	basis.SetCol(0, right.Vec4(0))
	basis.SetCol(1, fwd.Vec4(0))
	basis.SetCol(2, up.Vec4(0))
	track := mgl32.Mat4ToQuat(basis).Normalize()

	n.rotation = mgl32.QuatSlerp(n.rotation, track, math.Clamp01(factor)).Normalize()
	n.recompute()
}

// Forward returns the node's +Y axis in world space.
func (n *Node) Forward() mgl32.Vec3 { return math.TransformDir(n.matrix, mgl32.Vec3{0, 1, 0}) }

// Right returns the node's +X axis in world space.
func (n *Node) Right() mgl32.Vec3 { return math.TransformDir(n.matrix, mgl32.Vec3{1, 0, 0}) }

// Up returns the node's +Z axis in world space.
func (n *Node) Up() mgl32.Vec3 { return math.TransformDir(n.matrix, mgl32.Vec3{0, 0, 1}) }
