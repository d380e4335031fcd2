// Package camera defines the host camera the motion controller drives.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/pkg/math"
)

// DefaultFocalLength is the lens the look sensitivity is calibrated for.
const DefaultFocalLength = 28

// Host is the camera owned by the embedding application. The world matrix
// places a camera that looks down its local -Z with +Y up.
type Host interface {
	WorldMatrix() mgl32.Mat4
	SetWorldMatrix(m mgl32.Mat4)
	// FocalLength is the lens length in millimetres.
	FocalLength() float32
	// ViewportHeight is the drawable height in pixels.
	ViewportHeight() float32
}

// Viewport is a plain in-memory Host.
type Viewport struct {
	World  mgl32.Mat4
	Focal  float32
	Height float32
}

// NewViewport creates a viewport placed by world.
func NewViewport(world mgl32.Mat4, height float32) *Viewport {
	return &Viewport{World: world, Focal: DefaultFocalLength, Height: height}
}

// WorldMatrix returns the camera placement.
func (v *Viewport) WorldMatrix() mgl32.Mat4 { return v.World }

// SetWorldMatrix moves the camera.
func (v *Viewport) SetWorldMatrix(m mgl32.Mat4) { v.World = m }

// FocalLength returns the lens length.
func (v *Viewport) FocalLength() float32 { return v.Focal }

// ViewportHeight returns the drawable height.
func (v *Viewport) ViewportHeight() float32 { return v.Height }

// ViewMatrix returns the inverse of the camera placement.
func ViewMatrix(h Host) mgl32.Mat4 {
	return h.WorldMatrix().Inv()
}

// PitchYaw extracts the look angles of a camera placement. Pitch is 0
// looking straight down and Pi looking straight up; yaw 0 faces +Y.
func PitchYaw(world mgl32.Mat4) (pitch, yaw float32) {
	fwd := math.SafeNormalize(math.TransformDir(world, mgl32.Vec3{0, 0, -1}))
	yaw = -math32.Atan2(fwd.X(), fwd.Y())
	pitch = math32.Asin(mgl32.Clamp(fwd.Z(), -1, 1)) + math32.Pi/2
	return pitch, yaw
}

// FromPitchYaw builds a camera placement at pos with the given look angles.
func FromPitchYaw(pos mgl32.Vec3, pitch, yaw float32) mgl32.Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(math.RotationXYZ(mgl32.Vec3{pitch, 0, yaw}))
}

// SensitivityScale returns the look-speed factor for a lens: longer lenses
// turn slower so that on-screen motion feels constant.
func SensitivityScale(focal float32) float32 {
	return math32.Sqrt(DefaultFocalLength / math32.Max(DefaultFocalLength, focal))
}
