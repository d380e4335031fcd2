package motion

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/transform"
	"github.com/Faultbox/omnistep/pkg/math"
)

// pitchLimit keeps pitch away from the poles in yaw/pitch look.
const pitchLimit = 0.0001

// updateInputView applies look input to the node chain and refreshes the
// aim transform. With look false only the pose is rebuilt from the stored
// angles.
func (c *Controller) updateInputView(look bool) {
	st := c.st
	sens := c.in.MouseSensitivity
	padSens := c.in.PadLookSensitivity
	if c.cfg.AdjustFocal {
		f := camera.SensitivityScale(c.cam.FocalLength())
		sens *= f
		padSens *= f
	}

	radial := c.mode == Fly && c.cfg.RadialView
	trackball := radial && c.cfg.Trackball

	var yawDelta, pitchDelta float32
	if look {
		if radial {
			yawDelta, pitchDelta = c.radialLook(padSens)
			st.Yaw -= yawDelta
			st.Pitch += pitchDelta
		} else {
			invert := float32(1)
			if c.in.InvertMouse {
				invert = -1
			}
			mm, pm := c.in.MouseMove, c.in.PadMove
			st.Yaw -= mm.X() * mgl32.DegToRad(sens)
			st.Pitch += mm.Y() * mgl32.DegToRad(sens) * invert
			st.Yaw -= pm.X() * mgl32.DegToRad(padSens)
			st.Pitch += pm.Y() * mgl32.DegToRad(padSens)
		}
	}

	switch {
	case trackball && look:
		c.trackballLook(yawDelta, pitchDelta)
	case trackball:
		// the base orientation is integrated, not derived from pitch/yaw
	default:
		st.Pitch = mgl32.Clamp(st.Pitch, pitchLimit, math32.Pi-pitchLimit)
		st.Base.SetEuler(mgl32.Vec3{0, 0, st.Yaw})
		st.Head.SetEuler(mgl32.Vec3{st.Pitch, 0, 0})
	}
	st.Effect.SetEuler(mgl32.Vec3{0, 0, st.Bank})

	st.Aim.SetMatrix(st.aimMatrix())
}

// radialLook accumulates pointer motion into a bounded aim offset and
// returns the turn for this frame.
func (c *Controller) radialLook(padSens float32) (yawDelta, pitchDelta float32) {
	st := c.st
	raw := st.RadialAimRaw.Add(c.in.MouseMove)
	raw = raw.Add(c.in.PadMove.Mul(1 / mgl32.DegToRad(padSens+0.001)))

	size := c.cam.ViewportHeight() * c.cfg.RadialViewSize * 0.01 * 0.5
	if size <= 0 {
		size = 1
	}
	if raw.Len() > size {
		raw = math.SafeNormalize2(raw).Mul(size)
	}
	st.RadialAimRaw = raw
	st.RadialAim = raw.Mul(1 / size)

	turn := c.dt * c.cfg.RadialMaxTurn
	return st.RadialAim.X() * turn, st.RadialAim.Y() * turn
}

// trackballLook rotates the base about the current view axes and slowly
// levels the horizon while moving.
func (c *Controller) trackballLook(yawDelta, pitchDelta float32) {
	st := c.st
	balance := c.cfg.TrackballBalance

	st.Root.SetRotation(mgl32.QuatIdent())
	st.Base.RotateAxis(-yawDelta*(1-balance), st.View.Up(), transform.Global)
	st.Base.RotateAxis(-yawDelta*balance, st.View.Forward(), transform.Global)
	st.Base.RotateAxis(pitchDelta, st.View.Right(), transform.Global)

	var speedFactor float32
	if c.t.flySpeed > 0 {
		speedFactor = st.RealVelocity.Len() / c.t.flySpeed
	}
	fac := math.Clamp01(math.Lerp(c.dt*c.cfg.TrackballAutoLevel, 0, speedFactor))
	fwd := st.Base.Forward()
	alignment := 1 - math32.Abs(fwd.Z())
	st.Base.LookAt(st.Base.Position().Add(fwd), fac*alignment)
}

// updateCameraView composes the final view, writes it to the camera and
// refreshes the aim.
func (c *Controller) updateCameraView() {
	st := c.st
	m := st.aimMatrix().Mul4(st.Effect.Matrix())
	if c.mode == Walk && c.cfg.CamInertia {
		m = st.Inertia.Matrix().Mul4(m)
	}
	c.cam.SetWorldMatrix(m)
	st.View.SetMatrix(m)
	st.Aim.SetMatrix(st.aimMatrix())
}
