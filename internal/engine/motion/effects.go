package motion

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/clock"
	"github.com/Faultbox/omnistep/internal/engine/spring"
)

// inertiaCeiling caps the upward inertia offset, in meters, so the view
// does not rise into low ceilings.
const inertiaCeiling = 0.08

// bankingEffect springs the view roll towards the sideways share of the
// observed velocity. bank is the roll at full targetSpeed, where 1 is 45
// degrees.
func (c *Controller) bankingEffect(bank, targetSpeed float32) {
	st := c.st
	targetSpeed = math32.Max(targetSpeed, st.Velocity.Len())
	s := c.cfg.Scale

	n, sub := spring.Substeps(c.dt, clock.PhysicsStep)
	for i := 0; i < n; i++ {
		var target float32
		if targetSpeed > 0 {
			target = st.RealVelocity.Mul(1/s).Dot(st.Aim.Right()) / (targetSpeed / s)
		}
		target *= bank * 0.5
		c.bankSpring.Step(&st.Bank, &st.BankVelocity, target, sub)
	}
}

// inertiaEffect drives the inertia offset with the negative observed
// acceleration against an anisotropic spring.
func (c *Controller) inertiaEffect() {
	st := c.st
	maxDisplace := c.t.radius * 0.9
	snap := c.t.radius * 0.005
	ceiling := inertiaCeiling * c.cfg.Scale

	n, sub := spring.Substeps(c.dt, clock.PhysicsStep)
	for i := 0; i < n; i++ {
		vel := st.InertiaVelocity.Add(st.RealAccel.Mul(-sub))

		// per-axis decay keeps large k*dt from overshooting
		for a := 0; a < 3; a++ {
			vel[a] *= 1 - mgl32.Clamp(c.inertiaC[a]*sub, -1, 1)
		}

		pos := st.Inertia.Position()
		for a := 0; a < 3; a++ {
			vel[a] -= c.inertiaK[a] * pos[a] * sub
		}
		pos = pos.Add(vel.Mul(sub))

		for a := 0; a < 3; a++ {
			pos[a] = mgl32.Clamp(pos[a], -maxDisplace, maxDisplace)
		}
		pos[2] = mgl32.Clamp(pos[2], -maxDisplace, ceiling)

		if pos.Len() < snap {
			pos = mgl32.Vec3{}
			vel = mgl32.Vec3{}
		}
		st.Inertia.SetPosition(pos)
		st.InertiaVelocity = vel
	}
}
