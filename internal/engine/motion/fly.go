package motion

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/transform"
	"github.com/Faultbox/omnistep/pkg/math"
)

func (c *Controller) flyFriction() {
	st := c.st
	speed := st.RealVelocity.Len()
	newSpeed := speed - c.t.flyAirFriction*c.dt
	if newSpeed < 0 {
		newSpeed = 0
	}
	if speed > 0 {
		newSpeed /= speed
	}
	st.Velocity = st.Velocity.Mul(newSpeed)
}

// flyMove steers along the aim: input y moves along the view direction,
// x strafes and z climbs along the view's up.
func (c *Controller) flyMove() {
	st := c.st
	c.flyFriction()

	dir := c.in.Direction
	aim := st.Aim
	wish := aim.Up().Mul(-dir.Y()).
		Add(aim.Right().Mul(dir.X())).
		Add(aim.Forward().Mul(dir.Z()))
	wish = math.SafeNormalize(wish).Mul(dir.Len())

	st.Velocity = FlyAccelerate(st.Velocity, wish, c.t.flySpeed*dir.Len(), c.t.flyAccel+c.t.flyAirFriction, c.dt)
	c.drainImpulse()
}

// FlyAccelerate integrates accel along wish. Past wishSpeed the velocity
// keeps its new heading but shrinks to 99 % of its previous magnitude, so
// speed above the cap decays instead of being cut.
func FlyAccelerate(vel, wish mgl32.Vec3, wishSpeed, accel, dt float32) mgl32.Vec3 {
	old := vel.Len()
	vel = vel.Add(wish.Mul(accel * dt))
	if vel.Len() > wishSpeed {
		vel = math.SafeNormalize(vel).Mul(old * 0.99)
	}
	return vel
}

func (c *Controller) flyCollide() {
	st := c.st
	st.Grounded = false
	st.Stair = false
	st.Contact = false

	oldVel, oldPos := st.RealVelocity, st.Root.Position()
	n := c.cfg.CollisionSamples
	for i := 0; i < n; i++ {
		st.Root.Translate(st.Velocity.Mul(c.dt/float32(n)), transform.Global)
		c.flySubCollide()
	}
	c.updateRealMotion(oldPos, oldVel)
}

func (c *Controller) flyNoCollide() {
	st := c.st
	st.Grounded = false
	st.Stair = false
	st.Contact = false

	oldVel, oldPos := st.RealVelocity, st.Root.Position()
	st.Root.Translate(st.Velocity.Mul(c.dt), transform.Global)
	c.updateRealMotion(oldPos, oldVel)
}

func (c *Controller) flySubCollide() {
	st := c.st
	r := c.t.flyRadius
	pos := st.Root.Position()

	hit, ok := c.index.FindNearest(pos, r)
	if ok && hit.Distance <= r {
		st.Contact = true
		push := math.SafeNormalize(pos.Sub(hit.Position))
		pos = pos.Add(push.Mul(r - hit.Distance))
		st.Velocity = math.RemoveComponent(st.Velocity, push)
	}
	st.Root.SetPosition(pos)
}
