package motion

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/internal/engine/transform"
	"github.com/Faultbox/omnistep/pkg/math"
)

var down = mgl32.Vec3{0, 0, -1}

const (
	// stairReach is how far below the feet, in radii, a flat surface may
	// be for a steep contact to count as a stair nosing.
	stairReach = 2
	// bodyScale shrinks the upper spheres so stair edges do not catch them.
	bodyScale = 0.99
	// stairRayLift tilts the secondary stair ray upwards.
	stairRayLift = 0.01
)

// Contact is the classification of a feet sphere contact.
type Contact int

const (
	ContactGround Contact = iota
	ContactStair
	ContactWall
)

func (c Contact) String() string {
	switch c {
	case ContactGround:
		return "ground"
	case ContactStair:
		return "stair"
	}
	return "wall"
}

// ClassifyContact decides how the feet sphere treats a contact. Angles are
// in degrees: contactSlope is the angle between world up and the push-out
// direction, surfaceSlope the slope of the best surface found under the
// contact. groundDist is the straight-down distance to the floor.
// topContact disables grounding while the head is blocked.
func ClassifyContact(contactSlope, surfaceSlope, groundDist, radius, walkSlope, stairSlope float32, topContact bool) Contact {
	switch {
	case contactSlope <= walkSlope && !topContact:
		return ContactGround
	case contactSlope > walkSlope && contactSlope <= stairSlope &&
		groundDist < radius*stairReach && surfaceSlope < walkSlope:
		return ContactStair
	}
	return ContactWall
}

// upright flips a normal into the upper hemisphere.
func upright(n mgl32.Vec3) mgl32.Vec3 {
	if n.Z() < 0 {
		return n.Mul(-1)
	}
	return n
}

func (c *Controller) groundMove() {
	st := c.st
	if !st.WishJump {
		c.walkFriction()
	}

	dir := c.in.Direction
	wish := math.SafeNormalize(st.Base.Forward().Mul(dir.Y()).Add(st.Base.Right().Mul(dir.X())))
	wish = math.SafeNormalize(math.IntersectLinePlaneVertical(wish, mgl32.Vec3{}, st.GroundNormal))
	st.Velocity = math.ProjectOnPlane(st.Velocity, mgl32.Vec3{}, st.GroundNormal)

	c.accelerate(wish, c.WishSpeed()*dir.Len(), c.t.groundAccel+c.cfg.GroundFriction)

	st.Velocity[2] -= c.t.gravity * c.dt
	if st.WishJump {
		c.jump()
	}
}

// jump launches the player and consumes the wish.
func (c *Controller) jump() {
	st := c.st
	st.Velocity[2] = c.t.jumpSpeed
	st.WishJump = false
	st.WishJumpTime = 0
	st.Jumped = true
}

// coyote reports whether a ground jump is still allowed shortly after
// walking off a ledge.
func (c *Controller) coyote() bool {
	st := c.st
	return !st.Jumped && st.SinceGround <= c.cfg.CoyoteTime
}

func (c *Controller) airMove() {
	st := c.st
	dir := c.in.Direction
	wish := math.SafeNormalize(st.Base.Forward().Mul(dir.Y()).Add(st.Base.Right().Mul(dir.X())))

	accel := c.t.airAccel
	if st.Velocity.Dot(wish) < 0 {
		accel = c.t.airDecel
	}
	c.accelerate(wish, c.WishSpeed()*dir.Len(), accel)

	st.Velocity[2] -= c.t.gravity * c.dt

	if !st.WishJump {
		return
	}
	switch {
	case c.coyote():
		c.jump()
	case c.cfg.WallJump && st.Contact:
		c.jump()
	case c.cfg.AirJump:
		c.jump()
	}
}

// walkFriction slows the player based on the observed speed. Below the
// deceleration speed a minimum control keeps the grip, raised to the
// target speed while input is held.
func (c *Controller) walkFriction() {
	st := c.st
	speed := st.RealVelocity.Len()
	decel := c.t.groundDecel

	control := speed
	if speed < decel {
		control = decel
		if c.in.Direction.Len() > 0.001 && decel > 0 {
			control *= c.WishSpeed() / decel
		}
	}

	drop := control * c.cfg.GroundFriction * c.dt
	newSpeed := speed - drop
	if newSpeed < 0 {
		newSpeed = 0
	}
	if speed > 0 {
		newSpeed /= speed
	}
	st.Velocity = st.Velocity.Mul(newSpeed)
}

// accelerate adds speed along wish up to wishSpeed. Speeds are reduced to
// unit scale first so the result is independent of world scale. A pending
// impulse is applied afterwards.
func (c *Controller) accelerate(wish mgl32.Vec3, wishSpeed, accel float32) {
	st := c.st
	st.Velocity = Accelerate(st.Velocity, wish, wishSpeed, accel, c.cfg.Scale, c.dt)
	c.drainImpulse()
}

// Accelerate is the scale-invariant acceleration step.
func Accelerate(vel, wish mgl32.Vec3, wishSpeed, accel, scale, dt float32) mgl32.Vec3 {
	current := vel.Mul(1 / scale).Dot(wish)
	add := wishSpeed/scale - current
	if add <= 0 {
		return vel
	}
	speed := (accel / scale) * dt * (wishSpeed / scale)
	if speed > add {
		speed = add
	}
	return vel.Add(wish.Mul(speed * scale))
}

func (c *Controller) drainImpulse() {
	if !c.hasImpulse {
		return
	}
	c.hasImpulse = false
	if c.impulse.ClearVelocity {
		c.st.Velocity = c.impulse.Vector
	} else {
		c.st.Velocity = c.st.Velocity.Add(c.impulse.Vector)
	}
}

func (c *Controller) walkCollide() {
	st := c.st
	st.Grounded = false
	st.Stair = false
	st.Contact = false

	oldVel, oldPos := st.RealVelocity, st.Root.Position()
	n := c.cfg.CollisionSamples
	for i := 0; i < n; i++ {
		st.Root.Translate(st.Velocity.Mul(c.dt/float32(n)), transform.Global)
		c.walkSubCollide()
	}
	c.updateRealMotion(oldPos, oldVel)
}

// walkSubCollide resolves the feet, body and middle spheres against the
// index for one substep.
func (c *Controller) walkSubCollide() {
	st := c.st
	r := c.t.radius
	bodyR := r * bodyScale
	eps := 0.0001 * c.cfg.Scale
	pos := st.Root.Position()

	feet, ok := c.index.RayCast(pos, down, spatial.Unbounded)
	if !ok {
		c.fakeGround(pos, r, eps)
		return
	}

	backupDist := feet.Distance
	backupNormal := math.SafeNormalize(upright(feet.Normal))
	if feet.Distance <= r+eps {
		st.Grounded = true
		st.Contact = true
		st.GroundDistance = feet.Distance
		st.GroundNormal = backupNormal
		st.GroundSlope = math.AcosDeg(backupNormal.Z())
		st.LastGroundHeight = feet.Position.Z()
	}

	if hit, ok := c.index.FindNearest(pos, r); ok && hit.Distance <= r+eps {
		st.Contact = true
		normal := math.SafeNormalize(upright(hit.Normal))
		st.GroundSlope = math.AcosDeg(normal.Z())
		push := math.SafeNormalize(pos.Sub(hit.Position))
		contactSlope := math.AcosDeg(push.Z())

		stairDir := push.Mul(-1)
		stairDir[2] += stairRayLift
		if step, ok := c.index.RayCast(pos, stairDir, r*2); ok {
			sn := math.SafeNormalize(upright(step.Normal))
			if st.GroundDistance < r*stairReach && math.AcosDeg(sn.Z()) < c.cfg.WalkSlope {
				normal = sn
			}
		}

		switch ClassifyContact(contactSlope, math.AcosDeg(normal.Z()), backupDist, r,
			c.cfg.WalkSlope, c.cfg.StairSlope, st.TopContact) {
		case ContactGround:
			st.Grounded = true
			st.LastGroundHeight = hit.Position.Z()
			st.GroundDistance = hit.Distance
			st.GroundNormal = normal
			if backupNormal.Z() > normal.Z() {
				st.GroundDistance = backupDist
				st.GroundNormal = backupNormal
			}
			st.GroundSlope = math.AcosDeg(st.GroundNormal.Z())
			pos[2] += r - hit.Distance
		case ContactStair:
			st.Stair = true
			st.Grounded = true
			st.GroundDistance = hit.Distance
			st.GroundNormal = normal
			st.GroundSlope = math.AcosDeg(normal.Z())
			pos[2] += r - hit.Distance
		default:
			pos = pos.Add(push.Mul(r - hit.Distance))
			st.Velocity = math.RemoveComponent(st.Velocity, push)
		}
	}

	top := mgl32.Vec3{0, 0, c.t.height - 2*r}
	if c.pushSphere(&pos, top, bodyR, eps, !st.Stair) {
		st.TopContact = true
	} else {
		st.TopContact = false
	}
	c.pushSphere(&pos, top.Mul(0.5), bodyR, eps, !st.Stair)

	st.Root.SetPosition(pos)
}

// pushSphere moves pos out of the geometry touching the sphere at
// pos+offset and optionally slides the velocity along the contact.
func (c *Controller) pushSphere(pos *mgl32.Vec3, offset mgl32.Vec3, radius, eps float32, slide bool) bool {
	center := pos.Add(offset)
	hit, ok := c.index.FindNearest(center, radius)
	if !ok || hit.Distance > radius+eps {
		return false
	}
	c.st.Contact = true
	push := math.SafeNormalize(center.Sub(hit.Position))
	*pos = pos.Add(push.Mul(radius - hit.Distance))
	if slide {
		c.st.Velocity = math.RemoveComponent(c.st.Velocity, push)
	}
	return true
}

// fakeGround holds the player at the last known ground height when there
// is no floor below at all, and still resolves side and body contacts.
func (c *Controller) fakeGround(pos mgl32.Vec3, r, eps float32) {
	st := c.st
	if st.LastGroundHeight > pos.Z()-r*0.5 {
		st.LastGroundHeight = pos.Z() - r
	}
	if st.LastGroundHeight > pos.Z()-r {
		pos[2] = st.LastGroundHeight + r
		st.Grounded = true
		st.Contact = true
	}
	st.GroundNormal = math.Up

	c.pushSphere(&pos, mgl32.Vec3{}, r, eps, true)
	c.pushSphere(&pos, mgl32.Vec3{0, 0, r * 2}, r, eps, true)
	st.Root.SetPosition(pos)
}

// walkInitCollide lifts the player out of the floor after a placement.
func (c *Controller) walkInitCollide() {
	st := c.st
	pos := st.Root.Position()
	head := math.Translation(st.Root.Matrix().Mul4(st.Base.Matrix()).Mul4(st.Head.Matrix()))
	stand := c.t.height - 0.1*c.cfg.Scale

	if hit, ok := c.index.RayCast(head, down, spatial.Unbounded); ok && hit.Distance < stand {
		pos[2] += stand - hit.Distance
	}
	st.Root.SetPosition(pos)
}
