package motion

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/pkg/math"
)

// SetPosition moves the player root. It is ignored while teleporting.
func (c *Controller) SetPosition(pos mgl32.Vec3, clearVelocity bool) bool {
	if c.tp.Active() || !math.Finite(pos) {
		return false
	}
	c.st.Root.SetPosition(pos)
	if clearVelocity {
		c.st.Velocity = mgl32.Vec3{}
	}
	c.updateCameraView()
	return true
}

// ApplyImpulse queues a velocity change for the next acceleration step.
// A later call replaces a pending one. It is ignored while teleporting.
func (c *Controller) ApplyImpulse(v mgl32.Vec3, clearVelocity bool) bool {
	if c.tp.Active() || !math.Finite(v) {
		return false
	}
	c.impulse = Impulse{Vector: v, ClearVelocity: clearVelocity}
	c.hasImpulse = true
	return true
}

// PendingImpulse returns the queued impulse, if any.
func (c *Controller) PendingImpulse() (Impulse, bool) {
	return c.impulse, c.hasImpulse
}

// Respawn moves the player to the next spawn point. It returns the spawn
// name, or false while teleporting.
func (c *Controller) Respawn() (string, bool) {
	if c.tp.Active() {
		return "", false
	}
	name := c.spawn()
	c.log.Info("respawn requested", zap.String("at", name))
	return name, true
}

// RespawnAt places the player at a camera placement, cancelling a
// teleport in progress. It rejects a placement with a non-finite position.
func (c *Controller) RespawnAt(world mgl32.Mat4) bool {
	if !math.Finite(math.Translation(world)) {
		return false
	}
	if c.tp.Active() {
		c.tp.Cancel()
		c.log.Debug("teleport cancelled by respawn")
	}
	c.st.Velocity = mgl32.Vec3{}
	c.st.WishJump = false
	c.st.SinceGround = neverGrounded
	c.st.Jumped = false
	c.in.ResetPointer()
	c.initFromMatrix(world)
	p := c.st.Root.Position()
	c.log.Info("respawn requested", zap.Float32s("at", p[:]))
	return true
}

// RayCastPlayer intersects a ray with the player's collision spheres:
// feet, body and middle when walking, the single fly sphere when flying.
func (c *Controller) RayCastPlayer(origin, dir mgl32.Vec3) (spatial.Hit, bool) {
	root := c.st.Root.Position()
	if c.mode == Fly {
		return raySphere(origin, dir, root, c.t.flyRadius)
	}

	top := mgl32.Vec3{0, 0, c.t.height - 2*c.t.radius}
	for _, center := range []mgl32.Vec3{root, root.Add(top), root.Add(top.Mul(0.5))} {
		if hit, ok := raySphere(origin, dir, center, c.t.radius); ok {
			return hit, true
		}
	}
	return spatial.Hit{}, false
}

func raySphere(origin, dir, center mgl32.Vec3, radius float32) (spatial.Hit, bool) {
	dist, point, normal, ok := math.RaySphere(origin, dir, center, radius)
	if !ok {
		return spatial.Hit{}, false
	}
	return spatial.Hit{Position: point, Normal: normal, ID: -1, Distance: dist}, true
}
