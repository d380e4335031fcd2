// Package motion is the first-person movement core: it turns an input
// State into player motion against a spatial index and writes the
// resulting view to the host camera.
package motion

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/input"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/internal/engine/spring"
	"github.com/Faultbox/omnistep/internal/engine/teleport"
	"github.com/Faultbox/omnistep/internal/engine/transform"
	"github.com/Faultbox/omnistep/pkg/math"
)

var (
	// ErrNoCamera is returned when the controller has no camera to drive.
	ErrNoCamera = errors.New("motion: no camera")
	// ErrNoIndex is returned when the controller has no geometry to query.
	ErrNoIndex = errors.New("motion: no spatial index")
)

// defaultTimestep replaces a non-positive timestep passed to Update.
const defaultTimestep = 1.0 / 60

// Spawn is a named camera placement the player can respawn at.
type Spawn struct {
	Name  string
	World mgl32.Mat4
}

// Parent is a host-animated transform the player can be locked to.
type Parent interface {
	WorldMatrix() mgl32.Mat4
}

// Options are the collaborators of a controller.
type Options struct {
	Camera camera.Host
	Index  spatial.Querier
	// Input is read every update. A nil Input is replaced by an idle state.
	Input  *input.State
	Spawns []Spawn
	Log    *zap.Logger
}

// Impulse is a pending velocity change.
type Impulse struct {
	Vector        mgl32.Vec3
	ClearVelocity bool
}

// Controller runs the WALK/FLY state machine for one player.
type Controller struct {
	cfg  Config
	t    tuning
	mode Mode
	st   *State

	in    *input.State
	cam   camera.Host
	index spatial.Querier
	tp    *teleport.Controller
	log   *zap.Logger

	dt          float32
	initialView mgl32.Mat4
	spawns      []Spawn
	nextSpawn   int

	impulse    Impulse
	hasImpulse bool
	parent     Parent

	inertiaK   mgl32.Vec3
	inertiaC   mgl32.Vec3
	bankSpring spring.Spring
}

// New creates a controller and spawns the player at the first spawn point,
// or at the current camera placement when there are none.
func New(cfg Config, opts Options) (*Controller, error) {
	if opts.Camera == nil {
		return nil, ErrNoCamera
	}
	if opts.Index == nil {
		return nil, ErrNoIndex
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	in := opts.Input
	if in == nil {
		def := input.DefaultConfig()
		in = input.NewState(def.WalkMouseDamping)
		in.WalkDamping, in.FlyDamping = def.WalkMouseDamping, def.FlyMouseDamping
	}
	if cfg.Scale <= 0 {
		log.Warn("invalid scale, using 1", zap.Float32("scale", cfg.Scale))
		cfg.Scale = 1
	}
	if cfg.CollisionSamples < 1 {
		cfg.CollisionSamples = 1
	}

	h, v := cfg.InertiaSpringHorizontal, cfg.InertiaSpringVertical
	c := &Controller{
		cfg:         cfg,
		t:           scaled(cfg),
		mode:        cfg.Mode,
		st:          newState(),
		in:          in,
		cam:         opts.Camera,
		index:       opts.Index,
		tp:          teleport.New(cfg.Teleport, cfg.Scale, log.Named("teleport")),
		log:         log,
		dt:          defaultTimestep,
		initialView: opts.Camera.WorldMatrix(),
		spawns:      opts.Spawns,
		inertiaK:    mgl32.Vec3{h, h, v},
		inertiaC:    mgl32.Vec3{2 * math32.Sqrt(h), 2 * math32.Sqrt(h), 2 * math32.Sqrt(v)},
		bankSpring:  spring.Critical(cfg.BankingSpring),
	}

	name := c.spawn()
	log.Info("player spawned",
		zap.String("mode", c.mode.String()),
		zap.String("at", name),
		zap.Int("spawns", len(c.spawns)))
	return c, nil
}

// Mode returns the movement mode.
func (c *Controller) Mode() Mode { return c.mode }

// State returns the live player state. Callers must not mutate it.
func (c *Controller) State() *State { return c.st }

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config { return c.cfg }

// Teleporting reports whether a teleport is in progress.
func (c *Controller) Teleporting() bool { return c.tp.Active() }

// Teleport exposes the teleport state machine.
func (c *Controller) Teleport() *teleport.Controller { return c.tp }

// WishSpeed returns the current walk or run speed in world units.
func (c *Controller) WishSpeed() float32 {
	if c.cfg.AlwaysRun != c.in.Speed {
		return c.t.runSpeed
	}
	return c.t.walkSpeed
}

// FlySpeed returns the current fly speed in world units.
func (c *Controller) FlySpeed() float32 { return c.t.flySpeed }

// Snapshot copies the player state.
func (c *Controller) Snapshot() Snapshot {
	st := c.st
	return Snapshot{
		Mode:         c.mode.String(),
		Position:     st.Root.Position(),
		Camera:       st.View.Position(),
		Pitch:        st.Pitch,
		Yaw:          st.Yaw,
		Bank:         st.Bank,
		Velocity:     st.Velocity,
		RealVelocity: st.RealVelocity,
		Grounded:     st.Grounded,
		Contact:      st.Contact,
		Stair:        st.Stair,
		Teleporting:  c.tp.Active(),
	}
}

// SetParent locks the player to p. A nil parent resumes simulation.
func (c *Controller) SetParent(p Parent) {
	c.parent = p
}

// Update advances the player by dt seconds.
func (c *Controller) Update(dt float32) {
	if !(dt > 0) || math32.IsInf(dt, 0) {
		c.log.Warn("invalid timestep, using default", zap.Float32("dt", dt))
		dt = defaultTimestep
	}
	c.dt = dt
	oldPos, oldVel := c.st.Root.Position(), c.st.Velocity
	defer c.sanitize(oldPos, oldVel)

	if c.parent != nil {
		c.lockMove()
		c.effects(c.t.walkSpeed, c.t.flySpeed)
		c.updateInputView(true)
		c.updateCameraView()
		return
	}

	if c.in.Teleport {
		c.in.Teleport = false
		c.startTeleport()
	}
	if c.tp.Active() {
		c.teleportTick()
		speed := c.tp.ActualSpeed()
		c.effects(speed, speed)
		c.updateInputView(true)
		c.updateCameraView()
		return
	}

	if c.in.Respawn {
		c.in.Respawn = false
		name := c.spawn()
		c.log.Info("respawn", zap.String("at", name))
	}

	if c.in.SpeedUp {
		c.in.SpeedUp = false
		c.adjustSpeed(1.1)
	}
	if c.in.SpeedDown {
		c.in.SpeedDown = false
		c.adjustSpeed(0.9)
	}
	if c.in.SpeedReset {
		c.in.SpeedReset = false
		c.resetSpeed()
	}

	if c.in.Toggle {
		c.in.Toggle = false
		c.toggleMode()
	}

	c.updateInputView(true)

	switch c.mode {
	case Walk:
		if c.in.Jump {
			c.st.WishJump = true
			c.st.WishJumpTime = 0
		}
		if c.st.Grounded {
			c.groundMove()
		} else {
			c.airMove()
		}
		c.walkCollide()
		if c.st.Grounded {
			c.st.SinceGround = 0
			c.st.Jumped = false
		} else {
			c.st.SinceGround += dt
		}
		if c.cfg.CamInertia {
			c.inertiaEffect()
		}
		c.bankingEffect(c.cfg.WalkBanking, c.t.runSpeed)

	case Fly:
		c.flyMove()
		if c.cfg.FlyCollisions {
			c.flyCollide()
		} else {
			c.flyNoCollide()
		}
		if c.cfg.RadialView && c.cfg.Trackball {
			c.bankingEffect(0, c.t.flySpeed)
		} else {
			c.bankingEffect(c.cfg.FlyBanking, c.t.flySpeed)
		}
	}

	if c.st.WishJump {
		c.st.WishJumpTime += dt
		if c.st.WishJumpTime > c.cfg.WishJumpTimeout {
			c.st.WishJump = false
			c.st.WishJumpTime = 0
		}
	}

	c.updateCameraView()
}

// effects runs the secondary camera effects outside normal movement.
func (c *Controller) effects(walkSpeed, flySpeed float32) {
	switch c.mode {
	case Walk:
		if c.cfg.CamInertia {
			c.inertiaEffect()
		}
		c.bankingEffect(c.cfg.WalkBanking, walkSpeed)
	case Fly:
		c.bankingEffect(c.cfg.FlyBanking, flySpeed)
	}
}

// sanitize restores the last good position if a step produced NaN or Inf.
func (c *Controller) sanitize(oldPos, oldVel mgl32.Vec3) {
	st := c.st
	if math.Finite(st.Root.Position()) && math.Finite(st.Velocity) &&
		math.Finite(st.RealVelocity) && math.Finite(st.RealAccel) {
		return
	}
	c.log.Warn("non-finite player state, restoring last position",
		zap.Float32s("position", oldPos[:]),
		zap.Float32s("velocity", oldVel[:]))
	st.Root.SetPosition(oldPos)
	st.Velocity = mgl32.Vec3{}
	st.RealVelocity = mgl32.Vec3{}
	st.RealAccel = mgl32.Vec3{}
	st.InertiaVelocity = mgl32.Vec3{}
	st.Inertia.SetPosition(mgl32.Vec3{})
	c.updateCameraView()
}

// spawn resets motion and places the player at the next spawn point.
func (c *Controller) spawn() string {
	c.st.Velocity = mgl32.Vec3{}
	c.st.WishJump = false
	c.st.SinceGround = neverGrounded
	c.st.Jumped = false
	c.applyDamping()
	c.in.ResetPointer()

	if len(c.spawns) == 0 {
		c.initFromMatrix(c.initialView)
		return "initial view"
	}
	sp := c.spawns[c.nextSpawn]
	c.initFromMatrix(sp.World)
	c.nextSpawn = (c.nextSpawn + 1) % len(c.spawns)
	return sp.Name
}

func (c *Controller) applyDamping() {
	if c.mode == Fly {
		c.in.SetDamping(c.in.FlyDamping)
	} else {
		c.in.SetDamping(c.in.WalkDamping)
	}
}

func (c *Controller) toggleMode() {
	if c.mode == Walk {
		c.mode = Fly
	} else {
		c.mode = Walk
	}
	c.applyDamping()
	c.in.ResetPointer()
	c.initFromMatrix(c.cam.WorldMatrix())
	c.st.RadialAimRaw = mgl32.Vec2{}
	c.st.RadialAim = mgl32.Vec2{}
	c.log.Info("mode changed", zap.String("mode", c.mode.String()))
}

// initFromMatrix rebuilds the node chain so that the composed view equals
// the camera placement world.
func (c *Controller) initFromMatrix(world mgl32.Mat4) {
	st := c.st
	st.Pitch, st.Yaw = camera.PitchYaw(world)
	pos := math.Translation(world)

	switch c.mode {
	case Walk:
		// back out the neck pivot from the eye, then drop to the feet sphere
		st.Root.SetEuler(mgl32.Vec3{st.Pitch, 0, st.Yaw})
		st.Root.SetPosition(pos)
		st.Root.Translate(mgl32.Vec3{0, 0, c.t.headOffset}, transform.Local)
		st.Root.SetRotation(mgl32.QuatIdent())
		offset := c.neckHeight()
		st.Root.Translate(mgl32.Vec3{0, 0, -offset}, transform.Local)

		st.Base.Reset()
		st.Base.SetEuler(mgl32.Vec3{0, 0, st.Yaw})
		st.Head.SetPosition(mgl32.Vec3{0, 0, offset})
		st.Head.SetEuler(mgl32.Vec3{st.Pitch, 0, 0})
		st.Cam.Reset()
		st.Cam.SetPosition(mgl32.Vec3{0, 0, -c.t.headOffset})
		st.Inertia.Reset()
		st.Effect.Reset()

		c.walkInitCollide()

	case Fly:
		st.Root.Reset()
		st.Root.SetPosition(pos)
		st.Base.Reset()
		st.Base.SetEuler(mgl32.Vec3{0, 0, st.Yaw})
		st.Head.Reset()
		st.Head.SetEuler(mgl32.Vec3{st.Pitch, 0, 0})
		st.Cam.Reset()
		st.Inertia.Reset()
		st.Effect.Reset()
	}

	c.updateInputView(false)
	c.updateCameraView()
}

// neckHeight is the distance from the feet sphere center to the neck pivot.
func (c *Controller) neckHeight() float32 {
	return c.t.height - 0.1*c.cfg.Scale - c.t.radius
}

func (c *Controller) adjustSpeed(factor float32) {
	t := &c.t
	t.walkSpeed *= factor
	t.runSpeed *= factor
	t.flySpeed *= factor
	t.flyAccel *= factor
	t.flyAirFriction *= factor
	c.tp.SetSpeed(c.tp.Speed() * factor)

	speed := t.flySpeed
	if c.mode == Walk {
		speed = t.walkSpeed
		if c.cfg.AlwaysRun {
			speed = t.runSpeed
		}
	}
	c.log.Info("speed adjusted", zap.String("mode", c.mode.String()), zap.Float32("speed", speed))
}

func (c *Controller) resetSpeed() {
	def := scaled(c.cfg)
	t := &c.t
	t.walkSpeed = def.walkSpeed
	t.runSpeed = def.runSpeed
	t.flySpeed = def.flySpeed
	t.flyAccel = def.flyAccel
	t.flyAirFriction = def.flyAirFriction
	c.tp.SetSpeed(c.cfg.Teleport.Speed * c.cfg.Scale)
	c.log.Info("speed reset")
}

// radius is the collision radius of the current mode.
func (c *Controller) radius() float32 {
	if c.mode == Fly {
		return c.t.flyRadius
	}
	return c.t.radius
}

func (c *Controller) startTeleport() {
	st := c.st
	// push-off uses the active mode's radius, the fly sphere in FLY
	if !c.tp.Init(c.index, st.Aim.Position(), st.Aim.Up(), st.Root.Position(), c.radius()) {
		c.log.Debug("teleport target not found")
	}
}

func (c *Controller) teleportTick() {
	st := c.st
	oldVel, oldPos := st.RealVelocity, st.Root.Position()

	pos, done := c.tp.Tick(c.dt)
	st.Root.SetPosition(pos)
	if c.mode == Walk {
		c.walkInitCollide()
	}
	c.updateRealMotion(oldPos, oldVel)

	if done {
		st.Velocity = mgl32.Vec3{}
	}
}

// updateRealMotion derives the observed velocity and acceleration from the
// root displacement over the current timestep.
func (c *Controller) updateRealMotion(oldPos, oldVel mgl32.Vec3) {
	st := c.st
	inv := 1 / c.dt
	st.RealVelocity = st.Root.Position().Sub(oldPos).Mul(inv)
	st.RealAccel = st.RealVelocity.Sub(oldVel).Mul(inv)
}

// lockMove places the root on the parent instead of simulating.
func (c *Controller) lockMove() {
	st := c.st
	oldVel, oldPos := st.RealVelocity, st.Root.Position()

	var offset mgl32.Vec3
	if c.mode == Walk {
		offset = mgl32.Vec3{0, 0, c.neckHeight()}
	}
	pm := c.parent.WorldMatrix()
	if c.cfg.ParentRotation == ParentRotationFull {
		offset = math.TransformDir(math.RotationPart(pm), offset)
	}
	st.Root.SetPosition(math.Translation(pm).Sub(offset))

	switch c.cfg.ParentRotation {
	case ParentRotationZ:
		st.Root.SetEuler(mgl32.Vec3{0, 0, math.EulerXYZ(pm).Z()})
	case ParentRotationFull:
		st.Root.SetRotation(mgl32.Mat4ToQuat(math.RotationPart(pm)))
	}

	c.updateRealMotion(oldPos, oldVel)
}
