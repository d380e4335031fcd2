// Package teleport moves the player to an aimed-at surface over a short,
// eased interpolation.
package teleport

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/pkg/math"
)

// Config holds teleport tunables in unscaled units.
type Config struct {
	// Speed is the travel speed for short teleports, in m/s.
	Speed float32 `yaml:"speed"`
	// MaxTime caps the duration of long teleports, in seconds.
	MaxTime float32 `yaml:"max_time"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{Speed: 20, MaxTime: 5}
}

// Phase is the controller state.
type Phase int

const (
	Idle Phase = iota
	Active
)

func (p Phase) String() string {
	if p == Active {
		return "active"
	}
	return "idle"
}

// doneEpsilon absorbs rounding in the accumulated progress.
const doneEpsilon = 1e-6

// Controller interpolates a single teleport at a time.
type Controller struct {
	phase    Phase
	progress float64
	step     float32
	speed    float32
	maxTime  float32

	source, target mgl32.Vec3
	actualSpeed    float32

	log *zap.Logger
}

// New creates an idle controller. Speed is multiplied by scale.
func New(cfg Config, scale float32, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxTime <= 0 {
		cfg.MaxTime = DefaultConfig().MaxTime
	}
	return &Controller{
		speed:   cfg.Speed * scale,
		maxTime: cfg.MaxTime,
		log:     log,
	}
}

// Speed returns the current travel speed in world units.
func (c *Controller) Speed() float32 { return c.speed }

// SetSpeed changes the travel speed in world units.
func (c *Controller) SetSpeed(s float32) { c.speed = s }

// Init casts from aimPos along -aimUp and, on a hit, starts moving source
// to the hit point pushed off the surface by radius. It reports false and
// leaves the controller unchanged when nothing is hit.
func (c *Controller) Init(index spatial.Querier, aimPos, aimUp, source mgl32.Vec3, radius float32) bool {
	dir := aimUp.Mul(-1)
	hit, ok := index.RayCast(aimPos, dir, spatial.Unbounded)
	if !ok {
		c.log.Debug("teleport ray missed")
		return false
	}

	normal := hit.Normal
	if dir.Dot(normal) > 0 {
		normal = normal.Mul(-1)
	}
	dir = math.SafeNormalize(dir)
	vec := dir.Mul(hit.Distance).Add(normal.Mul(radius))
	length := vec.Len()
	if length < math.Epsilon {
		c.log.Debug("teleport target equals source")
		return false
	}

	c.source = source
	c.target = source.Add(vec)
	c.progress = 0
	c.step = math32.Max(1/c.maxTime, c.speed/length)
	c.actualSpeed = c.step * length
	c.phase = Active

	c.log.Info("teleport",
		zap.Float32s("target", c.target[:]),
		zap.Float32("distance", length),
		zap.Float32("duration", 1/c.step))
	return true
}

// Tick advances an active teleport by dt and returns the new position.
// done is true on the tick that reaches the target.
func (c *Controller) Tick(dt float32) (pos mgl32.Vec3, done bool) {
	if c.phase != Active {
		return c.target, false
	}
	c.progress += float64(c.step) * float64(dt)
	if c.progress >= 1-doneEpsilon {
		c.progress = 1
	}
	if c.progress < 0 {
		c.progress = 0
	}

	pos = math.LerpVec3(c.source, c.target, math.EaseOutQuad(float32(c.progress)))
	if c.progress >= 1 {
		c.phase = Idle
		c.log.Debug("teleport finished")
		return c.target, true
	}
	return pos, false
}

// Cancel stops an active teleport where it is.
func (c *Controller) Cancel() {
	c.phase = Idle
}

// Phase returns the current state.
func (c *Controller) Phase() Phase { return c.phase }

// Active reports whether a teleport is in progress.
func (c *Controller) Active() bool { return c.phase == Active }

// Progress returns the interpolation parameter in [0, 1].
func (c *Controller) Progress() float32 { return float32(c.progress) }

// StepRate returns progress per second of the last teleport.
func (c *Controller) StepRate() float32 { return c.step }

// ActualSpeed returns the average speed of the last teleport.
func (c *Controller) ActualSpeed() float32 { return c.actualSpeed }

// Target returns the destination of the last teleport.
func (c *Controller) Target() mgl32.Vec3 { return c.target }
