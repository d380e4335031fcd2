// Package clock turns host frame deltas into the timestep the simulation
// runs with.
package clock

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Faultbox/omnistep/internal/engine/spring"
)

// PhysicsStep is the fixed step every spring and substepped integrator uses.
const PhysicsStep float32 = 1.0 / 120

// statsWindow is the number of frame times kept for Stats.
const statsWindow = 240

// Config controls frame pacing.
type Config struct {
	FPS           float32 `yaml:"fps"`
	FixedTimestep bool    `yaml:"fixed_timestep"`
}

// DefaultConfig returns 60 fps with variable timesteps.
func DefaultConfig() Config {
	return Config{FPS: 60}
}

// Clock tracks the current, target and maximum timesteps and counts frames.
type Clock struct {
	cfg     Config
	target  float32
	max     float32
	current float32
	frame   uint64
	elapsed float64

	samples []float64
	next    int

	log *zap.Logger
}

// Stats summarises recent measured frame times in seconds.
type Stats struct {
	Frames int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// New creates a clock. A non-positive fps falls back to the default.
func New(cfg Config, log *zap.Logger) *Clock {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		log.Warn("invalid fps, using default", zap.Float32("fps", cfg.FPS))
		cfg.FPS = DefaultConfig().FPS
	}
	target := 1 / cfg.FPS
	return &Clock{
		cfg:     cfg,
		target:  target,
		max:     target * 5,
		current: target,
		samples: make([]float64, 0, statsWindow),
		log:     log,
	}
}

// Tick records a measured frame delta and returns the timestep to simulate.
// The first frame, fixed mode, non-positive deltas and hitches longer than
// the maximum all use the target timestep.
func (c *Clock) Tick(measured float32) float32 {
	c.record(measured)

	dt := measured
	switch {
	case c.cfg.FixedTimestep || c.frame == 0:
		dt = c.target
	case measured <= 0 || math32.IsNaN(measured):
		c.log.Warn("non-positive timestep, using target",
			zap.Float32("measured", measured),
			zap.Uint64("frame", c.frame))
		dt = c.target
	case measured > c.max:
		c.log.Debug("frame hitch, using target",
			zap.Float32("measured", measured),
			zap.Float32("max", c.max))
		dt = c.target
	}

	c.current = dt
	c.frame++
	c.elapsed += float64(dt)
	return dt
}

func (c *Clock) record(measured float32) {
	if measured <= 0 || math32.IsNaN(measured) || math32.IsInf(measured, 0) {
		return
	}
	if len(c.samples) < statsWindow {
		c.samples = append(c.samples, float64(measured))
		return
	}
	c.samples[c.next] = float64(measured)
	c.next = (c.next + 1) % statsWindow
}

// Timestep returns the timestep of the last tick.
func (c *Clock) Timestep() float32 { return c.current }

// Target returns 1/fps.
func (c *Clock) Target() float32 { return c.target }

// Max returns the largest timestep simulated as measured.
func (c *Clock) Max() float32 { return c.max }

// Fixed reports whether every frame runs at the target timestep.
func (c *Clock) Fixed() bool { return c.cfg.FixedTimestep }

// FPS returns the configured frame rate.
func (c *Clock) FPS() float32 { return c.cfg.FPS }

// Frame returns the number of ticks so far.
func (c *Clock) Frame() uint64 { return c.frame }

// Elapsed returns the simulated time in seconds.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Substeps splits the current timestep into physics steps.
func (c *Clock) Substeps() (n int, sub float32) {
	return spring.Substeps(c.current, PhysicsStep)
}

// Stats reports the recent measured frame times.
func (c *Clock) Stats() Stats {
	if len(c.samples) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(c.samples, nil)
	return Stats{
		Frames: len(c.samples),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(c.samples),
		Max:    floats.Max(c.samples),
	}
}
