package config

import (
	"fmt"

	"github.com/Faultbox/omnistep/internal/engine/motion"
)

// Validate clamps out-of-range values in place and returns a note for
// each value it changed.
func (c *Config) Validate() []string {
	var notes []string
	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo || *v > hi {
			old := *v
			*v = min(max(*v, lo), hi)
			notes = append(notes, fmt.Sprintf("%s %d clamped to %d", name, old, *v))
		}
	}
	clamp := func(name string, v *float32, lo, hi float32) {
		if !(*v >= lo && *v <= hi) {
			old := *v
			if *v != *v {
				*v = lo
			} else {
				*v = min(max(*v, lo), hi)
			}
			notes = append(notes, fmt.Sprintf("%s %g clamped to %g", name, old, *v))
		}
	}
	positive := func(name string, v *float32, def float32) {
		if !(*v > 0) {
			notes = append(notes, fmt.Sprintf("%s %g replaced by %g", name, *v, def))
			*v = def
		}
	}

	def := Default()
	m := &c.Motion
	positive("motion.scale", &m.Scale, def.Motion.Scale)
	clampInt("motion.collision_samples", &m.CollisionSamples, 1, 128)
	clamp("motion.walk_slope", &m.WalkSlope, 0, 90)
	clamp("motion.stair_slope", &m.StairSlope, 0, 90)
	positive("motion.radius", &m.Radius, def.Motion.Radius)
	positive("motion.fly_radius", &m.FlyRadius, def.Motion.FlyRadius)
	if m.PlayerHeight < 2*m.Radius {
		notes = append(notes, fmt.Sprintf("motion.player_height %g raised to %g", m.PlayerHeight, 2*m.Radius))
		m.PlayerHeight = 2 * m.Radius
	}
	clamp("motion.trackball_balance", &m.TrackballBalance, 0, 1)
	clamp("motion.trackball_auto_level", &m.TrackballAutoLevel, 0, 1)
	positive("motion.teleport.speed", &m.Teleport.Speed, def.Motion.Teleport.Speed)
	positive("motion.teleport.max_time", &m.Teleport.MaxTime, def.Motion.Teleport.MaxTime)
	switch m.ParentRotation {
	case motion.ParentRotationNone, motion.ParentRotationZ, motion.ParentRotationFull:
	default:
		notes = append(notes, fmt.Sprintf("motion.parent_rotation %q replaced by %q", m.ParentRotation, motion.ParentRotationNone))
		m.ParentRotation = motion.ParentRotationNone
	}

	in := &c.Input
	clamp("input.walk_mouse_damping", &in.WalkMouseDamping, 0, 1)
	clamp("input.fly_mouse_damping", &in.FlyMouseDamping, 0, 1)
	clamp("input.gamepad.move_dead_zone", &in.Gamepad.MoveDeadZone, 0, 0.95)
	clamp("input.gamepad.look_dead_zone", &in.Gamepad.LookDeadZone, 0, 0.95)
	positive("input.gamepad.look_exponent", &in.Gamepad.LookExponent, def.Input.Gamepad.LookExponent)

	positive("clock.fps", &c.Clock.FPS, def.Clock.FPS)

	if c.Recorder.Preroll < 0 {
		notes = append(notes, fmt.Sprintf("recorder.preroll %d clamped to 0", c.Recorder.Preroll))
		c.Recorder.Preroll = 0
	}
	if c.Recorder.FrameEnd < c.Recorder.FrameStart {
		notes = append(notes, fmt.Sprintf("recorder.frame_end %d raised to %d", c.Recorder.FrameEnd, c.Recorder.FrameStart))
		c.Recorder.FrameEnd = c.Recorder.FrameStart
	}

	if c.Remote.StreamHz < 0 {
		notes = append(notes, fmt.Sprintf("remote.stream_hz %g clamped to 0", c.Remote.StreamHz))
		c.Remote.StreamHz = 0
	}
	positive("window.pixels_per_meter", &c.Window.PixelsPerMeter, def.Window.PixelsPerMeter)
	positive("window.focal_length", &c.Window.FocalLength, def.Window.FocalLength)
	return notes
}
