// Package recorder samples the player view into keyframes at the scene
// frame rate and exports them.
package recorder

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/clock"
)

// State is the recorder phase.
type State int

const (
	Idle State = iota
	Preroll
	Recording
	End
)

func (s State) String() string {
	switch s {
	case Preroll:
		return "PREROLL"
	case Recording:
		return "RECORDING"
	case End:
		return "END"
	}
	return "IDLE"
}

// Config controls recording and timeline playback.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Record stores keyframes; Play advances the timeline between
	// FrameStart and FrameEnd. Without Play the frame counter runs
	// unbounded.
	Record     bool `yaml:"record"`
	Play       bool `yaml:"play"`
	Loop       bool `yaml:"loop"`
	Preroll    int  `yaml:"preroll"`
	FrameStart int  `yaml:"frame_start"`
	FrameEnd   int  `yaml:"frame_end"`
}

// DefaultConfig records a 250 frame timeline once, without preroll.
func DefaultConfig() Config {
	return Config{
		Record:     true,
		Play:       true,
		FrameStart: 1,
		FrameEnd:   250,
	}
}

// Pose is the view sampled into a keyframe.
type Pose struct {
	Position mgl32.Vec3
	// Rotation is the XYZ Euler rotation in radians.
	Rotation mgl32.Vec3
	Mode     string
	Grounded bool
}

// Keyframe is one recorded scene frame.
type Keyframe struct {
	Frame    int     `csv:"frame"`
	Time     float32 `csv:"time"`
	X        float32 `csv:"x"`
	Y        float32 `csv:"y"`
	Z        float32 `csv:"z"`
	RotX     float32 `csv:"rot_x"`
	RotY     float32 `csv:"rot_y"`
	RotZ     float32 `csv:"rot_z"`
	Mode     string  `csv:"mode"`
	Grounded bool    `csv:"grounded"`
}

// Recorder turns variable frame times into whole scene frames with an
// accumulator and stores one keyframe per scene frame while recording.
type Recorder struct {
	cfg Config
	log *zap.Logger

	state        State
	frame        int
	prerollCount int
	accumulator  float32
	writeFrame   bool
	loops        int

	// keyed by scene frame; a looped pass overwrites in place
	keys *orderedmap.OrderedMap[int, Keyframe]
}

// New creates a recorder in the IDLE state.
func New(cfg Config, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FrameEnd < cfg.FrameStart {
		log.Warn("frame end before frame start, recording a single frame",
			zap.Int("start", cfg.FrameStart), zap.Int("end", cfg.FrameEnd))
		cfg.FrameEnd = cfg.FrameStart
	}
	if cfg.Preroll < 0 {
		cfg.Preroll = 0
	}
	r := &Recorder{cfg: cfg, log: log}
	r.Restart()
	return r
}

// Restart drops every keyframe and returns to IDLE at the first frame.
func (r *Recorder) Restart() {
	r.state = Idle
	r.frame = r.cfg.FrameStart
	r.prerollCount = 0
	r.accumulator = 0
	r.writeFrame = false
	r.loops = 0
	r.keys = orderedmap.NewOrderedMap[int, Keyframe]()
}

// Active reports whether the recorder does anything at all.
func (r *Recorder) Active() bool {
	return r.cfg.Enabled && (r.cfg.Play || r.cfg.Record)
}

// Update advances the recorder by the clock's current timestep. restart
// re-initializes before advancing; pose is sampled when a frame is written.
func (r *Recorder) Update(clk *clock.Clock, restart bool, pose Pose) {
	if !r.Active() {
		return
	}
	if restart {
		r.log.Info("recorder restarted")
		r.Restart()
	}
	if r.state == End {
		return
	}

	r.writeFrame = false
	r.accumulator += clk.Timestep() / clk.Target()
	if clk.Fixed() {
		r.accumulator = 1
	}
	if r.accumulator < 1 {
		return
	}
	r.accumulator--

	if r.cfg.Play && r.prerollCount < r.cfg.Preroll {
		r.prerollCount++
		r.setState(Preroll)
		r.log.Debug("preroll", zap.Int("remaining", r.cfg.Preroll-r.prerollCount))
		return
	}
	r.setState(Recording)
	r.writeFrame = true

	if r.cfg.Record {
		r.record(clk, pose)
	}
	r.advance()
}

func (r *Recorder) setState(s State) {
	if r.state == s {
		return
	}
	r.state = s
	r.log.Info("recorder state", zap.String("state", s.String()), zap.Int("frame", r.frame))
}

func (r *Recorder) record(clk *clock.Clock, pose Pose) {
	r.keys.Set(r.frame, Keyframe{
		Frame:    r.frame,
		Time:     float32(r.frame-r.cfg.FrameStart) * clk.Target(),
		X:        pose.Position.X(),
		Y:        pose.Position.Y(),
		Z:        pose.Position.Z(),
		RotX:     pose.Rotation.X(),
		RotY:     pose.Rotation.Y(),
		RotZ:     pose.Rotation.Z(),
		Mode:     pose.Mode,
		Grounded: pose.Grounded,
	})
}

// advance moves the timeline one frame, looping or stopping at the end.
func (r *Recorder) advance() {
	if !r.cfg.Play {
		r.frame++
		return
	}
	if r.frame < r.cfg.FrameEnd {
		r.frame++
		return
	}
	if r.cfg.Loop {
		r.frame = r.cfg.FrameStart
		r.loops++
		r.log.Info("timeline looped", zap.Int("loops", r.loops))
		return
	}
	r.setState(End)
}

// State returns the recorder phase.
func (r *Recorder) State() State { return r.state }

// Frame returns the scene frame the next keyframe is written to.
func (r *Recorder) Frame() int { return r.frame }

// Loops returns how often the timeline wrapped.
func (r *Recorder) Loops() int { return r.loops }

// AtLoopBoundary reports a looping recording sitting on its first or
// last frame.
func (r *Recorder) AtLoopBoundary() bool {
	if !r.Active() || !r.cfg.Record || !r.cfg.Loop || r.state != Recording {
		return false
	}
	return r.frame == r.cfg.FrameStart || r.frame == r.cfg.FrameEnd
}

// WroteFrame reports whether the last Update produced a scene frame.
func (r *Recorder) WroteFrame() bool { return r.writeFrame }

// Len returns the number of stored keyframes.
func (r *Recorder) Len() int { return r.keys.Len() }

// Keyframes returns the stored keyframes in the order they were first
// written.
func (r *Recorder) Keyframes() []Keyframe {
	out := make([]Keyframe, 0, r.keys.Len())
	for el := r.keys.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}
