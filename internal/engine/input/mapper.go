// Package input turns raw keyboard, mouse and gamepad events into a
// smoothed per-frame State.
package input

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// PhysicsStep is the fixed step used for pointer smoothing.
const PhysicsStep = float32(1.0 / 120.0)

// Mapper owns an input State and updates it from raw events.
type Mapper struct {
	state    *State
	bindings Bindings
	pad      GamepadConfig
	padOld   PadButton
	log      *zap.Logger

	pendingMouse mgl32.Vec2
}

// NewMapper creates a mapper. A nil logger disables logging.
func NewMapper(cfg Config, log *zap.Logger) (*Mapper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bindings, err := ParseBindings(cfg.Bindings)
	if err != nil {
		return nil, err
	}

	state := NewState(cfg.WalkMouseDamping)
	state.MouseSensitivity = cfg.MouseSensitivity * 0.01
	state.InvertMouse = cfg.InvertMouse
	state.PadLookSensitivity = cfg.Gamepad.LookSensitivity
	state.WalkDamping = cfg.WalkMouseDamping
	state.FlyDamping = cfg.FlyMouseDamping

	return &Mapper{
		state:    state,
		bindings: bindings,
		pad:      cfg.Gamepad,
		log:      log,
	}, nil
}

// State returns the mapped state.
func (m *Mapper) State() *State {
	return m.state
}

// ProcessEvent applies a press or release of a raw code.
func (m *Mapper) ProcessEvent(code Code, pressed bool) {
	action, ok := m.bindings[code]
	if !ok {
		m.log.Debug("unbound input code", zap.String("code", string(code)))
		return
	}
	m.state.Set(action, pressed)
}

// MouseDelta queues a raw pointer movement for the next Update.
func (m *Mapper) MouseDelta(d mgl32.Vec2) {
	if !finite2(d) {
		m.log.Warn("ignoring malformed pointer delta", zap.Float32s("delta", d[:]))
		return
	}
	m.pendingMouse = m.pendingMouse.Add(d)
}

// Update runs the per-frame pipeline: direction, pointer smoothing and
// gamepad axes. pad may be nil when no controller is connected.
func (m *Mapper) Update(dt float32, pad *PadState) {
	m.UpdateDirection()
	m.UpdatePointer(m.pendingMouse, dt)
	m.pendingMouse = mgl32.Vec2{}
	if pad != nil {
		m.UpdateGamepad(*pad, dt)
	} else {
		m.state.PadMove = mgl32.Vec2{}
	}
}

// UpdateDirection recomputes Direction from the held directional actions.
func (m *Mapper) UpdateDirection() {
	s := m.state
	s.Direction = mgl32.Vec3{
		axis(s.Right, s.Left),
		axis(s.Forward, s.Back),
		axis(s.Up, s.Down),
	}
	if l := s.Direction.Len(); l > 0 {
		s.Direction = s.Direction.Mul(1 / l)
	}
}

func axis(pos, neg bool) float32 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

// UpdatePointer moves the raw pointer target by delta and advances the
// smoothing spring over dt. MouseMove receives the smoothed delta.
func (m *Mapper) UpdatePointer(delta mgl32.Vec2, dt float32) {
	s := m.state
	s.MousePosRaw = s.MousePosRaw.Add(delta)
	old := s.MousePos
	s.Spring.Run2(&s.MousePos, &s.MouseVelocity, s.MousePosRaw, dt, PhysicsStep)
	s.MouseMove = s.MousePos.Sub(old)
}

// ClearTriggers resets the per-frame edge triggers. Teleport is cleared
// by its consumer.
func (m *Mapper) ClearTriggers() {
	m.state.Jump = false
	m.state.Respawn = false
	m.state.Restart = false
}

func finite2(v mgl32.Vec2) bool {
	return !math32.IsNaN(v[0]) && !math32.IsNaN(v[1]) && !math32.IsInf(v[0], 0) && !math32.IsInf(v[1], 0)
}
