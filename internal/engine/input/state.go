package input

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/spring"
)

// State is the per-frame input snapshot read by the motion controller.
// Held fields follow the key state; trigger fields are edges that the
// consumer or ClearTriggers resets.
type State struct {
	Forward, Back, Left, Right, Up, Down bool
	Speed                                bool

	Jump, Toggle, Respawn, Teleport, Restart bool
	SpeedUp, SpeedDown, SpeedReset           bool
	Action1, Action2, Action3, Action4       bool

	// Direction is the movement wish direction, magnitude in [0, 1].
	Direction mgl32.Vec3

	MousePosRaw   mgl32.Vec2
	MousePos      mgl32.Vec2
	MouseVelocity mgl32.Vec2
	// MouseMove is the smoothed pointer delta of the last update.
	MouseMove mgl32.Vec2

	PadLookRaw      mgl32.Vec2
	PadLookPos      mgl32.Vec2
	PadLookVelocity mgl32.Vec2
	// PadMove is the smoothed gamepad look delta of the last update.
	PadMove mgl32.Vec2

	// PadRawMove and PadRawLook are the dead-zoned stick values.
	PadRawMove mgl32.Vec3
	PadRawLook mgl32.Vec2

	// MouseSensitivity is in degrees per pixel.
	MouseSensitivity float32
	InvertMouse      bool
	// PadLookSensitivity is in degrees per unit of PadMove.
	PadLookSensitivity float32

	// WalkDamping and FlyDamping are the pointer damping per movement mode.
	WalkDamping, FlyDamping float32

	Spring  spring.Spring
	damping float32
}

// NewState returns a state with the given pointer damping applied.
func NewState(damping float32) *State {
	s := &State{}
	s.SetDamping(damping)
	return s
}

// SetDamping sets the pointer smoothing from a damping value in [0, 1].
func (s *State) SetDamping(d float32) {
	s.damping = d
	s.Spring = spring.FromDamping(d)
}

// Damping returns the damping value last set.
func (s *State) Damping() float32 {
	return s.damping
}

// ResetPointer snaps the smoothed mouse and gamepad look onto their
// targets and drops any motion still in flight.
func (s *State) ResetPointer() {
	s.MousePos = s.MousePosRaw
	s.MouseVelocity = mgl32.Vec2{}
	s.MouseMove = mgl32.Vec2{}
	s.PadLookPos = s.PadLookRaw
	s.PadLookVelocity = mgl32.Vec2{}
	s.PadMove = mgl32.Vec2{}
}

// Set assigns the field bound to action.
func (s *State) Set(action Action, v bool) bool {
	switch action {
	case ActionForward:
		s.Forward = v
	case ActionBack:
		s.Back = v
	case ActionLeft:
		s.Left = v
	case ActionRight:
		s.Right = v
	case ActionUp:
		s.Up = v
	case ActionDown:
		s.Down = v
	case ActionJump:
		s.Jump = v
	case ActionToggle:
		s.Toggle = v
	case ActionSpeed:
		s.Speed = v
	case ActionSpeedUp:
		s.SpeedUp = v
	case ActionSpeedDown:
		s.SpeedDown = v
	case ActionSpeedReset:
		s.SpeedReset = v
	case ActionRespawn:
		s.Respawn = v
	case ActionTeleport:
		s.Teleport = v
	case ActionRestart:
		s.Restart = v
	case ActionAction1:
		s.Action1 = v
	case ActionAction2:
		s.Action2 = v
	case ActionAction3:
		s.Action3 = v
	case ActionAction4:
		s.Action4 = v
	default:
		return false
	}
	return true
}
