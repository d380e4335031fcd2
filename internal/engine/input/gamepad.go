package input

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// PadButton is a bit in the gamepad button mask (XInput layout).
type PadButton uint16

const (
	PadDPadUp        PadButton = 0x0001
	PadDPadDown      PadButton = 0x0002
	PadDPadLeft      PadButton = 0x0004
	PadDPadRight     PadButton = 0x0008
	PadStart         PadButton = 0x0010
	PadBack          PadButton = 0x0020
	PadLeftThumb     PadButton = 0x0040
	PadRightThumb    PadButton = 0x0080
	PadLeftShoulder  PadButton = 0x0100
	PadRightShoulder PadButton = 0x0200
	PadA             PadButton = 0x1000
	PadB             PadButton = 0x2000
	PadX             PadButton = 0x4000
	PadY             PadButton = 0x8000
)

var padCodes = []struct {
	button PadButton
	code   Code
}{
	{PadDPadUp, "PAD_DPAD_UP"},
	{PadDPadDown, "PAD_DPAD_DOWN"},
	{PadDPadLeft, "PAD_DPAD_LEFT"},
	{PadDPadRight, "PAD_DPAD_RIGHT"},
	{PadStart, "PAD_START"},
	{PadBack, "PAD_BACK"},
	{PadLeftThumb, "PAD_LEFT_THUMB"},
	{PadRightThumb, "PAD_RIGHT_THUMB"},
	{PadLeftShoulder, "PAD_LEFT_SHOULDER"},
	{PadRightShoulder, "PAD_RIGHT_SHOULDER"},
	{PadA, "PAD_A"},
	{PadB, "PAD_B"},
	{PadX, "PAD_X"},
	{PadY, "PAD_Y"},
}

// PadState is one poll of a gamepad. Sticks are in [-1, 1] with +Y
// pointing up, triggers in [0, 1].
type PadState struct {
	Buttons      PadButton
	LeftX        float32
	LeftY        float32
	RightX       float32
	RightY       float32
	LeftTrigger  float32
	RightTrigger float32
}

// UpdateGamepad folds one gamepad poll into the state: move stick and
// triggers add to Direction, the look stick feeds the look spring and
// button changes are routed through the binding table.
func (m *Mapper) UpdateGamepad(pad PadState, dt float32) {
	if !m.pad.Enabled {
		return
	}
	s := m.state

	lx, okX := m.deadZone("left_x", pad.LeftX, m.pad.MoveDeadZone)
	ly, okY := m.deadZone("left_y", pad.LeftY, m.pad.MoveDeadZone)
	lt, okLT := m.deadZone("left_trigger", pad.LeftTrigger, m.pad.MoveDeadZone)
	rt, okRT := m.deadZone("right_trigger", pad.RightTrigger, m.pad.MoveDeadZone)
	if okX {
		s.PadRawMove[0] = lx
		s.Direction[0] += lx
	}
	if okY {
		s.PadRawMove[1] = ly
		s.Direction[1] += ly
	}
	if okLT && okRT {
		s.PadRawMove[2] = rt - lt
		s.Direction[2] += rt - lt
	}
	if l := s.Direction.Len(); l > 1 {
		s.Direction = s.Direction.Mul(1 / l)
	}

	rx, okRX := m.deadZone("right_x", pad.RightX, m.pad.LookDeadZone)
	ry, okRY := m.deadZone("right_y", pad.RightY, m.pad.LookDeadZone)
	if m.pad.InvertLookY {
		ry = -ry
	}
	if okRX {
		s.PadRawLook[0] = rx
		s.PadLookRaw[0] += ResponseCurve(rx, m.pad.LookExponent)
	}
	if okRY {
		s.PadRawLook[1] = ry
		s.PadLookRaw[1] += ResponseCurve(ry, m.pad.LookExponent)
	}

	old := s.PadLookPos
	s.Spring.Run2(&s.PadLookPos, &s.PadLookVelocity, s.PadLookRaw, dt, PhysicsStep)
	s.PadMove = s.PadLookPos.Sub(old)

	for _, pc := range padCodes {
		now := pad.Buttons&pc.button != 0
		was := m.padOld&pc.button != 0
		if now != was {
			m.ProcessEvent(pc.code, now)
		}
	}
	m.padOld = pad.Buttons
}

// deadZone zeroes small values. ok is false for malformed input, which
// leaves the target field unchanged.
func (m *Mapper) deadZone(axis string, v, zone float32) (float32, bool) {
	if math32.IsNaN(v) || math32.IsInf(v, 0) || math32.Abs(v) > 1.5 {
		m.log.Warn("ignoring malformed gamepad axis", zap.String("axis", axis), zap.Float32("value", v))
		return 0, false
	}
	if math32.Abs(v) < zone {
		return 0, true
	}
	return mgl32.Clamp(v, -1, 1), true
}

// ResponseCurve applies sign(v) * |v|^exponent.
func ResponseCurve(v, exponent float32) float32 {
	if v == 0 {
		return 0
	}
	r := math32.Pow(math32.Abs(v), exponent)
	if v < 0 {
		return -r
	}
	return r
}
