package window

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/input"
)

// axisMax scales SDL stick values to [-1, 1].
const axisMax = 32767

var mouseCodes = map[uint8]input.Code{
	sdl.BUTTON_LEFT:   "LEFTMOUSE",
	sdl.BUTTON_MIDDLE: "MIDDLEMOUSE",
	sdl.BUTTON_RIGHT:  "RIGHTMOUSE",
}

var padButtons = []struct {
	button sdl.GameControllerButton
	mask   input.PadButton
}{
	{sdl.CONTROLLER_BUTTON_A, input.PadA},
	{sdl.CONTROLLER_BUTTON_B, input.PadB},
	{sdl.CONTROLLER_BUTTON_X, input.PadX},
	{sdl.CONTROLLER_BUTTON_Y, input.PadY},
	{sdl.CONTROLLER_BUTTON_BACK, input.PadBack},
	{sdl.CONTROLLER_BUTTON_START, input.PadStart},
	{sdl.CONTROLLER_BUTTON_LEFTSTICK, input.PadLeftThumb},
	{sdl.CONTROLLER_BUTTON_RIGHTSTICK, input.PadRightThumb},
	{sdl.CONTROLLER_BUTTON_LEFTSHOULDER, input.PadLeftShoulder},
	{sdl.CONTROLLER_BUTTON_RIGHTSHOULDER, input.PadRightShoulder},
	{sdl.CONTROLLER_BUTTON_DPAD_UP, input.PadDPadUp},
	{sdl.CONTROLLER_BUTTON_DPAD_DOWN, input.PadDPadDown},
	{sdl.CONTROLLER_BUTTON_DPAD_LEFT, input.PadDPadLeft},
	{sdl.CONTROLLER_BUTTON_DPAD_RIGHT, input.PadDPadRight},
}

// keyCode names a key the way bindings spell it: "W", "TAB",
// "LEFT_SHIFT".
func keyCode(sc sdl.Scancode) input.Code {
	name := strings.ToUpper(sdl.GetScancodeName(sc))
	return input.Code(strings.ReplaceAll(name, " ", "_"))
}

// Poll drains pending SDL events into the mapper. It returns true when the
// window was closed or Escape pressed. F1 toggles mouse capture.
func (w *Window) Poll(m *input.Mapper) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			pressed := e.State == sdl.PRESSED
			switch e.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				if pressed {
					return true
				}
			case sdl.SCANCODE_F1:
				if pressed {
					w.Capture(!w.captured)
				}
			default:
				m.ProcessEvent(keyCode(e.Keysym.Scancode), pressed)
			}

		case *sdl.MouseMotionEvent:
			if w.captured {
				// screen Y grows downwards
				m.MouseDelta(mgl32.Vec2{float32(e.XRel), -float32(e.YRel)})
			}

		case *sdl.MouseButtonEvent:
			if code, ok := mouseCodes[e.Button]; ok {
				m.ProcessEvent(code, e.State == sdl.PRESSED)
			}

		case *sdl.MouseWheelEvent:
			switch {
			case e.Y > 0:
				m.ProcessEvent("WHEELUPMOUSE", true)
			case e.Y < 0:
				m.ProcessEvent("WHEELDOWNMOUSE", true)
			}

		case *sdl.ControllerDeviceEvent:
			w.controllerEvent(e)
		}
	}
	return false
}

func (w *Window) controllerEvent(e *sdl.ControllerDeviceEvent) {
	switch e.Type {
	case sdl.CONTROLLERDEVICEADDED:
		pad := sdl.GameControllerOpen(int(e.Which))
		if pad == nil {
			w.log.Warn("failed to open game controller", zap.Int32("index", int32(e.Which)))
			return
		}
		id := pad.Joystick().InstanceID()
		w.pads[id] = pad
		w.log.Info("game controller connected", zap.String("name", pad.Name()))
	case sdl.CONTROLLERDEVICEREMOVED:
		if pad, ok := w.pads[e.Which]; ok {
			pad.Close()
			delete(w.pads, e.Which)
			w.log.Info("game controller disconnected")
		}
	}
}

// Gamepad polls the first connected controller, or returns nil.
func (w *Window) Gamepad() *input.PadState {
	for _, pad := range w.pads {
		axis := func(a sdl.GameControllerAxis) float32 {
			return float32(pad.Axis(a)) / axisMax
		}
		st := &input.PadState{
			LeftX:        axis(sdl.CONTROLLER_AXIS_LEFTX),
			LeftY:        -axis(sdl.CONTROLLER_AXIS_LEFTY),
			RightX:       axis(sdl.CONTROLLER_AXIS_RIGHTX),
			RightY:       -axis(sdl.CONTROLLER_AXIS_RIGHTY),
			LeftTrigger:  axis(sdl.CONTROLLER_AXIS_TRIGGERLEFT),
			RightTrigger: axis(sdl.CONTROLLER_AXIS_TRIGGERRIGHT),
		}
		for _, b := range padButtons {
			if pad.Button(b.button) != 0 {
				st.Buttons |= b.mask
			}
		}
		return st
	}
	return nil
}
