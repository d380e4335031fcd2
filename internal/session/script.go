package session

import (
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/omnistep/internal/engine/input"
)

// Script is a recorded or hand-written input sequence for headless runs.
//
//	fps: 60
//	steps:
//	  - frames: 90
//	    hold: [forward]
//	  - frames: 1
//	    press: [jump]
//	  - frames: 30
//	    mouse: [4, 0]
type Script struct {
	// FPS is the measured frame rate fed to the clock; 0 uses the clock's.
	FPS   float32 `yaml:"fps"`
	Steps []Step  `yaml:"steps"`
}

// Step holds a set of actions for a number of frames.
type Step struct {
	Frames int `yaml:"frames"`
	// Hold lists actions held for the whole step.
	Hold []string `yaml:"hold,omitempty"`
	// Press lists actions pressed on the first frame only.
	Press []string `yaml:"press,omitempty"`
	// Mouse is the pointer delta in pixels added every frame.
	Mouse mgl32.Vec2 `yaml:"mouse,omitempty"`
	// Impulse, when set, is applied on the first frame.
	Impulse *mgl32.Vec3 `yaml:"impulse,omitempty"`

	hold, press []input.Action
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a script and resolves its action names.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.Frames < 1 {
			return nil, fmt.Errorf("step %d: frames must be positive, got %d", i, st.Frames)
		}
		var err error
		if st.hold, err = actions(st.Hold); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if st.press, err = actions(st.Press); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &sc, nil
}

// release lets go of pressed actions that the step does not hold.
func release(in *input.State, pressed, held []input.Action) {
	for _, a := range pressed {
		if !slices.Contains(held, a) {
			in.Set(a, false)
		}
	}
}

func actions(names []string) ([]input.Action, error) {
	out := make([]input.Action, 0, len(names))
	for _, n := range names {
		a, err := input.ParseAction(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Frames returns the total length of the script.
func (sc *Script) Frames() int {
	n := 0
	for _, st := range sc.Steps {
		n += st.Frames
	}
	return n
}

// Play runs every step of the script through the session. It stops at the
// first frame error.
func (s *Session) Play(sc *Script) error {
	dt := s.clock.Target()
	if sc.FPS > 0 {
		dt = 1 / sc.FPS
	}
	in := s.mapper.State()

	var held []input.Action
	for i, st := range sc.Steps {
		for _, a := range held {
			in.Set(a, false)
		}
		for _, a := range st.hold {
			in.Set(a, true)
		}
		held = st.hold

		for f := 0; f < st.Frames; f++ {
			if f == 0 {
				for _, a := range st.press {
					in.Set(a, true)
				}
				if st.Impulse != nil {
					s.ctrl.ApplyImpulse(*st.Impulse, false)
				}
			}
			if st.Mouse != (mgl32.Vec2{}) {
				s.mapper.MouseDelta(st.Mouse)
			}
			if err := s.Frame(dt); err != nil {
				return fmt.Errorf("step %d frame %d: %w", i, f, err)
			}
			if f == 0 {
				release(in, st.press, st.hold)
			}
		}
		s.log.Debug("script step done", zap.Int("step", i), zap.Int("frame", int(s.clock.Frame())))
	}
	for _, a := range held {
		in.Set(a, false)
	}
	return nil
}
