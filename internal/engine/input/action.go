package input

import "fmt"

// Action is a logical control that raw codes are bound to.
type Action int

const (
	ActionNone Action = iota
	ActionForward
	ActionBack
	ActionLeft
	ActionRight
	ActionUp
	ActionDown
	ActionJump
	ActionToggle
	ActionSpeed
	ActionSpeedUp
	ActionSpeedDown
	ActionSpeedReset
	ActionRespawn
	ActionTeleport
	ActionRestart
	ActionAction1
	ActionAction2
	ActionAction3
	ActionAction4
)

var actionNames = map[Action]string{
	ActionForward:    "forward",
	ActionBack:       "back",
	ActionLeft:       "left",
	ActionRight:      "right",
	ActionUp:         "up",
	ActionDown:       "down",
	ActionJump:       "jump",
	ActionToggle:     "toggle",
	ActionSpeed:      "speed",
	ActionSpeedUp:    "speed_up",
	ActionSpeedDown:  "speed_down",
	ActionSpeedReset: "speed_reset",
	ActionRespawn:    "respawn",
	ActionTeleport:   "teleport",
	ActionRestart:    "restart",
	ActionAction1:    "action1",
	ActionAction2:    "action2",
	ActionAction3:    "action3",
	ActionAction4:    "action4",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction converts a config name such as "speed_up" to an Action.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", name)
}

// Code identifies a raw key, mouse button or gamepad button, e.g. "W",
// "LEFT_SHIFT", "RIGHTMOUSE" or "PAD_A".
type Code string

// Bindings maps raw codes to actions. Several codes may share an action.
type Bindings map[Code]Action

// DefaultBindings returns the stock keyboard, mouse and gamepad layout.
func DefaultBindings() Bindings {
	return Bindings{
		"W":              ActionForward,
		"S":              ActionBack,
		"A":              ActionLeft,
		"D":              ActionRight,
		"Q":              ActionUp,
		"E":              ActionDown,
		"RIGHTMOUSE":     ActionJump,
		"TAB":            ActionToggle,
		"LEFT_SHIFT":     ActionSpeed,
		"WHEELUPMOUSE":   ActionSpeedUp,
		"WHEELDOWNMOUSE": ActionSpeedDown,
		"MIDDLEMOUSE":    ActionSpeedReset,
		"R":              ActionRespawn,
		"SPACE":          ActionTeleport,
		"X":              ActionRestart,
		"LEFTMOUSE":      ActionAction1,
		"2":              ActionAction2,
		"3":              ActionAction3,
		"4":              ActionAction4,

		"PAD_A":              ActionJump,
		"PAD_Y":              ActionToggle,
		"PAD_RIGHT_SHOULDER": ActionTeleport,
		"PAD_LEFT_SHOULDER":  ActionRespawn,
		"PAD_B":              ActionAction1,
		"PAD_X":              ActionAction2,
		"PAD_LEFT_THUMB":     ActionAction3,
		"PAD_RIGHT_THUMB":    ActionAction4,
	}
}

// ParseBindings builds a table from config entries of the form
// action name -> list of codes. Entries not listed keep their defaults.
func ParseBindings(overrides map[string][]string) (Bindings, error) {
	b := DefaultBindings()
	for name, codes := range overrides {
		action, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		for code, a := range b {
			if a == action {
				delete(b, code)
			}
		}
		for _, c := range codes {
			b[Code(c)] = action
		}
	}
	return b, nil
}
