package input

// Config holds pointer and gamepad tuning.
type Config struct {
	// MouseSensitivity is in hundredths of a degree per pixel.
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	InvertMouse      bool    `yaml:"invert_mouse"`
	WalkMouseDamping float32 `yaml:"walk_mouse_damping"`
	FlyMouseDamping  float32 `yaml:"fly_mouse_damping"`

	// Bindings overrides the default table: action name -> codes.
	Bindings map[string][]string `yaml:"bindings,omitempty"`

	Gamepad GamepadConfig `yaml:"gamepad"`
}

// GamepadConfig holds stick response settings.
type GamepadConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MoveDeadZone    float32 `yaml:"move_dead_zone"`
	LookDeadZone    float32 `yaml:"look_dead_zone"`
	LookSensitivity float32 `yaml:"look_sensitivity"`
	LookExponent    float32 `yaml:"look_exponent"`
	InvertLookY     bool    `yaml:"invert_look_y"`
}

// DefaultConfig returns the stock input settings.
func DefaultConfig() Config {
	return Config{
		MouseSensitivity: 5,
		WalkMouseDamping: 0.1,
		FlyMouseDamping:  0.6,
		Gamepad: GamepadConfig{
			Enabled:         true,
			MoveDeadZone:    0.1,
			LookDeadZone:    0.1,
			LookSensitivity: 2.5,
			LookExponent:    2.0,
		},
	}
}
