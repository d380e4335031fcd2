package motion

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/omnistep/internal/engine/teleport"
)

// Mode is the movement model.
type Mode int

const (
	Walk Mode = iota
	Fly
)

func (m Mode) String() string {
	if m == Fly {
		return "FLY"
	}
	return "WALK"
}

// ParseMode parses "walk" or "fly", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "WALK", "":
		return Walk, nil
	case "FLY":
		return Fly, nil
	}
	return Walk, fmt.Errorf("unknown mode %q", s)
}

// MarshalYAML writes the mode name.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML reads a mode name.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParentRotation selects how much of a parent's rotation the player inherits.
type ParentRotation string

const (
	ParentRotationNone ParentRotation = "none"
	ParentRotationZ    ParentRotation = "z"
	ParentRotationFull ParentRotation = "full"
)

// Config holds every movement tunable. Distances and speeds are in meters
// and are multiplied by Scale when the controller is built.
type Config struct {
	Mode             Mode    `yaml:"mode"`
	Scale            float32 `yaml:"scale"`
	Gravity          float32 `yaml:"gravity"`
	CollisionSamples int     `yaml:"collision_samples"`

	PlayerHeight float32 `yaml:"player_height"`
	HeadOffset   float32 `yaml:"head_offset"`
	Radius       float32 `yaml:"radius"`

	WalkSpeed       float32 `yaml:"walk_speed"`
	RunSpeed        float32 `yaml:"run_speed"`
	AlwaysRun       bool    `yaml:"always_run"`
	JumpSpeed       float32 `yaml:"jump_speed"`
	WallJump        bool    `yaml:"wall_jump"`
	AirJump         bool    `yaml:"air_jump"`
	CoyoteTime      float32 `yaml:"coyote_time"`
	WishJumpTimeout float32 `yaml:"wish_jump_timeout"`

	GroundFriction float32 `yaml:"ground_friction"`
	GroundAccel    float32 `yaml:"ground_accel"`
	GroundDecel    float32 `yaml:"ground_decel"`
	AirAccel       float32 `yaml:"air_accel"`
	AirDecel       float32 `yaml:"air_decel"`

	// WalkSlope and StairSlope are in degrees.
	WalkSlope  float32 `yaml:"walk_slope"`
	StairSlope float32 `yaml:"stair_slope"`

	CamInertia              bool    `yaml:"cam_inertia"`
	InertiaSpringVertical   float32 `yaml:"inertia_spring_vertical"`
	InertiaSpringHorizontal float32 `yaml:"inertia_spring_horizontal"`
	WalkBanking             float32 `yaml:"walk_banking"`
	BankingSpring           float32 `yaml:"banking_spring"`

	FlyCollisions  bool    `yaml:"fly_collisions"`
	FlyRadius      float32 `yaml:"fly_radius"`
	FlySpeed       float32 `yaml:"fly_speed"`
	FlyAccel       float32 `yaml:"fly_accel"`
	FlyAirFriction float32 `yaml:"fly_air_friction"`
	FlyBanking     float32 `yaml:"fly_banking"`

	RadialView         bool    `yaml:"radial_view"`
	Trackball          bool    `yaml:"trackball"`
	TrackballBalance   float32 `yaml:"trackball_balance"`
	TrackballAutoLevel float32 `yaml:"trackball_auto_level"`
	RadialMaxTurn      float32 `yaml:"radial_max_turn"`
	// RadialViewSize is the aim radius in percent of the viewport height.
	RadialViewSize float32 `yaml:"radial_view_size"`

	AdjustFocal    bool           `yaml:"adjust_focal"`
	ParentRotation ParentRotation `yaml:"parent_rotation"`

	Teleport teleport.Config `yaml:"teleport"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Mode:             Walk,
		Scale:            1,
		Gravity:          20,
		CollisionSamples: 16,

		PlayerHeight: 1.6,
		HeadOffset:   0.08,
		Radius:       0.4,

		WalkSpeed:       2.25,
		RunSpeed:        4.5,
		AlwaysRun:       true,
		JumpSpeed:       6.5,
		WallJump:        true,
		CoyoteTime:      0.15,
		WishJumpTimeout: 0.3,

		GroundFriction: 5,
		GroundAccel:    5,
		GroundDecel:    4,
		AirAccel:       2,
		AirDecel:       2,

		WalkSlope:  45,
		StairSlope: 85,

		CamInertia:              true,
		InertiaSpringVertical:   100,
		InertiaSpringHorizontal: 1000,
		WalkBanking:             -0.02,
		BankingSpring:           100,

		FlyRadius:      0.25,
		FlySpeed:       6,
		FlyAccel:       12,
		FlyAirFriction: 4,
		FlyBanking:     0.15,

		TrackballBalance:   0.7,
		TrackballAutoLevel: 0.5,
		RadialMaxTurn:      2,
		RadialViewSize:     80,

		AdjustFocal:    true,
		ParentRotation: ParentRotationNone,

		Teleport: teleport.DefaultConfig(),
	}
}

// tuning is Config with world scale applied. Speed adjustment edits it in
// place; reset rebuilds it from Config.
type tuning struct {
	gravity    float32
	height     float32
	headOffset float32
	radius     float32

	walkSpeed float32
	runSpeed  float32
	jumpSpeed float32

	groundAccel float32
	groundDecel float32
	airAccel    float32
	airDecel    float32

	flyRadius      float32
	flySpeed       float32
	flyAccel       float32
	flyAirFriction float32
}

func scaled(cfg Config) tuning {
	s := cfg.Scale
	return tuning{
		gravity:    cfg.Gravity * s,
		height:     cfg.PlayerHeight * s,
		headOffset: cfg.HeadOffset * s,
		radius:     cfg.Radius * s,

		walkSpeed: cfg.WalkSpeed * s,
		runSpeed:  cfg.RunSpeed * s,
		jumpSpeed: cfg.JumpSpeed * s,

		groundAccel: cfg.GroundAccel * s,
		groundDecel: cfg.GroundDecel * s,
		airAccel:    cfg.AirAccel * s,
		airDecel:    cfg.AirDecel * s,

		flyRadius:      cfg.FlyRadius * s,
		flySpeed:       cfg.FlySpeed * s,
		flyAccel:       cfg.FlyAccel * s,
		flyAirFriction: cfg.FlyAirFriction * s,
	}
}
