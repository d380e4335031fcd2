package motion

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/transform"
)

const (
	// noGround is the initial fake ground height, above anything in a scene.
	noGround = 1e8
	// neverGrounded is SinceGround before the first landing.
	neverGrounded = 1e8
)

// State is the simulated player. The node chain root > base > head > cam
// places the view: root carries position, base yaw, head pitch and the
// neck offset, cam the eye offset. Inertia and Effect hold the cosmetic
// offsets; Aim and View cache the composed transforms.
type State struct {
	Root, Base, Head, Cam *transform.Node
	Inertia, Effect       *transform.Node
	Aim, View             *transform.Node

	InertiaVelocity mgl32.Vec3

	// RadialAimRaw is the radial look offset in pixels, RadialAim the
	// same normalized to the aim radius.
	RadialAim    mgl32.Vec2
	RadialAimRaw mgl32.Vec2

	Pitch, Yaw         float32
	Bank, BankVelocity float32

	Velocity     mgl32.Vec3
	RealVelocity mgl32.Vec3
	RealAccel    mgl32.Vec3

	WishJump     bool
	WishJumpTime float32
	// SinceGround is the time since the walk collision last found ground.
	// Jumped is set by a jump and cleared on landing.
	SinceGround float32
	Jumped      bool

	GroundDistance   float32
	GroundNormal     mgl32.Vec3
	GroundSlope      float32
	Grounded         bool
	Contact          bool
	TopContact       bool
	Stair            bool
	LastGroundHeight float32
}

func newState() *State {
	return &State{
		Root:             transform.New("root"),
		Base:             transform.New("base"),
		Head:             transform.New("head"),
		Cam:              transform.New("cam"),
		Inertia:          transform.New("inertia"),
		Effect:           transform.New("effect"),
		Aim:              transform.New("aim"),
		View:             transform.New("view"),
		GroundNormal:     mgl32.Vec3{0, 0, 1},
		LastGroundHeight: noGround,
		SinceGround:      neverGrounded,
	}
}

// aimMatrix is root * base * head * cam.
func (s *State) aimMatrix() mgl32.Mat4 {
	return s.Root.Matrix().Mul4(s.Base.Matrix()).Mul4(s.Head.Matrix()).Mul4(s.Cam.Matrix())
}

// Snapshot is a copy of the externally interesting player state.
type Snapshot struct {
	Frame        uint64     `json:"frame"`
	Mode         string     `json:"mode"`
	Position     mgl32.Vec3 `json:"position"`
	Camera       mgl32.Vec3 `json:"camera"`
	Pitch        float32    `json:"pitch"`
	Yaw          float32    `json:"yaw"`
	Bank         float32    `json:"bank"`
	Velocity     mgl32.Vec3 `json:"velocity"`
	RealVelocity mgl32.Vec3 `json:"real_velocity"`
	Grounded     bool       `json:"grounded"`
	Contact      bool       `json:"contact"`
	Stair        bool       `json:"stair"`
	Teleporting  bool       `json:"teleporting"`
}
