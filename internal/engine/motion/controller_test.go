package motion

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/pkg/math"
)

func TestNewPreconditions(t *testing.T) {
	cam := camera.NewViewport(mgl32.Ident4(), 720)
	if _, err := New(DefaultConfig(), Options{Index: spatial.NewIndex(nil, nil)}); !errors.Is(err, ErrNoCamera) {
		t.Errorf("expected ErrNoCamera, got %v", err)
	}
	if _, err := New(DefaultConfig(), Options{Camera: cam}); !errors.Is(err, ErrNoIndex) {
		t.Errorf("expected ErrNoIndex, got %v", err)
	}
}

func TestWalkSpawnKeepsView(t *testing.T) {
	world := camera.FromPitchYaw(mgl32.Vec3{1, 2, 1.5}, 1.2, 0.7)
	r := newRig(t, DefaultConfig(), world, floorQuad(0, 50))

	got := math.Translation(r.cam.World)
	if !got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 1.5}, 1e-4) {
		t.Errorf("expected camera to stay at spawn, got %v", got)
	}
	st := r.c.State()
	if !approx(st.Pitch, 1.2, 1e-4) || !approx(st.Yaw, 0.7, 1e-4) {
		t.Errorf("expected pitch 1.2 yaw 0.7, got %f %f", st.Pitch, st.Yaw)
	}
	neck := r.c.neckHeight()
	if !approx(st.Root.Position().Z(), 1.5-neck+0.08*math32.Cos(1.2), 1e-4) {
		t.Errorf("expected root below the neck pivot, got %f", st.Root.Position().Z())
	}
}

func TestScenarioFallSettlesOnFloor(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 3.5}), floorQuad(0, 50))
	startZ := r.c.State().Root.Position().Z()
	if !approx(startZ, 2.4, 1e-3) {
		t.Fatalf("expected feet sphere 2m above the floor, got %f", startZ)
	}

	r.run(180)

	st := r.c.State()
	if !approx(st.Root.Position().Z(), cfg.Radius, 1e-3) {
		t.Errorf("expected root z %f, got %f", cfg.Radius, st.Root.Position().Z())
	}
	if !st.Grounded {
		t.Error("expected grounded after landing")
	}
	if st.GroundSlope > 1e-3 {
		t.Errorf("expected flat ground, got slope %f", st.GroundSlope)
	}
}

func TestScenarioWalkForwardOneSecond(t *testing.T) {
	tests := []struct {
		name  string
		accel float32
		want  float32
	}{
		// 5 reaches 2.25 m/s after 0.2 s, losing a tenth of the distance
		{name: "ramp", accel: 5, want: 2.25 * 0.9},
		// 1000 reaches full speed on the first frame
		{name: "instant", accel: 1000, want: 2.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AlwaysRun = false
			cfg.GroundFriction = 0
			cfg.GroundAccel = tt.accel
			r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
			r.run(30)

			y0 := r.c.State().Root.Position().Y()
			r.in.Direction = mgl32.Vec3{0, 1, 0}
			r.run(60)
			moved := r.c.State().Root.Position().Y() - y0

			lo, hi := tt.want*0.95, tt.want*1.05
			if moved < lo || moved > hi {
				t.Errorf("expected displacement in [%f, %f], got %f", lo, hi, moved)
			}
			if !r.c.State().Grounded {
				t.Error("expected to stay grounded")
			}
		})
	}
}

func TestScenarioClimbStairs(t *testing.T) {
	cfg := DefaultConfig()
	// eight 0.15 m steps from y = 1 up to a landing at z = 1.2
	faces := append(ground(1, 2), stairs(1, 0.15, 0.3, 8, 2, 30)...)
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), faces)
	r.run(30)

	r.in.Direction = mgl32.Vec3{0, 1, 0}
	stair := false
	for i := 0; i < 120; i++ {
		r.c.Update(frame)
		stair = stair || r.c.State().Stair
	}
	r.in.Direction = mgl32.Vec3{}
	r.run(60)

	st := r.c.State()
	if !stair {
		t.Error("expected a stair contact on the way up")
	}
	if y := st.Root.Position().Y(); y < 3.4 {
		t.Fatalf("expected to reach the landing past y 3.4, got y %f", y)
	}
	if z := st.Root.Position().Z(); !approx(z, 1.2+cfg.Radius, 2e-3) {
		t.Errorf("expected root z %f on the landing, got %f", 1.2+cfg.Radius, z)
	}
	if !st.Grounded {
		t.Error("expected grounded on the landing")
	}
}

func TestKneeWallBlocks(t *testing.T) {
	cfg := DefaultConfig()
	// a 0.5 m ledge at y = 2 is too tall to step onto
	faces := append(ground(2, 2), stairs(2, 0.5, 4, 1, 2, 6)...)
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), faces)
	r.run(30)

	r.in.Direction = mgl32.Vec3{0, 1, 0}
	r.run(120)

	st := r.c.State()
	if y := st.Root.Position().Y(); y > 2-cfg.Radius+1e-3 {
		t.Errorf("expected to stop %f in front of the ledge, got y %f", cfg.Radius, y)
	}
	if z := st.Root.Position().Z(); !approx(z, cfg.Radius, 2e-3) {
		t.Errorf("expected to stay on the floor at z %f, got %f", cfg.Radius, z)
	}
	if st.Stair {
		t.Error("expected the ledge to count as a wall")
	}
}

func TestRunModifierSelectsSpeed(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	if r.c.WishSpeed() != cfg.RunSpeed {
		t.Errorf("expected always-run speed %f, got %f", cfg.RunSpeed, r.c.WishSpeed())
	}
	r.in.Speed = true
	if r.c.WishSpeed() != cfg.WalkSpeed {
		t.Errorf("expected modifier to walk at %f, got %f", cfg.WalkSpeed, r.c.WishSpeed())
	}
}

func TestScenarioFlyIntoWall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Fly
	cfg.FlyCollisions = true
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1}), wallQuad(3, 10))

	r.in.Direction = mgl32.Vec3{0, 1, 0}
	limit := 3 - cfg.FlyRadius
	for i := 0; i < 120; i++ {
		r.c.Update(frame)
		if y := r.c.State().Root.Position().Y(); y > limit+1e-4 {
			t.Fatalf("frame %d: expected y <= %f, got %f", i, limit, y)
		}
	}
	if y := r.c.State().Root.Position().Y(); !approx(y, limit, 1e-3) {
		t.Errorf("expected to rest %f from the wall, got y %f", cfg.FlyRadius, y)
	}
	if !r.c.State().Contact {
		t.Error("expected wall contact")
	}
}

func TestFastImpulseDoesNotTunnel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Fly
	cfg.FlyCollisions = true
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1}), wallQuad(3, 10))

	// 1 m per frame, 16 substeps of 6.25 cm against a 25 cm sphere
	r.c.ApplyImpulse(mgl32.Vec3{0, 60, 0}, true)
	for i := 0; i < 30; i++ {
		r.c.Update(frame)
		if y := r.c.State().Root.Position().Y(); y > 3-cfg.FlyRadius+1e-4 {
			t.Fatalf("frame %d: expected to stay in front of the wall, got y %f", i, y)
		}
	}
}

func TestWalkIntoWallSlides(t *testing.T) {
	cfg := DefaultConfig()
	faces := append(floorQuad(0, 50), wallQuad(3, 50)...)
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), faces)
	r.run(10)

	r.in.Direction = mgl32.Vec3{0, 1, 0}
	limit := 3 - cfg.Radius
	for i := 0; i < 120; i++ {
		r.c.Update(frame)
		if y := r.c.State().Root.Position().Y(); y > limit+1e-3 {
			t.Fatalf("frame %d: expected y <= %f, got %f", i, limit, y)
		}
	}
	st := r.c.State()
	if !approx(st.Root.Position().Y(), limit, 1e-2) {
		t.Errorf("expected to rest against the wall at %f, got %f", limit, st.Root.Position().Y())
	}
	if st.Velocity.Y() > 1e-3 {
		t.Errorf("expected velocity into the wall removed, got %f", st.Velocity.Y())
	}
}

func TestScenarioToggleRoundTrip(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{2, -1, 1.5}), floorQuad(0, 50))
	r.run(30)

	st := r.c.State()
	pitch, yaw := st.Pitch, st.Yaw
	root := st.Root.Position()
	eye := math.Translation(r.cam.World)

	r.in.Toggle = true
	r.c.Update(frame)
	if r.c.Mode() != Fly {
		t.Fatalf("expected FLY, got %v", r.c.Mode())
	}
	if r.in.Damping() != r.in.FlyDamping {
		t.Errorf("expected fly damping %f, got %f", r.in.FlyDamping, r.in.Damping())
	}
	if got := math.Translation(r.cam.World); !got.ApproxEqualThreshold(eye, 1e-3) {
		t.Errorf("expected camera to stay at %v in FLY, got %v", eye, got)
	}
	r.run(5)

	r.in.Toggle = true
	r.c.Update(frame)
	if r.c.Mode() != Walk {
		t.Fatalf("expected WALK, got %v", r.c.Mode())
	}
	if r.in.Toggle {
		t.Error("expected toggle trigger consumed")
	}
	if !approx(st.Pitch, pitch, 1e-4) || !approx(st.Yaw, yaw, 1e-4) {
		t.Errorf("expected pitch %f yaw %f, got %f %f", pitch, yaw, st.Pitch, st.Yaw)
	}
	if got := st.Root.Position(); !got.ApproxEqualThreshold(root, 1e-3) {
		t.Errorf("expected root %v, got %v", root, got)
	}
}

func TestMouseLook(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	st := r.c.State()

	r.in.MouseMove = mgl32.Vec2{10, 0}
	r.c.Update(frame)
	want := -10 * mgl32.DegToRad(0.05)
	if !approx(st.Yaw, want, 1e-5) {
		t.Errorf("expected yaw %f, got %f", want, st.Yaw)
	}

	r.in.MouseMove = mgl32.Vec2{0, 1e6}
	r.c.Update(frame)
	if !approx(st.Pitch, math32.Pi-pitchLimit, 1e-5) {
		t.Errorf("expected pitch clamped below pi, got %f", st.Pitch)
	}
	r.in.MouseMove = mgl32.Vec2{0, -1e7}
	r.c.Update(frame)
	if !approx(st.Pitch, pitchLimit, 1e-5) {
		t.Errorf("expected pitch clamped above 0, got %f", st.Pitch)
	}
}

func TestFocalLengthSlowsLook(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	r.cam.Focal = 112
	r.in.MouseMove = mgl32.Vec2{10, 0}
	r.c.Update(frame)
	want := -10 * mgl32.DegToRad(0.05) * 0.5
	if !approx(r.c.State().Yaw, want, 1e-5) {
		t.Errorf("expected half-speed yaw %f, got %f", want, r.c.State().Yaw)
	}
}

func TestJumpLeavesGround(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	r.run(10)

	r.in.Jump = true
	r.c.Update(frame)
	r.in.Jump = false
	st := r.c.State()
	if st.Grounded || st.Velocity.Z() <= 0 {
		t.Errorf("expected airborne with upward velocity, got grounded %v vz %f", st.Grounded, st.Velocity.Z())
	}
	if st.WishJump {
		t.Error("expected jump consumed")
	}

	r.run(120)
	if !st.Grounded || !approx(st.Root.Position().Z(), cfg.Radius, 1e-3) {
		t.Errorf("expected to land again, got z %f", st.Root.Position().Z())
	}
}

func TestWishJumpTimesOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WallJump = false
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 30}), floorQuad(0, 50))

	r.in.Jump = true
	r.c.Update(frame)
	r.in.Jump = false
	if !r.c.State().WishJump {
		t.Fatal("expected jump to be buffered in the air")
	}
	r.run(int(cfg.WishJumpTimeout/frame) + 2)
	if r.c.State().WishJump {
		t.Error("expected buffered jump to expire")
	}
}

func TestFakeGroundHoldsOverGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlwaysRun = false
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 1))
	r.run(10)

	r.in.Direction = mgl32.Vec3{0, 1, 0}
	r.run(120)
	st := r.c.State()
	if st.Root.Position().Y() < 2 {
		t.Fatalf("expected to walk past the platform edge, got y %f", st.Root.Position().Y())
	}
	if !approx(st.Root.Position().Z(), cfg.Radius, 1e-3) || !st.Grounded {
		t.Errorf("expected to be held at ground height, got z %f grounded %v",
			st.Root.Position().Z(), st.Grounded)
	}
}

func TestInvalidTimestepStaysFinite(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	r.c.Update(0)
	r.c.Update(-1)
	r.c.Update(float32(math32.NaN()))
	st := r.c.State()
	if !math.Finite(st.Root.Position()) || !math.Finite(st.Velocity) || !math.Finite(st.RealAccel) {
		t.Errorf("expected finite state, got pos %v vel %v", st.Root.Position(), st.Velocity)
	}
}

func TestSpeedAdjust(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))

	r.in.SpeedUp = true
	r.c.Update(frame)
	if !approx(r.c.WishSpeed(), cfg.RunSpeed*1.1, 1e-5) {
		t.Errorf("expected run speed %f, got %f", cfg.RunSpeed*1.1, r.c.WishSpeed())
	}
	if !approx(r.c.Teleport().Speed(), cfg.Teleport.Speed*1.1, 1e-4) {
		t.Errorf("expected teleport speed scaled, got %f", r.c.Teleport().Speed())
	}
	if r.in.SpeedUp {
		t.Error("expected speed up trigger consumed")
	}

	r.in.SpeedDown = true
	r.c.Update(frame)
	if !approx(r.c.FlySpeed(), cfg.FlySpeed*1.1*0.9, 1e-5) {
		t.Errorf("expected fly speed %f, got %f", cfg.FlySpeed*0.99, r.c.FlySpeed())
	}

	r.in.SpeedReset = true
	r.c.Update(frame)
	if r.c.WishSpeed() != cfg.RunSpeed || r.c.FlySpeed() != cfg.FlySpeed {
		t.Errorf("expected configured speeds, got %f %f", r.c.WishSpeed(), r.c.FlySpeed())
	}
	if r.c.Teleport().Speed() != cfg.Teleport.Speed {
		t.Errorf("expected teleport speed %f, got %f", cfg.Teleport.Speed, r.c.Teleport().Speed())
	}
}

func TestRespawnCyclesSpawns(t *testing.T) {
	spawns := []Spawn{
		{Name: "a", World: eyeAt(mgl32.Vec3{5, 0, 1.5})},
		{Name: "b", World: eyeAt(mgl32.Vec3{-5, 3, 1.5})},
	}
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50), spawns...)
	if x := r.c.State().Root.Position().X(); !approx(x, 5, 1e-4) {
		t.Fatalf("expected start at first spawn, got x %f", x)
	}

	r.in.Respawn = true
	r.c.Update(frame)
	// the root sits 8 cm behind the eye
	if p := r.c.State().Root.Position(); !approx(p.X(), -5, 1e-4) || !approx(p.Y(), 3-0.08, 1e-4) {
		t.Errorf("expected second spawn, got %v", p)
	}

	name, ok := r.c.Respawn()
	if !ok || name != "a" {
		t.Errorf("expected wrap to spawn a, got %q (ok %v)", name, ok)
	}
}

func TestRespawnAtResetsMotion(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	r.in.Direction = mgl32.Vec3{0, 1, 0}
	r.run(20)
	r.in.Direction = mgl32.Vec3{}

	if !r.c.RespawnAt(eyeAt(mgl32.Vec3{7, 7, 1.5})) {
		t.Fatal("expected respawn to be accepted")
	}
	st := r.c.State()
	if st.Velocity.Len() != 0 || st.WishJump {
		t.Errorf("expected motion reset, got velocity %v", st.Velocity)
	}
	if p := st.Root.Position(); !approx(p.X(), 7, 1e-4) {
		t.Errorf("expected x 7, got %f", p.X())
	}
}

// trapdoorRig stands the player on a dynamic floor 20 m above the static
// one, then drops the floor away.
func trapdoorRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	r := newRig(t, cfg, eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(-20, 50))
	r.idx.DynamicSet([]spatial.Object{{Name: "trapdoor", Triangles: floorQuad(0, 5)}}, false)
	r.run(10)
	if !r.c.State().Grounded {
		t.Fatal("expected to stand on the trapdoor")
	}
	r.idx.DynamicRemove("trapdoor")
	r.c.Update(frame)
	if r.c.State().Grounded {
		t.Fatal("expected to fall once the trapdoor is gone")
	}
	return r
}

func TestCoyoteJump(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WallJump = false
	r := trapdoorRig(t, cfg)

	r.in.Jump = true
	r.c.Update(frame)
	r.in.Jump = false

	st := r.c.State()
	if !approx(st.Velocity.Z(), cfg.JumpSpeed, 1e-4) {
		t.Errorf("expected a late jump at %f, got vz %f", cfg.JumpSpeed, st.Velocity.Z())
	}
	if st.WishJump || !st.Jumped {
		t.Errorf("expected jump consumed, got wish %v jumped %v", st.WishJump, st.Jumped)
	}

	// no second jump from the same grace window
	r.in.Jump = true
	r.c.Update(frame)
	r.in.Jump = false
	if vz := st.Velocity.Z(); vz >= cfg.JumpSpeed {
		t.Errorf("expected gravity to act after the jump, got vz %f", vz)
	}
}

func TestCoyoteWindowExpires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WallJump = false
	r := trapdoorRig(t, cfg)
	r.run(int(cfg.CoyoteTime/frame) + 2)

	r.in.Jump = true
	r.c.Update(frame)
	r.in.Jump = false

	st := r.c.State()
	if st.Velocity.Z() >= 0 {
		t.Errorf("expected to keep falling, got vz %f", st.Velocity.Z())
	}
	if !st.WishJump {
		t.Error("expected the jump to stay buffered")
	}
}

func TestToggleResetsPointer(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	r.run(10)
	r.in.MousePosRaw = mgl32.Vec2{40, -10}
	r.in.MousePos = mgl32.Vec2{12, -3}
	r.in.MouseVelocity = mgl32.Vec2{300, -80}

	r.in.Toggle = true
	r.c.Update(frame)

	if r.in.MousePos != r.in.MousePosRaw {
		t.Errorf("expected pointer snapped to %v, got %v", r.in.MousePosRaw, r.in.MousePos)
	}
	if r.in.MouseVelocity != (mgl32.Vec2{}) {
		t.Errorf("expected pointer velocity cleared, got %v", r.in.MouseVelocity)
	}
}

func TestRespawnAtCancelsTeleport(t *testing.T) {
	cfg := DefaultConfig()
	world := camera.FromPitchYaw(mgl32.Vec3{0, 0, 1.5}, math32.Pi/4, 0)
	r := newRig(t, cfg, world, floorQuad(0, 50))

	r.in.Teleport = true
	r.c.Update(frame)
	if !r.c.Teleporting() {
		t.Fatal("expected teleport to start")
	}

	if !r.c.RespawnAt(eyeAt(mgl32.Vec3{-6, 4, 1.5})) {
		t.Fatal("expected respawn to be accepted")
	}
	if r.c.Teleporting() {
		t.Error("expected teleport cancelled")
	}
	r.run(5)
	// the root sits behind the eye by at most the head offset
	if p := r.c.State().Root.Position(); !approx(p.X(), -6, 1e-3) || !approx(p.Y(), 4, cfg.HeadOffset+1e-3) {
		t.Errorf("expected to stay at the respawn point, got %v", p)
	}
}

func TestRespawnAtRejectsNonFinite(t *testing.T) {
	r := newRig(t, DefaultConfig(), eyeAt(mgl32.Vec3{0, 0, 1.5}), floorQuad(0, 50))
	if r.c.RespawnAt(eyeAt(mgl32.Vec3{math32.NaN(), 0, 1.5})) {
		t.Error("expected a NaN placement to be rejected")
	}
}
