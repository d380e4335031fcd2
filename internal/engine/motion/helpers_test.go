package motion

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/input"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

const frame = float32(1.0 / 60)

func approx(a, b, eps float32) bool {
	d := a - b
	return d < eps && d > -eps
}

func quad(a, b, c, d mgl32.Vec3) []spatial.Triangle {
	return []spatial.Triangle{{A: a, B: b, C: c}, {A: a, B: c, C: d}}
}

// floorQuad is a square at height z with half extent h.
func floorQuad(z, h float32) []spatial.Triangle {
	return quad(
		mgl32.Vec3{-h, -h, z}, mgl32.Vec3{h, -h, z},
		mgl32.Vec3{h, h, z}, mgl32.Vec3{-h, h, z})
}

// wallQuad is a vertical square in the plane y = y0.
func wallQuad(y0, h float32) []spatial.Triangle {
	return quad(
		mgl32.Vec3{-h, y0, -h}, mgl32.Vec3{-h, y0, h},
		mgl32.Vec3{h, y0, h}, mgl32.Vec3{h, y0, -h})
}

// stairs climbs along +Y from y0 with half width w. The last tread
// runs on to y = end.
func stairs(y0, rise, run float32, steps int, w, end float32) []spatial.Triangle {
	var out []spatial.Triangle
	for i := 0; i < steps; i++ {
		y := y0 + float32(i)*run
		z0, z1 := float32(i)*rise, float32(i+1)*rise
		out = append(out, quad(
			mgl32.Vec3{-w, y, z0}, mgl32.Vec3{w, y, z0},
			mgl32.Vec3{w, y, z1}, mgl32.Vec3{-w, y, z1})...)
		y1 := y + run
		if i == steps-1 {
			y1 = end
		}
		out = append(out, quad(
			mgl32.Vec3{-w, y, z1}, mgl32.Vec3{w, y, z1},
			mgl32.Vec3{w, y1, z1}, mgl32.Vec3{-w, y1, z1})...)
	}
	return out
}

// ground is a floor at z = 0 from y = -50 to y1 with half width w.
func ground(y1, w float32) []spatial.Triangle {
	return quad(
		mgl32.Vec3{-w, -50, 0}, mgl32.Vec3{w, -50, 0},
		mgl32.Vec3{w, y1, 0}, mgl32.Vec3{-w, y1, 0})
}

func newInput() *input.State {
	s := input.NewState(0.1)
	s.WalkDamping = 0.1
	s.FlyDamping = 0.6
	s.MouseSensitivity = 0.05
	s.PadLookSensitivity = 2.5
	return s
}

// eyeAt is a level camera at pos looking along +Y.
func eyeAt(pos mgl32.Vec3) mgl32.Mat4 {
	return camera.FromPitchYaw(pos, math32.Pi/2, 0)
}

type rig struct {
	c   *Controller
	in  *input.State
	cam *camera.Viewport
	idx *spatial.Index
}

func newRig(t *testing.T, cfg Config, world mgl32.Mat4, faces []spatial.Triangle, spawns ...Spawn) *rig {
	t.Helper()
	cam := camera.NewViewport(world, 720)
	in := newInput()
	idx := spatial.NewIndex(faces, nil)
	c, err := New(cfg, Options{
		Camera: cam,
		Index:  idx,
		Input:  in,
		Spawns: spawns,
	})
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}
	return &rig{c: c, in: in, cam: cam, idx: idx}
}

func (r *rig) run(frames int) {
	for i := 0; i < frames; i++ {
		r.c.Update(frame)
	}
}
