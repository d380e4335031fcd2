package window

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

// walkableZ is the face normal Z above which a face is drawn as floor.
const walkableZ = 0.7

// Marker is the player as drawn by the view.
type Marker struct {
	Position mgl32.Vec3
	Radius   float32
	// Yaw is the heading in radians, 0 facing +Y.
	Yaw      float32
	Grounded bool
	Fly      bool
	// Target is the teleport destination while one is running.
	Target *mgl32.Vec3
}

// View draws a top-down map centered on the player.
type View struct {
	PixelsPerMeter float32
}

// Draw renders faces and the player marker, then presents the frame.
func (v *View) Draw(w *Window, static, dynamic []spatial.Triangle, p Marker) {
	r := w.renderer
	width, height := w.OutputSize()
	cx, cy := float32(width)/2, float32(height)/2
	scale := v.PixelsPerMeter

	project := func(q mgl32.Vec3) (int32, int32) {
		d := q.Sub(p.Position)
		return int32(cx + d.X()*scale), int32(cy - d.Y()*scale)
	}
	line := func(a, b mgl32.Vec3) {
		x1, y1 := project(a)
		x2, y2 := project(b)
		r.DrawLine(x1, y1, x2, y2)
	}
	faces := func(tris []spatial.Triangle, floor, wall sdl.Color) {
		for _, f := range tris {
			if f.Degenerate() {
				continue
			}
			c := wall
			if math32.Abs(f.Normal().Z()) > walkableZ {
				c = floor
			}
			r.SetDrawColor(c.R, c.G, c.B, c.A)
			line(f.A, f.B)
			line(f.B, f.C)
			line(f.C, f.A)
		}
	}

	r.SetDrawColor(18, 20, 28, 255)
	r.Clear()

	faces(static, sdl.Color{R: 60, G: 90, B: 70, A: 255}, sdl.Color{R: 150, G: 150, B: 160, A: 255})
	faces(dynamic, sdl.Color{R: 70, G: 110, B: 170, A: 255}, sdl.Color{R: 120, G: 170, B: 240, A: 255})

	body := sdl.Color{R: 255, G: 170, B: 40, A: 255}
	if p.Grounded {
		body = sdl.Color{R: 90, G: 230, B: 110, A: 255}
	}
	if p.Fly {
		body = sdl.Color{R: 120, G: 200, B: 255, A: 255}
	}
	r.SetDrawColor(body.R, body.G, body.B, body.A)
	const segments = 24
	for i := 0; i < segments; i++ {
		a0 := float32(i) / segments * 2 * math32.Pi
		a1 := float32(i+1) / segments * 2 * math32.Pi
		line(
			p.Position.Add(mgl32.Vec3{math32.Cos(a0), math32.Sin(a0), 0}.Mul(p.Radius)),
			p.Position.Add(mgl32.Vec3{math32.Cos(a1), math32.Sin(a1), 0}.Mul(p.Radius)),
		)
	}
	heading := mgl32.Vec3{-math32.Sin(p.Yaw), math32.Cos(p.Yaw), 0}
	line(p.Position, p.Position.Add(heading.Mul(p.Radius*3)))

	if p.Target != nil {
		r.SetDrawColor(255, 80, 200, 255)
		x, y := project(*p.Target)
		r.FillRect(&sdl.Rect{X: x - 3, Y: y - 3, W: 7, H: 7})
		line(p.Position, *p.Target)
	}

	r.Present()
}
