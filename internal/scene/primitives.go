package scene

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/pkg/math"
)

// Primitive is one geometry entry. Exactly one field is set.
type Primitive struct {
	Box         *Box         `yaml:"box,omitempty"`
	Quad        *Quad        `yaml:"quad,omitempty"`
	Ramp        *Ramp        `yaml:"ramp,omitempty"`
	Stairs      *Stairs      `yaml:"stairs,omitempty"`
	Heightfield *Heightfield `yaml:"heightfield,omitempty"`
}

type shape interface {
	triangles() []spatial.Triangle
}

func (p Primitive) shape() (shape, bool) {
	var found []shape
	if p.Box != nil {
		found = append(found, p.Box)
	}
	if p.Quad != nil {
		found = append(found, p.Quad)
	}
	if p.Ramp != nil {
		found = append(found, p.Ramp)
	}
	if p.Stairs != nil {
		found = append(found, p.Stairs)
	}
	if p.Heightfield != nil {
		found = append(found, p.Heightfield)
	}
	if len(found) != 1 {
		return nil, false
	}
	return found[0], true
}

// Box is an axis-aligned box with outward facing sides.
type Box struct {
	Min mgl32.Vec3 `yaml:"min"`
	Max mgl32.Vec3 `yaml:"max"`
}

func (b *Box) bbox() cube.BBox {
	return cube.Box(b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

func (b *Box) triangles() []spatial.Triangle {
	bb := b.bbox()
	lo, hi := bb.Min(), bb.Max()
	corner := func(x, y, z int) mgl32.Vec3 {
		pick := func(i, axis int) float32 {
			if i == 0 {
				return lo[axis]
			}
			return hi[axis]
		}
		return mgl32.Vec3{pick(x, 0), pick(y, 1), pick(z, 2)}
	}

	var tris []spatial.Triangle
	// each face is listed counter-clockwise seen from outside
	faces := [6][4][3]int{
		{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, // bottom
		{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // top
		{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // -y
		{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}, // +y
		{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}, // -x
		{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}, // +x
	}
	for _, f := range faces {
		var q [4]mgl32.Vec3
		for i, c := range f {
			q[i] = corner(c[0], c[1], c[2])
		}
		tris = append(tris, quad(q[0], q[1], q[2], q[3])...)
	}
	return tris
}

// Quad is a planar quad given by four corners in order.
type Quad struct {
	Corners [4]mgl32.Vec3 `yaml:"corners"`
}

func (q *Quad) triangles() []spatial.Triangle {
	return quad(q.Corners[0], q.Corners[1], q.Corners[2], q.Corners[3])
}

// Ramp is an inclined strip from From to To. The surface normal points up.
type Ramp struct {
	From  mgl32.Vec3 `yaml:"from"`
	To    mgl32.Vec3 `yaml:"to"`
	Width float32    `yaml:"width"`
}

func (r *Ramp) triangles() []spatial.Triangle {
	along := r.To.Sub(r.From)
	side := math.SafeNormalize(along.Cross(math.Up)).Mul(r.Width / 2)
	if side.LenSqr() == 0 {
		return nil
	}
	// side points right of the climb direction
	return upward(quad(r.From.Sub(side), r.From.Add(side), r.To.Add(side), r.To.Sub(side)))
}

// Stairs is a flight of solid steps climbing along Yaw (degrees, 0 = +Y).
type Stairs struct {
	Origin mgl32.Vec3 `yaml:"origin"`
	Steps  int        `yaml:"steps"`
	Rise   float32    `yaml:"rise"`
	Run    float32    `yaml:"run"`
	Width  float32    `yaml:"width"`
	Yaw    float32    `yaml:"yaw"`
}

func (s *Stairs) triangles() []spatial.Triangle {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(s.Yaw))
	m := mgl32.Translate3D(s.Origin[0], s.Origin[1], s.Origin[2]).Mul4(rot)
	half := s.Width / 2

	var tris []spatial.Triangle
	for i := 0; i < s.Steps; i++ {
		step := Box{
			Min: mgl32.Vec3{-half, float32(i) * s.Run, 0},
			Max: mgl32.Vec3{half, float32(i+1) * s.Run, float32(i+1) * s.Rise},
		}
		for _, t := range step.triangles() {
			tris = append(tris, t.Transform(m))
		}
	}
	return tris
}

func quad(a, b, c, d mgl32.Vec3) []spatial.Triangle {
	return []spatial.Triangle{{A: a, B: b, C: c}, {A: a, B: c, C: d}}
}

// upward flips triangles whose normal points down.
func upward(tris []spatial.Triangle) []spatial.Triangle {
	for i, t := range tris {
		if t.Normal().Z() < 0 {
			tris[i] = spatial.Triangle{A: t.A, B: t.C, C: t.B}
		}
	}
	return tris
}

// bounds returns the box around every triangle.
func bounds(tris []spatial.Triangle) (cube.BBox, bool) {
	if len(tris) == 0 {
		return cube.BBox{}, false
	}
	lo := mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	hi := lo.Mul(-1)
	for _, t := range tris {
		b := t.Bounds()
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], b.Min()[i])
			hi[i] = math32.Max(hi[i], b.Max()[i])
		}
	}
	return cube.Box(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2]), true
}
