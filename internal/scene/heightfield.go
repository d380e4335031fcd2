package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/omnistep/internal/engine/spatial"
)

// Heightfield is a square grid of OpenSimplex terrain centered on Origin.
type Heightfield struct {
	Origin    mgl32.Vec3 `yaml:"origin"`
	Size      float32    `yaml:"size"`
	Cells     int        `yaml:"cells"`
	Amplitude float32    `yaml:"amplitude"`
	// Frequency is in noise periods per meter.
	Frequency float32 `yaml:"frequency"`
	Seed      int64   `yaml:"seed"`
	// Drift scrolls the noise along x, in meters per second, when the
	// heightfield is a dynamic collider evaluated over time.
	Drift float32 `yaml:"drift"`

	noise opensimplex.Noise
}

func (h *Heightfield) triangles() []spatial.Triangle {
	return h.at(0)
}

// Height returns the terrain height at world x, y with the noise shifted
// by offset along x.
func (h *Heightfield) Height(x, y, offset float32) float32 {
	if h.noise == nil {
		h.noise = opensimplex.New(h.Seed)
	}
	f := float64(h.Frequency)
	n := h.noise.Eval2(float64(x+offset)*f, float64(y)*f)
	return h.Origin.Z() + float32(n)*h.Amplitude
}

func (h *Heightfield) at(offset float32) []spatial.Triangle {
	if h.Cells < 1 || h.Size <= 0 {
		return nil
	}
	n := h.Cells
	cell := h.Size / float32(n)
	x0 := h.Origin.X() - h.Size/2
	y0 := h.Origin.Y() - h.Size/2

	grid := make([]mgl32.Vec3, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			x := x0 + float32(i)*cell
			y := y0 + float32(j)*cell
			grid[j*(n+1)+i] = mgl32.Vec3{x, y, h.Height(x, y, offset)}
		}
	}

	tris := make([]spatial.Triangle, 0, 2*n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := grid[j*(n+1)+i]
			b := grid[j*(n+1)+i+1]
			c := grid[(j+1)*(n+1)+i+1]
			d := grid[(j+1)*(n+1)+i]
			tris = append(tris, quad(a, b, c, d)...)
		}
	}
	return tris
}
