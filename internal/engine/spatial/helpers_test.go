package spatial

import "github.com/go-gl/mathgl/mgl32"

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// floor returns a square at height z, half extent h, facing up.
func floor(z, h float32) []Triangle {
	a := mgl32.Vec3{-h, -h, z}
	b := mgl32.Vec3{h, -h, z}
	c := mgl32.Vec3{h, h, z}
	d := mgl32.Vec3{-h, h, z}
	return []Triangle{{a, b, c}, {a, c, d}}
}

// grid returns an n x n tessellated floor at height z.
func grid(n int, z float32) []Triangle {
	var out []Triangle
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x0, y0 := float32(i), float32(j)
			a := mgl32.Vec3{x0, y0, z}
			b := mgl32.Vec3{x0 + 1, y0, z}
			c := mgl32.Vec3{x0 + 1, y0 + 1, z}
			d := mgl32.Vec3{x0, y0 + 1, z}
			out = append(out, Triangle{a, b, c}, Triangle{a, c, d})
		}
	}
	return out
}
