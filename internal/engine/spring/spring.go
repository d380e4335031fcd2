// Package spring implements critically damped spring filters evaluated at
// a fixed physics step.
package spring

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/omnistep/pkg/math"
)

// MaxSubsteps bounds the number of physics substeps per frame.
const MaxSubsteps = 128

// Substeps splits dt into whole physics steps of roughly step seconds.
func Substeps(dt, step float32) (n int, sub float32) {
	if dt <= 0 || step <= 0 {
		return 1, 0
	}
	n = int(math32.Round(dt / step))
	if n < 1 {
		n = 1
	}
	if n > MaxSubsteps {
		n = MaxSubsteps
	}
	return n, dt / float32(n)
}

// Spring is a damped harmonic oscillator with stiffness K and damping C.
type Spring struct {
	K float32
	C float32
}

// Critical returns a critically damped spring with stiffness k.
func Critical(k float32) Spring {
	if k < 0 {
		k = 0
	}
	return Spring{K: k, C: 2 * math32.Sqrt(k)}
}

// FromDamping maps a user damping value in [0, 1] to a critically damped
// spring. 0 is stiff (little smoothing), 1 is soft.
func FromDamping(d float32) Spring {
	d = math.Clamp01(d)
	v := math32.Pow(d, 0.35)
	return Critical(math.Remap(v, 1, 0, 10, 3000))
}

// Step advances a scalar spring towards target by one substep.
func (s Spring) Step(pos, vel *float32, target, dt float32) {
	force := s.K*(target-*pos) - s.C**vel
	*vel += force * dt
	*pos += *vel * dt
}

// Step2 advances a 2D spring towards target by one substep.
func (s Spring) Step2(pos, vel *mgl32.Vec2, target mgl32.Vec2, dt float32) {
	force := target.Sub(*pos).Mul(s.K).Sub(vel.Mul(s.C))
	*vel = vel.Add(force.Mul(dt))
	*pos = pos.Add(vel.Mul(dt))
}

// Run advances a scalar spring over dt using fixed substeps.
func (s Spring) Run(pos, vel *float32, target, dt, step float32) {
	n, sub := Substeps(dt, step)
	for i := 0; i < n; i++ {
		s.Step(pos, vel, target, sub)
	}
}

// Run2 advances a 2D spring over dt using fixed substeps.
func (s Spring) Run2(pos, vel *mgl32.Vec2, target mgl32.Vec2, dt, step float32) {
	n, sub := Substeps(dt, step)
	for i := 0; i < n; i++ {
		s.Step2(pos, vel, target, sub)
	}
}
