package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Remap maps v from the range [inMin, inMax] onto [outMin, outMax].
func Remap(v, inMin, inMax, outMin, outMax float32) float32 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)/(inMax-inMin)*(outMax-outMin)
}

// Lerp returns a + (b-a)*t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

// EaseOutQuad decelerates towards t = 1.
func EaseOutQuad(t float32) float32 {
	return -t * (t - 2)
}

// AcosDeg returns acos(v) in degrees with v clamped to [-1, 1].
func AcosDeg(v float32) float32 {
	return mgl32.RadToDeg(math32.Acos(mgl32.Clamp(v, -1, 1)))
}
