package motion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAccelerateScaleInvariant(t *testing.T) {
	tests := []struct {
		name      string
		vel       mgl32.Vec3
		wish      mgl32.Vec3
		wishSpeed float32
		accel     float32
	}{
		{"from rest", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 2.25, 10},
		{"capped", mgl32.Vec3{0, 2, 0}, mgl32.Vec3{0, 1, 0}, 2.25, 1000},
		{"sideways", mgl32.Vec3{1, 0.5, -0.3}, mgl32.Vec3{0.6, 0.8, 0}, 4.5, 7},
		{"already faster", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 1, 0}, 2.25, 10},
	}
	for _, tt := range tests {
		base := Accelerate(tt.vel, tt.wish, tt.wishSpeed, tt.accel, 1, frame)
		for _, s := range []float32{0.01, 0.5, 3, 100} {
			got := Accelerate(tt.vel.Mul(s), tt.wish, tt.wishSpeed*s, tt.accel*s, s, frame)
			want := base.Mul(s)
			if !got.ApproxEqualThreshold(want, 1e-4*s) {
				t.Errorf("%s at scale %g: expected %v, got %v", tt.name, s, want, got)
			}
		}
	}
}

func TestAccelerateLimitsToWishSpeed(t *testing.T) {
	v := Accelerate(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 2.25, 1000, 1, frame)
	if !approx(v.Y(), 2.25, 1e-5) {
		t.Errorf("expected speed capped at 2.25, got %f", v.Y())
	}
	v = Accelerate(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 2.25, 6, 1, frame)
	if !approx(v.Y(), 6*frame*2.25, 1e-6) {
		t.Errorf("expected partial step %f, got %f", 6*frame*2.25, v.Y())
	}
}

func TestFlyAccelerateDecaysAboveCap(t *testing.T) {
	v := FlyAccelerate(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{}, 6, 16, frame)
	if !approx(v.Len(), 9.9, 1e-4) {
		t.Errorf("expected 99%% of previous speed, got %f", v.Len())
	}
	v = FlyAccelerate(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}, 6, 60, frame)
	if !approx(v.X(), 2, 1e-5) {
		t.Errorf("expected free acceleration to 2, got %f", v.X())
	}
}
