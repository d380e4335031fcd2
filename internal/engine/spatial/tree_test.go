package spatial

import (
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

func TestEmptyTreeNoHit(t *testing.T) {
	var nilTree *Tree
	if _, ok := nilTree.RayCast(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, Unbounded); ok {
		t.Error("expected no hit on nil tree")
	}
	empty := Build(nil)
	if _, ok := empty.FindNearest(mgl32.Vec3{}, Unbounded); ok {
		t.Error("expected no hit on empty tree")
	}
	if empty.Len() != 0 {
		t.Errorf("expected 0 faces, got %d", empty.Len())
	}
}

func TestRayCastFloor(t *testing.T) {
	tree := Build(grid(8, 0))
	hit, ok := tree.RayCast(mgl32.Vec3{3.3, 4.7, 2}, mgl32.Vec3{0, 0, -5}, Unbounded)
	if !ok {
		t.Fatal("expected hit")
	}
	if abs(hit.Distance-2) > 1e-5 {
		t.Errorf("expected distance 2, got %f", hit.Distance)
	}
	if !hit.Position.ApproxEqualThreshold(mgl32.Vec3{3.3, 4.7, 0}, 1e-5) {
		t.Errorf("expected hit at (3.3, 4.7, 0), got %v", hit.Position)
	}
	if !hit.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("expected up normal, got %v", hit.Normal)
	}
}

func TestRayCastMaxDistance(t *testing.T) {
	tree := Build(floor(0, 10))
	if _, ok := tree.RayCast(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 0, -1}, 1.5); ok {
		t.Error("expected miss beyond max distance")
	}
	if _, ok := tree.RayCast(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 0, 1}, Unbounded); ok {
		t.Error("expected miss pointing away")
	}
	if _, ok := tree.RayCast(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{}, Unbounded); ok {
		t.Error("expected miss for zero direction")
	}
}

func TestRayCastBackFace(t *testing.T) {
	tree := Build(floor(0, 10))
	hit, ok := tree.RayCast(mgl32.Vec3{1, 1, -3}, mgl32.Vec3{0, 0, 1}, Unbounded)
	if !ok {
		t.Fatal("expected double sided hit from below")
	}
	if abs(hit.Normal.Z()-1) > 1e-6 {
		t.Errorf("expected authored normal, got %v", hit.Normal)
	}
}

func TestRayCastNearestOfMany(t *testing.T) {
	faces := append(grid(4, 0), grid(4, 1)...)
	faces = append(faces, grid(4, 2)...)
	tree := Build(faces)
	hit, ok := tree.RayCast(mgl32.Vec3{1.5, 1.5, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || abs(hit.Position.Z()-2) > 1e-5 {
		t.Errorf("expected top layer hit at z 2, got %v (ok %v)", hit.Position, ok)
	}
}

func TestFindNearest(t *testing.T) {
	tree := Build(grid(8, 0))
	hit, ok := tree.FindNearest(mgl32.Vec3{2.5, 2.5, 0.3}, 1)
	if !ok {
		t.Fatal("expected hit")
	}
	if abs(hit.Distance-0.3) > 1e-5 {
		t.Errorf("expected distance 0.3, got %f", hit.Distance)
	}
	if _, ok := tree.FindNearest(mgl32.Vec3{2.5, 2.5, 0.3}, 0.2); ok {
		t.Error("expected miss outside max distance")
	}
}

func TestFindNearestEdge(t *testing.T) {
	tree := Build(floor(0, 1))
	hit, ok := tree.FindNearest(mgl32.Vec3{2, 0, 0}, Unbounded)
	if !ok {
		t.Fatal("expected hit")
	}
	if !hit.Position.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("expected closest point on edge (1, 0, 0), got %v", hit.Position)
	}
	if abs(hit.Distance-1) > 1e-5 {
		t.Errorf("expected distance 1, got %f", hit.Distance)
	}
}

func TestFindNearestMatchesBruteForce(t *testing.T) {
	faces := grid(6, 0)
	for i := range faces {
		faces[i].A[2] = float32(i%5) * 0.1
	}
	tree := Build(faces)
	points := []mgl32.Vec3{{0.2, 0.3, 1}, {5.9, 5.1, -0.4}, {3, 3, 0.25}, {-1, 2, 0}}
	for _, p := range points {
		want := float32(Unbounded)
		for _, f := range faces {
			if d := f.closestPoint(p).Sub(p).Len(); d < want {
				want = d
			}
		}
		hit, ok := tree.FindNearest(p, Unbounded)
		if !ok || abs(hit.Distance-want) > 1e-5 {
			t.Errorf("point %v: expected %f, got %f (ok %v)", p, want, hit.Distance, ok)
		}
	}
}

func TestDegenerateFacesSkipped(t *testing.T) {
	faces := []Triangle{{mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}}}
	tree := Build(faces)
	if _, ok := tree.FindNearest(mgl32.Vec3{}, Unbounded); ok {
		t.Error("expected degenerate face ignored")
	}
	if tree.Len() != 1 || len(tree.Faces()) != 1 {
		t.Errorf("expected face count 1, got %d", tree.Len())
	}
	var none *Tree
	if none.Faces() != nil {
		t.Error("expected no faces from a nil tree")
	}
}

func TestIntersectBox(t *testing.T) {
	box := cube.Box(-1, -1, -1, 1, 1, 1)
	r, _ := NewRay(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{1, 0, 0})
	if d, ok := r.IntersectBox(box); !ok || abs(d-4) > 1e-6 {
		t.Errorf("expected entry at 4, got %f (ok %v)", d, ok)
	}
	inside, _ := NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if d, ok := inside.IntersectBox(box); !ok || d != 0 {
		t.Errorf("expected 0 from inside, got %f (ok %v)", d, ok)
	}
	miss, _ := NewRay(mgl32.Vec3{-5, 3, 0}, mgl32.Vec3{1, 0, 0})
	if _, ok := miss.IntersectBox(box); ok {
		t.Error("expected miss")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint(floor(0, 1))
	b := Fingerprint(floor(0, 1))
	c := Fingerprint(floor(0.001, 1))
	if a != b {
		t.Error("expected identical geometry to hash equally")
	}
	if a == c {
		t.Error("expected moved geometry to hash differently")
	}
}
