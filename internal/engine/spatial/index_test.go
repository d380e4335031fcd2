package spatial

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type rebuildCounter struct {
	built, skipped int
}

func (r *rebuildCounter) DynamicRebuilt(_ int, skipped bool) {
	if skipped {
		r.skipped++
	} else {
		r.built++
	}
}

func TestIndexEmptyNoHit(t *testing.T) {
	x := NewIndex(nil, nil)
	if _, ok := x.RayCast(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, Unbounded); ok {
		t.Error("expected no hit on empty index")
	}
	if _, ok := x.FindNearest(mgl32.Vec3{}, Unbounded); ok {
		t.Error("expected no nearest on empty index")
	}
}

func TestIndexMergePrefersNearer(t *testing.T) {
	x := NewIndex(floor(0, 10), nil)
	x.DynamicSet([]Object{{Name: "platform", Triangles: floor(1, 2)}}, false)

	hit, ok := x.RayCast(mgl32.Vec3{0.5, 0.2, 3}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || !hit.Dynamic || abs(hit.Distance-2) > 1e-5 {
		t.Errorf("expected dynamic hit at distance 2, got %+v (ok %v)", hit, ok)
	}

	hit, ok = x.RayCast(mgl32.Vec3{5, 5, 3}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || hit.Dynamic || abs(hit.Distance-3) > 1e-5 {
		t.Errorf("expected static hit at distance 3, got %+v (ok %v)", hit, ok)
	}

	hit, ok = x.FindNearest(mgl32.Vec3{0.5, 0.2, -0.5}, Unbounded)
	if !ok || hit.Dynamic {
		t.Errorf("expected static floor nearest from below, got %+v", hit)
	}
}

func TestIndexMergeOnlyOneSide(t *testing.T) {
	x := NewIndex(nil, nil)
	x.DynamicSet([]Object{{Name: "a", Triangles: floor(0, 1)}}, false)
	if hit, ok := x.FindNearest(mgl32.Vec3{0, 0, 0.5}, 1); !ok || !hit.Dynamic {
		t.Errorf("expected dynamic-only hit, got %+v (ok %v)", hit, ok)
	}
}

func TestIndexTiePrefersStatic(t *testing.T) {
	x := NewIndex(floor(0, 1), nil)
	x.DynamicSet([]Object{{Name: "twin", Triangles: floor(0, 1)}}, false)
	hit, ok := x.RayCast(mgl32.Vec3{0.3, 0.1, 1}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || hit.Dynamic {
		t.Errorf("expected static hit on tie, got %+v", hit)
	}
}

func TestDynamicTransformAndRemove(t *testing.T) {
	x := NewIndex(nil, nil)
	x.DynamicSet([]Object{
		{Name: "lift", Triangles: floor(0, 1), Transform: mgl32.Translate3D(0, 0, 4)},
		{Name: "crate", Triangles: floor(0, 1), Transform: mgl32.Translate3D(10, 0, 0)},
	}, false)

	hit, ok := x.RayCast(mgl32.Vec3{0, 0.5, 10}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || abs(hit.Position.Z()-4) > 1e-5 {
		t.Errorf("expected transformed lift at z 4, got %v (ok %v)", hit.Position, ok)
	}
	if names := x.Objects(); len(names) != 2 || names[0] != "lift" || names[1] != "crate" {
		t.Errorf("expected insertion order [lift crate], got %v", names)
	}

	x.DynamicRemove("lift")
	if _, ok := x.RayCast(mgl32.Vec3{0, 0.5, 10}, mgl32.Vec3{0, 0, -1}, Unbounded); ok {
		t.Error("expected lift removed")
	}
	if x.Dynamic().Len() != 2 {
		t.Errorf("expected crate faces left, got %d", x.Dynamic().Len())
	}

	x.DynamicClearAll()
	if x.Dynamic() != nil || len(x.Objects()) != 0 {
		t.Error("expected dynamic tree cleared")
	}
}

func TestDynamicFullEvaluation(t *testing.T) {
	x := NewIndex(nil, nil)
	obj := Object{
		Name:      "wave",
		Triangles: floor(0, 1),
		Evaluate:  func() []Triangle { return floor(2, 1) },
	}
	x.DynamicSet([]Object{obj}, false)
	hit, _ := x.RayCast(mgl32.Vec3{0.2, 0.1, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if abs(hit.Position.Z()) > 1e-5 {
		t.Errorf("expected base geometry at z 0, got %f", hit.Position.Z())
	}
	x.DynamicSet([]Object{obj}, true)
	hit, _ = x.RayCast(mgl32.Vec3{0.2, 0.1, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if abs(hit.Position.Z()-2) > 1e-5 {
		t.Errorf("expected evaluated geometry at z 2, got %f", hit.Position.Z())
	}
}

func TestDynamicUnchangedSkipsRebuild(t *testing.T) {
	x := NewIndex(nil, nil)
	counter := &rebuildCounter{}
	x.SetObserver(counter)

	obj := Object{Name: "box", Triangles: floor(0, 1)}
	x.DynamicSet([]Object{obj}, false)
	first := x.Dynamic()
	x.DynamicSet([]Object{obj}, false)
	if x.Dynamic() != first {
		t.Error("expected unchanged geometry to keep the published tree")
	}
	if counter.built != 1 || counter.skipped != 1 {
		t.Errorf("expected 1 build and 1 skip, got %+v", counter)
	}
}

func TestDynamicSetAsync(t *testing.T) {
	x := NewIndex(floor(0, 10), nil)
	r := x.DynamicSetAsync([]Object{{Name: "step", Triangles: floor(0.5, 1)}}, false)
	r.Wait()
	hit, ok := x.RayCast(mgl32.Vec3{0.1, 0.2, 2}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || !hit.Dynamic || abs(hit.Distance-1.5) > 1e-5 {
		t.Errorf("expected published dynamic hit, got %+v (ok %v)", hit, ok)
	}
}

func TestDynamicFullEvaluationAlwaysRebuilds(t *testing.T) {
	x := NewIndex(nil, nil)
	counter := &rebuildCounter{}
	x.SetObserver(counter)

	obj := Object{Name: "box", Triangles: floor(0, 1)}
	x.DynamicSet([]Object{obj}, true)
	first := x.Dynamic()
	x.DynamicSet([]Object{obj}, true)
	if x.Dynamic() == first {
		t.Error("expected a full evaluation to publish a new tree")
	}
	if counter.built != 2 || counter.skipped != 0 {
		t.Errorf("expected 2 builds and no skip, got %+v", counter)
	}
}

func TestDynamicStaleRebuildDropped(t *testing.T) {
	x := NewIndex(nil, nil)
	older, newer := x.seq.Add(1), x.seq.Add(1)

	x.publish(floor(2, 1), 1, newer, false)
	x.publish(floor(1, 1), 1, older, false)

	hit, ok := x.RayCast(mgl32.Vec3{0.1, 0.2, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || abs(hit.Position.Z()-2) > 1e-5 {
		t.Errorf("expected the newer tree at z 2, got %v (ok %v)", hit.Position, ok)
	}
}

func TestDynamicUnchangedKeepsSequence(t *testing.T) {
	x := NewIndex(nil, nil)
	first, older, newest := x.seq.Add(1), x.seq.Add(1), x.seq.Add(1)

	x.publish(floor(0, 1), 1, first, false)
	// the newest registry state matches the published geometry
	x.publish(floor(0, 1), 1, newest, false)
	x.publish(floor(3, 1), 1, older, false)

	hit, ok := x.RayCast(mgl32.Vec3{0.1, 0.2, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || abs(hit.Position.Z()) > 1e-5 {
		t.Errorf("expected the unchanged tree at z 0, got %v (ok %v)", hit.Position, ok)
	}
}

func TestDynamicOverlappingAsync(t *testing.T) {
	x := NewIndex(nil, nil)
	a := x.DynamicSetAsync([]Object{{Name: "lift", Triangles: floor(1, 1)}}, false)
	b := x.DynamicSetAsync([]Object{{Name: "lift", Triangles: floor(2, 1)}}, false)
	b.Wait()
	a.Wait()

	hit, ok := x.RayCast(mgl32.Vec3{0.1, 0.2, 5}, mgl32.Vec3{0, 0, -1}, Unbounded)
	if !ok || abs(hit.Position.Z()-2) > 1e-5 {
		t.Errorf("expected the last set to win at z 2, got %v (ok %v)", hit.Position, ok)
	}
}

func TestDynamicClearAllAfterAsync(t *testing.T) {
	x := NewIndex(nil, nil)
	r := x.DynamicSetAsync([]Object{{Name: "lift", Triangles: floor(1, 1)}}, false)
	x.DynamicClearAll()
	r.Wait()

	if _, ok := x.RayCast(mgl32.Vec3{0.1, 0.2, 5}, mgl32.Vec3{0, 0, -1}, Unbounded); ok {
		t.Error("expected clear to win over the pending rebuild")
	}
}
