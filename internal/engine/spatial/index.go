// Package spatial answers ray-cast and nearest-point queries against the
// union of a static and a rebuildable dynamic triangle tree.
package spatial

import (
	"sync/atomic"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Querier is the read side of a spatial index.
type Querier interface {
	RayCast(origin, dir mgl32.Vec3, maxDist float32) (Hit, bool)
	FindNearest(p mgl32.Vec3, maxDist float32) (Hit, bool)
}

// Object is a named dynamic collider. Triangles are in object space.
type Object struct {
	Name      string
	Triangles []Triangle
	Transform mgl32.Mat4
	// Evaluate, when set, returns the deformed object-space triangles.
	// It is only called for a full evaluation.
	Evaluate func() []Triangle
}

// RebuildObserver is told about dynamic tree rebuilds.
type RebuildObserver interface {
	DynamicRebuilt(faces int, skipped bool)
}

// Index merges a static tree with a dynamic tree. Queries and rebuilds
// must not overlap unless the rebuild goes through DynamicSetAsync and is
// joined with Wait before the next query that depends on it.
type Index struct {
	static  *Tree
	dynamic atomic.Pointer[stamped]
	seq     atomic.Uint64
	objects *orderedmap.OrderedMap[string, []Triangle]

	log      *zap.Logger
	observer RebuildObserver
}

// stamped is a published dynamic tree with the sequence number of the
// registry change it was baked from.
type stamped struct {
	tree *Tree
	seq  uint64
}

// NewIndex creates an index over static faces. A nil logger disables logging.
func NewIndex(static []Triangle, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	x := &Index{
		static:  Build(static),
		objects: orderedmap.NewOrderedMap[string, []Triangle](),
		log:     log,
	}
	log.Info("static tree built", zap.Int("faces", len(static)))
	return x
}

// SetObserver registers a rebuild observer.
func (x *Index) SetObserver(o RebuildObserver) {
	x.observer = o
}

// Static returns the static tree.
func (x *Index) Static() *Tree { return x.static }

// Dynamic returns the current dynamic tree, or nil.
func (x *Index) Dynamic() *Tree {
	if cur := x.dynamic.Load(); cur != nil {
		return cur.tree
	}
	return nil
}

// RayCast queries both trees and returns the nearer hit.
func (x *Index) RayCast(origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	a, okA := x.static.RayCast(origin, dir, maxDist)
	b, okB := x.Dynamic().RayCast(origin, dir, maxDist)
	b.Dynamic = okB
	return pick(a, okA, b, okB)
}

// FindNearest queries both trees and returns the nearer hit.
func (x *Index) FindNearest(p mgl32.Vec3, maxDist float32) (Hit, bool) {
	a, okA := x.static.FindNearest(p, maxDist)
	b, okB := x.Dynamic().FindNearest(p, maxDist)
	b.Dynamic = okB
	return pick(a, okA, b, okB)
}

// pick prefers the static hit on equal distance.
func pick(a Hit, okA bool, b Hit, okB bool) (Hit, bool) {
	switch {
	case okA && okB:
		if b.Distance < a.Distance {
			return b, true
		}
		return a, true
	case okA:
		return a, true
	case okB:
		return b, true
	}
	return Hit{}, false
}

// Objects returns the names of the registered dynamic colliders in
// insertion order.
func (x *Index) Objects() []string {
	names := make([]string, 0, x.objects.Len())
	for el := x.objects.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// DynamicSet adds or replaces colliders and rebuilds the dynamic tree.
// With fullEvaluation the objects' evaluators supply the geometry and the
// tree is always rebuilt; otherwise unchanged geometry keeps the current
// tree.
func (x *Index) DynamicSet(objects []Object, fullEvaluation bool) {
	x.stage(objects, fullEvaluation)
	x.publish(x.bake(), x.objects.Len(), x.seq.Add(1), fullEvaluation)
}

// DynamicRemove drops a collider by name and rebuilds the dynamic tree.
func (x *Index) DynamicRemove(name string) {
	if !x.objects.Delete(name) {
		x.log.Debug("dynamic collider not registered", zap.String("name", name))
		return
	}
	x.publish(x.bake(), x.objects.Len(), x.seq.Add(1), false)
}

// DynamicClearAll drops every collider and the dynamic tree.
func (x *Index) DynamicClearAll() {
	x.objects = orderedmap.NewOrderedMap[string, []Triangle]()
	x.swap(nil, x.seq.Add(1))
	x.log.Debug("dynamic colliders cleared")
}

// Rebuild is a pending background rebuild.
type Rebuild struct {
	done chan struct{}
}

// Wait blocks until the new tree is published.
func (r *Rebuild) Wait() {
	<-r.done
}

// DynamicSetAsync is DynamicSet with the tree build on a goroutine. The
// registry is updated before it returns; the tree is swapped in atomically
// once built. Callers must Wait before relying on the new geometry. When
// rebuilds overlap, a tree baked from an older registry state never
// replaces a newer one.
func (x *Index) DynamicSetAsync(objects []Object, fullEvaluation bool) *Rebuild {
	x.stage(objects, fullEvaluation)
	faces, count, seq := x.bake(), x.objects.Len(), x.seq.Add(1)
	r := &Rebuild{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		x.publish(faces, count, seq, fullEvaluation)
	}()
	return r
}

func (x *Index) stage(objects []Object, fullEvaluation bool) {
	for _, o := range objects {
		src := o.Triangles
		if fullEvaluation && o.Evaluate != nil {
			src = o.Evaluate()
		}
		m := o.Transform
		if m == (mgl32.Mat4{}) {
			m = mgl32.Ident4()
		}
		world := make([]Triangle, len(src))
		for i, f := range src {
			world[i] = f.Transform(m)
		}
		x.objects.Set(o.Name, world)
	}
}

func (x *Index) bake() []Triangle {
	var faces []Triangle
	for el := x.objects.Front(); el != nil; el = el.Next() {
		faces = append(faces, el.Value...)
	}
	return faces
}

func (x *Index) publish(faces []Triangle, objects int, seq uint64, fullEvaluation bool) {
	if cur := x.dynamic.Load(); !fullEvaluation && cur != nil && cur.tree.Fingerprint() == Fingerprint(faces) {
		if !x.swap(cur.tree, seq) {
			return
		}
		x.log.Debug("dynamic geometry unchanged, keeping tree", zap.Int("faces", len(faces)))
		if x.observer != nil {
			x.observer.DynamicRebuilt(len(faces), true)
		}
		return
	}
	if !x.swap(Build(faces), seq) {
		x.log.Debug("dropping stale dynamic tree", zap.Uint64("seq", seq))
		return
	}
	x.log.Debug("dynamic tree rebuilt", zap.Int("faces", len(faces)), zap.Int("objects", objects))
	if x.observer != nil {
		x.observer.DynamicRebuilt(len(faces), false)
	}
}

// swap publishes tree unless a newer one is already in place.
func (x *Index) swap(tree *Tree, seq uint64) bool {
	next := &stamped{tree: tree, seq: seq}
	for {
		cur := x.dynamic.Load()
		if cur != nil && cur.seq > seq {
			return false
		}
		if x.dynamic.CompareAndSwap(cur, next) {
			return true
		}
	}
}
