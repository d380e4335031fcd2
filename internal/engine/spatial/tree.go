package spatial

import (
	"encoding/binary"
	"sort"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeebo/xxh3"
)

// maxFacesPerLeaf is the threshold for splitting tree nodes.
const maxFacesPerLeaf = 4

// Hit is the result of a ray cast or nearest-point query.
type Hit struct {
	Position mgl32.Vec3
	// Normal is the face normal as authored; it is not turned towards the query.
	Normal   mgl32.Vec3
	ID       int
	Distance float32
	Dynamic  bool
}

// Tree is an immutable bounding volume hierarchy over triangles. A nil
// or empty tree answers every query with no hit.
type Tree struct {
	root        *node
	faces       []Triangle
	normals     []mgl32.Vec3
	fingerprint uint64
}

type node struct {
	box         cube.BBox
	left, right *node
	faces       []int
}

// Build constructs a tree. Hit IDs index into faces; degenerate faces are
// kept for indexing but never reported.
func Build(faces []Triangle) *Tree {
	t := &Tree{
		faces:       faces,
		normals:     make([]mgl32.Vec3, len(faces)),
		fingerprint: Fingerprint(faces),
	}
	ids := make([]int, 0, len(faces))
	for i, f := range faces {
		if f.Degenerate() {
			continue
		}
		t.normals[i] = f.Normal()
		ids = append(ids, i)
	}
	if len(ids) > 0 {
		t.root = t.build(ids)
	}
	return t
}

func (t *Tree) build(ids []int) *node {
	n := &node{box: t.bounds(ids)}
	if len(ids) <= maxFacesPerLeaf {
		n.faces = ids
		return n
	}

	extent := n.box.Max().Sub(n.box.Min())
	axis := 0
	if extent[1] > extent[0] && extent[1] > extent[2] {
		axis = 1
	} else if extent[2] > extent[0] && extent[2] > extent[1] {
		axis = 2
	}

	sort.Slice(ids, func(i, j int) bool {
		return t.faces[ids[i]].Centroid()[axis] < t.faces[ids[j]].Centroid()[axis]
	})

	mid := len(ids) / 2
	n.left = t.build(ids[:mid])
	n.right = t.build(ids[mid:])
	return n
}

func (t *Tree) bounds(ids []int) cube.BBox {
	lo := mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	hi := lo.Mul(-1)
	for _, id := range ids {
		b := t.faces[id].Bounds()
		for i := 0; i < 3; i++ {
			lo[i] = math32.Min(lo[i], b.Min()[i])
			hi[i] = math32.Max(hi[i], b.Max()[i])
		}
	}
	return cube.Box(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

// Len returns the number of faces the tree was built from.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.faces)
}

// Faces returns the faces the tree was built from. Callers must not
// modify them.
func (t *Tree) Faces() []Triangle {
	if t == nil {
		return nil
	}
	return t.faces
}

// Fingerprint returns the content hash of the source faces.
func (t *Tree) Fingerprint() uint64 {
	if t == nil {
		return 0
	}
	return t.fingerprint
}

// Bounds returns the box around every face, or false for an empty tree.
func (t *Tree) Bounds() (cube.BBox, bool) {
	if t == nil || t.root == nil {
		return cube.BBox{}, false
	}
	return t.root.box, true
}

// RayCast returns the closest face hit within maxDist along dir.
func (t *Tree) RayCast(origin, dir mgl32.Vec3, maxDist float32) (Hit, bool) {
	if t == nil || t.root == nil {
		return Hit{}, false
	}
	r, ok := NewRay(origin, dir)
	if !ok {
		return Hit{}, false
	}

	best := maxDist
	bestID := -1
	stack := []*node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entry, hit := r.IntersectBox(n.box)
		if !hit || entry > best {
			continue
		}
		if n.faces != nil {
			for _, id := range n.faces {
				if d, ok := t.faces[id].intersect(r); ok && d <= best {
					best, bestID = d, id
				}
			}
			continue
		}
		stack = append(stack, n.left, n.right)
	}

	if bestID < 0 {
		return Hit{}, false
	}
	return Hit{
		Position: r.At(best),
		Normal:   t.normals[bestID],
		ID:       bestID,
		Distance: best,
	}, true
}

// FindNearest returns the closest point on any face within maxDist of p.
func (t *Tree) FindNearest(p mgl32.Vec3, maxDist float32) (Hit, bool) {
	if t == nil || t.root == nil {
		return Hit{}, false
	}
	q := nearestQuery{tree: t, p: p, best: maxDist, bestID: -1}
	q.visit(t.root)
	if q.bestID < 0 {
		return Hit{}, false
	}
	return Hit{
		Position: q.point,
		Normal:   t.normals[q.bestID],
		ID:       q.bestID,
		Distance: q.best,
	}, true
}

type nearestQuery struct {
	tree   *Tree
	p      mgl32.Vec3
	best   float32
	bestID int
	point  mgl32.Vec3
}

func (q *nearestQuery) visit(n *node) {
	if boxDistance(n.box, q.p) > q.best {
		return
	}
	if n.faces != nil {
		for _, id := range n.faces {
			c := q.tree.faces[id].closestPoint(q.p)
			if d := c.Sub(q.p).Len(); d <= q.best {
				q.best, q.bestID, q.point = d, id, c
			}
		}
		return
	}

	first, second := n.left, n.right
	if boxDistance(second.box, q.p) < boxDistance(first.box, q.p) {
		first, second = second, first
	}
	q.visit(first)
	q.visit(second)
}

// Fingerprint hashes the exact corner values of faces.
func Fingerprint(faces []Triangle) uint64 {
	buf := make([]byte, 0, len(faces)*36)
	for _, f := range faces {
		for _, v := range [3]mgl32.Vec3{f.A, f.B, f.C} {
			for _, c := range v {
				buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(c))
			}
		}
	}
	return xxh3.Hash(buf)
}
