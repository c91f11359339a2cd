package mesh

import (
	"container/heap"

	"gonum.org/v1/gonum/spatial/r3"
)

// Policy selects how Decimate reduces the face count.
type Policy string

const (
	// PolicyCollapse is the default ratio-driven greedy edge collapse.
	PolicyCollapse Policy = "collapse"
	// PolicyPlanar dissolves near-coplanar geometry at a fixed angle
	// instead of honouring the ratio.
	PolicyPlanar Policy = "dissolve"
)

// planarDissolveAngle is the dihedral threshold used by PolicyPlanar,
// roughly five degrees.
const planarDissolveAngle = 0.0872

// Decimate reduces the face count toward faceCount*ratio using greedy
// error-bounded edge collapse: the shortest remaining edge is collapsed to
// its midpoint first, since collapsing short edges introduces the least
// geometric deviation. Collapses that would flip a surviving face normal,
// produce a zero-area face, or pinch the surface into a non-manifold
// configuration are rejected.
//
// A ratio of 1.0 (or higher) returns immediately and leaves the mesh
// byte-for-byte untouched; out-of-range ratios at or below zero are treated
// the same way. Wire meshes are skipped. The achieved ratio
// (final/initial face count) is returned; it is above the requested ratio
// when no further collapse is possible without violating mesh validity.
func Decimate(m *Mesh, ratio float64, policy Policy) float64 {
	if m.IsWire() {
		return 1.0
	}
	if policy == PolicyPlanar {
		initial := m.FaceCount()
		LimitedDissolve(m, planarDissolveAngle)
		if initial == 0 {
			return 1.0
		}
		return float64(m.FaceCount()) / float64(initial)
	}
	if ratio >= 1.0 || ratio <= 0 {
		return 1.0
	}

	initial := m.FaceCount()
	target := int(float64(initial) * ratio)
	if target < 1 {
		target = 1
	}

	d := newDecimator(m)
	for d.liveFaces > target {
		e, ok := d.pop()
		if !ok {
			break
		}
		d.tryCollapse(e)
	}
	d.commit(m)
	return float64(m.FaceCount()) / float64(initial)
}

// collapseEdge is a heap entry. Cost is the squared edge length at the
// time the entry was pushed; stale entries are discarded lazily on pop.
type collapseEdge struct {
	cost float64
	u, v int // u < v
}

type edgeHeap []collapseEdge

func (h edgeHeap) Len() int { return len(h) }
func (h edgeHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].u != h[j].u {
		return h[i].u < h[j].u
	}
	return h[i].v < h[j].v
}
func (h edgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x interface{}) { *h = append(*h, x.(collapseEdge)) }
func (h *edgeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// decimator carries the mutable collapse state for one mesh.
type decimator struct {
	verts     []r3.Vec
	faces     [][3]int
	deleted   []bool
	neighbors []map[int]struct{}
	vfaces    []map[int]struct{}
	h         edgeHeap
	liveFaces int
}

func newDecimator(m *Mesh) *decimator {
	d := &decimator{
		verts:     append([]r3.Vec(nil), m.Vertices...),
		faces:     make([][3]int, len(m.Faces)),
		deleted:   make([]bool, len(m.Faces)),
		neighbors: make([]map[int]struct{}, len(m.Vertices)),
		vfaces:    make([]map[int]struct{}, len(m.Vertices)),
		liveFaces: len(m.Faces),
	}
	copy(d.faces, m.Faces)
	for i := range d.neighbors {
		d.neighbors[i] = make(map[int]struct{})
		d.vfaces[i] = make(map[int]struct{})
	}
	for fid, f := range d.faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			d.neighbors[a][b] = struct{}{}
			d.neighbors[b][a] = struct{}{}
			d.vfaces[f[k]][fid] = struct{}{}
		}
	}
	for u := range d.neighbors {
		for v := range d.neighbors[u] {
			if u < v {
				d.push(u, v)
			}
		}
	}
	heap.Init(&d.h)
	return d
}

func (d *decimator) push(u, v int) {
	if u > v {
		u, v = v, u
	}
	cost := r3.Norm2(r3.Sub(d.verts[u], d.verts[v]))
	heap.Push(&d.h, collapseEdge{cost: cost, u: u, v: v})
}

// pop returns the next live edge, discarding entries whose edge no longer
// exists or whose cost is stale.
func (d *decimator) pop() (collapseEdge, bool) {
	for d.h.Len() > 0 {
		e := heap.Pop(&d.h).(collapseEdge)
		if _, ok := d.neighbors[e.u][e.v]; !ok {
			continue
		}
		if cost := r3.Norm2(r3.Sub(d.verts[e.u], d.verts[e.v])); cost != e.cost {
			continue
		}
		return e, true
	}
	return collapseEdge{}, false
}

// tryCollapse merges v into u at the edge midpoint if the result stays
// valid. Rejected edges are simply dropped; collapses elsewhere re-push
// edges whose endpoints move.
func (d *decimator) tryCollapse(e collapseEdge) {
	u, v := e.u, e.v

	// Manifold guard: u and v sharing more than two neighbours means the
	// collapse would pinch the surface.
	shared := 0
	for w := range d.neighbors[u] {
		if _, ok := d.neighbors[v][w]; ok {
			shared++
		}
	}
	if shared > 2 {
		return
	}

	mid := r3.Scale(0.5, r3.Add(d.verts[u], d.verts[v]))

	// Validate every surviving incident face against the midpoint move:
	// no zero-area result, no normal flip.
	check := func(fid int) bool {
		f := d.faces[fid]
		nf := f
		for k := range nf {
			if nf[k] == v {
				nf[k] = u
			}
		}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[0] == nf[2] {
			return true // sliver between u and v, removed by the collapse
		}
		before := triNormal(d.verts[f[0]], d.verts[f[1]], d.verts[f[2]])
		pos := func(i int) r3.Vec {
			if i == u {
				return mid
			}
			return d.verts[i]
		}
		after := triNormal(pos(nf[0]), pos(nf[1]), pos(nf[2]))
		if r3.Norm2(after) < degenerateArea {
			return false
		}
		return r3.Dot(before, after) > 0
	}
	for fid := range d.vfaces[u] {
		if !d.deleted[fid] && !check(fid) {
			return
		}
	}
	for fid := range d.vfaces[v] {
		if !d.deleted[fid] && !check(fid) {
			return
		}
	}

	// Commit: move u to the midpoint, rewrite v's faces, retire slivers.
	d.verts[u] = mid
	for fid := range d.vfaces[v] {
		if d.deleted[fid] {
			continue
		}
		f := &d.faces[fid]
		for k := range f {
			if f[k] == v {
				f[k] = u
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			d.deleted[fid] = true
			d.liveFaces--
			for _, w := range f {
				delete(d.vfaces[w], fid)
			}
			continue
		}
		d.vfaces[u][fid] = struct{}{}
	}

	for w := range d.neighbors[v] {
		delete(d.neighbors[w], v)
		if w != u {
			d.neighbors[w][u] = struct{}{}
			d.neighbors[u][w] = struct{}{}
		}
	}
	d.neighbors[v] = map[int]struct{}{}
	d.vfaces[v] = map[int]struct{}{}

	// Re-cost every edge incident to the moved vertex.
	for w := range d.neighbors[u] {
		d.push(u, w)
	}
}

// commit writes the collapsed geometry back into m and compacts it.
func (d *decimator) commit(m *Mesh) {
	kept := make([][3]int, 0, d.liveFaces)
	for fid, f := range d.faces {
		if !d.deleted[fid] {
			kept = append(kept, f)
		}
	}
	m.Vertices = d.verts
	m.Faces = kept
	m.dropDegenerateFaces()
	m.compact()
}

func triNormal(a, b, c r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}
