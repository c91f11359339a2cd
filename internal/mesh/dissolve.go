package mesh

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// LimitedDissolve strips near-straight runs of vertices introduced by dense
// CAD polylines. A vertex sitting on exactly one straight-through path
// (the directions of its two chain edges differ by no more than angleLimit)
// is merged into its along-chain neighbour, provided every surviving
// incident face keeps its orientation within angleLimit and keeps positive
// area. Faces spanning the removed edge collapse to slivers and are
// discarded. The pass repeats until no vertex qualifies.
//
// An angleLimit of zero skips the stage, as do wire meshes.
func LimitedDissolve(m *Mesh, angleLimit float64) {
	if angleLimit <= 0 || m.IsWire() {
		return
	}
	for dissolvePass(m, angleLimit) {
	}
	m.dropDegenerateFaces()
	m.compact()
}

// dissolvePass performs one sweep over the vertices in buffer order,
// collapsing every qualifying vertex whose neighbourhood has not already
// been modified this pass. Returns whether anything changed.
func dissolvePass(m *Mesh, limit float64) bool {
	nv := len(m.Vertices)
	neighbors := make([]map[int]struct{}, nv)
	vfaces := make([][]int, nv)
	addEdge := func(a, b int) {
		if neighbors[a] == nil {
			neighbors[a] = make(map[int]struct{})
		}
		neighbors[a][b] = struct{}{}
	}
	for fid, f := range m.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			addEdge(a, b)
			addEdge(b, a)
			vfaces[f[k]] = append(vfaces[f[k]], fid)
		}
	}

	deleted := make([]bool, len(m.Faces))
	touched := make([]bool, nv)
	changed := false

	for v := 0; v < nv; v++ {
		if touched[v] || len(neighbors[v]) < 2 {
			continue
		}
		nbrs := make([]int, 0, len(neighbors[v]))
		for w := range neighbors[v] {
			nbrs = append(nbrs, w)
		}
		sort.Ints(nbrs)

		// The vertex must lie on exactly one straight-through path.
		// Multiple candidates mean an ambiguous junction; leave it alone.
		pairA, pairB, count := -1, -1, 0
		for i := 0; i < len(nbrs) && count < 2; i++ {
			for j := i + 1; j < len(nbrs); j++ {
				in := r3.Sub(m.Vertices[v], m.Vertices[nbrs[i]])
				out := r3.Sub(m.Vertices[nbrs[j]], m.Vertices[v])
				if angleBetween(in, out) <= limit {
					pairA, pairB = nbrs[i], nbrs[j]
					count++
					if count == 2 {
						break
					}
				}
			}
		}
		if count != 1 || touched[pairA] || touched[pairB] {
			continue
		}

		target := pairB
		if !collapseKeepsShape(m, vfaces[v], deleted, v, target, limit) {
			continue
		}

		for _, fid := range vfaces[v] {
			if deleted[fid] {
				continue
			}
			f := &m.Faces[fid]
			for k := range f {
				if f[k] == v {
					f[k] = target
				}
			}
			if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
				deleted[fid] = true
			}
		}

		touched[v], touched[target] = true, true
		for w := range neighbors[v] {
			touched[w] = true
		}
		changed = true
	}

	if changed {
		kept := m.Faces[:0]
		for i, f := range m.Faces {
			if !deleted[i] {
				kept = append(kept, f)
			}
		}
		m.Faces = kept
	}
	return changed
}

// collapseKeepsShape checks that merging v into target leaves every
// surviving incident face with positive area and a normal within limit of
// its current orientation. Faces that become slivers (duplicate indices)
// are the ones intentionally removed and are exempt.
func collapseKeepsShape(m *Mesh, fids []int, deleted []bool, v, target int, limit float64) bool {
	for _, fid := range fids {
		if deleted[fid] {
			continue
		}
		f := m.Faces[fid]
		nf := f
		for k := range nf {
			if nf[k] == v {
				nf[k] = target
			}
		}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[0] == nf[2] {
			continue
		}
		before := m.faceNormal(f)
		after := m.faceNormal(nf)
		if r3.Norm2(after) < degenerateArea {
			return false
		}
		if angleBetween(before, after) > limit {
			return false
		}
	}
	return true
}
