package mesh

import (
	"math"
)

// Weld merges vertices whose positions differ by no more than distance on
// every axis, re-indexing faces to the surviving vertex. The first vertex
// of each merged set (in buffer order) is kept as the representative, so
// output is deterministic for a given input. Faces left with fewer than
// three distinct indices are discarded and orphaned vertices are compacted.
//
// A distance of zero skips the stage entirely, as do wire meshes.
//
// Candidate lookup uses a spatial hash with cells of the weld distance:
// any vertex within tolerance of another lies in the same or an adjacent
// cell, so each vertex inspects at most 27 cells.
func Weld(m *Mesh, distance float64) {
	if distance <= 0 || m.IsWire() {
		return
	}

	type cellKey struct{ x, y, z int }
	cell := func(p, d float64) int { return int(math.Floor(p / d)) }

	// Representatives already accepted, bucketed by cell.
	buckets := make(map[cellKey][]int)
	remap := make([]int, len(m.Vertices))

	for i, p := range m.Vertices {
		key := cellKey{cell(p.X, distance), cell(p.Y, distance), cell(p.Z, distance)}
		target := -1
	search:
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					nk := cellKey{key.x + dx, key.y + dy, key.z + dz}
					for _, r := range buckets[nk] {
						q := m.Vertices[r]
						if math.Abs(p.X-q.X) <= distance &&
							math.Abs(p.Y-q.Y) <= distance &&
							math.Abs(p.Z-q.Z) <= distance {
							target = r
							break search
						}
					}
				}
			}
		}
		if target >= 0 {
			remap[i] = target
		} else {
			remap[i] = i
			buckets[key] = append(buckets[key], i)
		}
	}

	for fi := range m.Faces {
		for vi := range m.Faces[fi] {
			m.Faces[fi][vi] = remap[m.Faces[fi][vi]]
		}
	}
	m.dropDegenerateFaces()
	m.compact()
}
