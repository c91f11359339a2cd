// Package mesh implements the triangle mesh model, the tube extrusion
// generator, and the three-stage simplification pipeline (vertex welding,
// limited dissolve, decimation) used to reduce dense CAD line geometry to a
// compact renderable mesh.
package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nobisoft/dxf2glb/internal/geom"
)

// Mesh is an indexed triangle mesh. Faces index into Vertices; every index
// must be a valid position in the vertex buffer after every pipeline stage.
// A mesh with vertices but no faces is wire geometry (bevel radius zero).
type Mesh struct {
	Name     string
	Vertices []geom.Point3
	Faces    [][3]int
}

// VertexCount returns the number of vertices in the buffer.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of triangles in the buffer.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// IsWire reports whether the mesh carries no surface. Simplification stages
// are skipped for wire meshes: welding and decimation have no meaning on
// geometry with zero area.
func (m *Mesh) IsWire() bool { return len(m.Faces) == 0 }

// Validate checks the face-index invariant: every face references three
// distinct, in-range vertices.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d outside buffer of %d", i, v, len(m.Vertices))
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return fmt.Errorf("face %d is degenerate: %v", i, f)
		}
	}
	return nil
}

// faceNormal returns the unnormalised normal of face f. Zero for
// degenerate faces.
func (m *Mesh) faceNormal(f [3]int) r3.Vec {
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// degenerateArea is the squared-norm threshold below which a face normal is
// treated as zero area.
const degenerateArea = 1e-18

// compact drops vertices not referenced by any face and remaps face
// indices. Wire meshes are left untouched: their vertices are the geometry.
func (m *Mesh) compact() {
	if m.IsWire() {
		return
	}
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	kept := make([]geom.Point3, 0, len(m.Vertices))
	for fi := range m.Faces {
		for vi, v := range m.Faces[fi] {
			if remap[v] == -1 {
				remap[v] = len(kept)
				kept = append(kept, m.Vertices[v])
			}
			m.Faces[fi][vi] = remap[v]
		}
	}
	m.Vertices = kept
}

// dropDegenerateFaces removes faces with fewer than three distinct indices
// or effectively zero area, preserving face order.
func (m *Mesh) dropDegenerateFaces() {
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		n := m.faceNormal(f)
		if r3.Norm2(n) < degenerateArea {
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
}

// angleBetween returns the angle in radians between two direction vectors.
// Either vector being near zero yields pi, which no angle limit accepts.
func angleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na < 1e-12 || nb < 1e-12 {
		return math.Pi
	}
	cos := r3.Dot(a, b) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
