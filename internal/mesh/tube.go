package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nobisoft/dxf2glb/internal/curve"
	"github.com/nobisoft/dxf2glb/internal/geom"
)

// Profile describes the cross-section swept along each strand.
type Profile struct {
	// Resolution is the number of sides of the swept polygon, minimum 3.
	Resolution int
	// BevelRadius is the cross-section radius. Zero produces wire
	// geometry: strand points only, no faces.
	BevelRadius float64
}

// GenerateTube converts a curve network into a triangle mesh by sweeping a
// regular Resolution-gon of radius BevelRadius along every strand. One ring
// of vertices is emitted per strand point; consecutive rings are joined by
// quads split into two triangles. Closed strands additionally join the last
// ring back to the first. Strands never share vertices; welding across
// strands is deferred to the simplifier so generation stays strand-local.
func GenerateTube(n *curve.Network, profile Profile) (*Mesh, error) {
	if profile.Resolution < 3 && profile.BevelRadius > 0 {
		return nil, fmt.Errorf("profile resolution must be >= 3, got %d", profile.Resolution)
	}
	if profile.BevelRadius < 0 {
		return nil, fmt.Errorf("bevel radius must be >= 0, got %v", profile.BevelRadius)
	}

	m := &Mesh{Name: n.Name}

	if profile.BevelRadius == 0 {
		// Wire mode: the strand points are the geometry.
		for i := range n.Strands {
			m.Vertices = append(m.Vertices, n.Strands[i].Points...)
		}
		return m, nil
	}

	for i := range n.Strands {
		sweepStrand(m, &n.Strands[i], profile)
	}
	return m, nil
}

// sweepStrand appends one strand's rings and faces to the mesh.
func sweepStrand(m *Mesh, s *curve.Strand, profile Profile) {
	pts := s.Points
	if len(pts) < 2 {
		return
	}

	tangents := strandTangents(pts, s.Closed)
	res := profile.Resolution
	base := len(m.Vertices)

	// Sweep a parallel-transported frame along the strand so consecutive
	// rings keep a consistent angular origin and the tube does not twist.
	var u, v r3.Vec
	for i, p := range pts {
		t := tangents[i]
		if i == 0 {
			u = perpendicular(t)
		} else {
			// Project the previous frame axis onto the plane
			// perpendicular to the new tangent.
			u = r3.Sub(u, r3.Scale(r3.Dot(u, t), t))
			if r3.Norm(u) < 1e-9 {
				u = perpendicular(t)
			}
			u = r3.Unit(u)
		}
		v = r3.Cross(t, u)

		for k := 0; k < res; k++ {
			theta := 2 * math.Pi * float64(k) / float64(res)
			offset := r3.Add(
				r3.Scale(profile.BevelRadius*math.Cos(theta), u),
				r3.Scale(profile.BevelRadius*math.Sin(theta), v),
			)
			m.Vertices = append(m.Vertices, r3.Add(p, offset))
		}
	}

	ringStart := func(ring int) int { return base + ring*res }
	joinRings := func(a, b int) {
		for k := 0; k < res; k++ {
			k1 := (k + 1) % res
			i0 := ringStart(a) + k
			i1 := ringStart(a) + k1
			i2 := ringStart(b) + k1
			i3 := ringStart(b) + k
			m.Faces = append(m.Faces, [3]int{i0, i1, i2}, [3]int{i0, i2, i3})
		}
	}

	for ring := 0; ring+1 < len(pts); ring++ {
		joinRings(ring, ring+1)
	}
	if s.Closed {
		joinRings(len(pts)-1, 0)
	}
}

// strandTangents computes the unit sweep direction at every strand point.
// Interior points use the bisector of the incoming and outgoing segment
// directions; endpoints of open strands use the single adjacent segment.
// Closed strands treat every point as interior with wraparound neighbours.
func strandTangents(pts []geom.Point3, closed bool) []r3.Vec {
	n := len(pts)
	segs := make([]r3.Vec, 0, n)
	segDir := func(a, b geom.Point3) r3.Vec {
		d := r3.Sub(b, a)
		if r3.Norm(d) < 1e-12 {
			return r3.Vec{}
		}
		return r3.Unit(d)
	}
	for i := 0; i+1 < n; i++ {
		segs = append(segs, segDir(pts[i], pts[i+1]))
	}
	if closed {
		segs = append(segs, segDir(pts[n-1], pts[0]))
	}

	// Coincident consecutive points produce zero segments; reuse the last
	// usable direction so the frame stays continuous.
	last := r3.Vec{X: 1}
	for i := range segs {
		if r3.Norm(segs[i]) < 1e-12 {
			segs[i] = last
		} else {
			last = segs[i]
		}
	}

	tangents := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		var in, out r3.Vec
		switch {
		case closed:
			in = segs[(i-1+len(segs))%len(segs)]
			out = segs[i%len(segs)]
		case i == 0:
			tangents[i] = segs[0]
			continue
		case i == n-1:
			tangents[i] = segs[len(segs)-1]
			continue
		default:
			in = segs[i-1]
			out = segs[i]
		}
		bisector := r3.Add(in, out)
		if r3.Norm(bisector) < 1e-9 {
			// 180-degree reversal: fall back to the incoming direction.
			tangents[i] = in
			continue
		}
		tangents[i] = r3.Unit(bisector)
	}
	return tangents
}

// perpendicular returns a unit vector perpendicular to t, derived from the
// world axis least aligned with it.
func perpendicular(t r3.Vec) r3.Vec {
	ref := r3.Vec{Z: 1}
	if math.Abs(t.Z) > 0.9 {
		ref = r3.Vec{X: 1}
	}
	return r3.Unit(r3.Cross(t, ref))
}
