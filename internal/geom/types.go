// Package geom holds the polyline data model for the conversion pipeline:
// the loaded polyline set, layer grouping, and the auto-centering
// calculation applied before any geometry is generated.
package geom

import (
	"encoding/json"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a double-precision 3D coordinate. It aliases r3.Vec so the
// geometry kernels can use gonum vector algebra directly.
type Point3 = r3.Vec

// DefaultLayer is the layer tag assigned to polylines that carry none.
const DefaultLayer = "Default"

// Polyline is an ordered run of points extracted from a CAD drawing.
// Closed means the last point connects back to the first. Polylines are
// immutable once loaded; the pipeline never mutates them.
type Polyline struct {
	Points []Point3
	Closed bool
	Layer  string
}

// PointCount returns the number of points on the polyline.
func (p *Polyline) PointCount() int { return len(p.Points) }

// Renderable reports whether the polyline carries any renderable geometry.
// Single-point and empty polylines are skipped by the network builder.
func (p *Polyline) Renderable() bool { return len(p.Points) >= 2 }

// PolylineSet is the full ordered input to a pipeline run, plus the
// extractor's summary stats blob carried through for diagnostics only.
type PolylineSet struct {
	Polylines []Polyline
	Stats     json.RawMessage
}

// PointCount returns the total number of points across all polylines.
func (s *PolylineSet) PointCount() int {
	total := 0
	for i := range s.Polylines {
		total += len(s.Polylines[i].Points)
	}
	return total
}
