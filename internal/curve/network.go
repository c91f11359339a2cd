// Package curve builds per-layer curve networks from grouped polylines.
// A network is the centered, scaled, multi-strand intermediate between the
// raw polyline set and tube mesh generation.
package curve

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nobisoft/dxf2glb/internal/geom"
)

// Strand is one centered, scaled polyline within a network.
type Strand struct {
	Points []geom.Point3
	Closed bool
}

// Network is a named collection of strands. In merge mode there is one
// network per layer; in unmerged mode one per polyline.
type Network struct {
	Name    string
	Strands []Strand

	// Skipped counts input polylines dropped for having fewer than two
	// points. Reported in telemetry, never an error.
	Skipped int
}

// PointCount returns the total number of strand points in the network.
func (n *Network) PointCount() int {
	total := 0
	for i := range n.Strands {
		total += len(n.Strands[i].Points)
	}
	return total
}

// Build merges a layer group into one network. Every polyline with at least
// two points becomes a strand; each point is transformed as
// (input - center) * scale per axis. The center must be the single frozen
// value computed for the whole run.
func Build(group geom.LayerGroup, center geom.Point3, scale float64) *Network {
	n := &Network{Name: group.Layer}
	for _, pl := range group.Polylines {
		if !pl.Renderable() {
			n.Skipped++
			continue
		}
		s := Strand{
			Points: make([]geom.Point3, len(pl.Points)),
			Closed: pl.Closed,
		}
		for i, p := range pl.Points {
			s.Points[i] = r3.Scale(scale, r3.Sub(p, center))
		}
		n.Strands = append(n.Strands, s)
	}
	return n
}

// BuildUnmerged produces one single-strand network per renderable polyline
// in the group, named name-0, name-1, ... in input order. This is the
// degenerate one-object-per-polyline mode; Build is the default path.
func BuildUnmerged(group geom.LayerGroup, center geom.Point3, scale float64) []*Network {
	var networks []*Network
	for i, pl := range group.Polylines {
		sub := geom.LayerGroup{
			Layer:     fmt.Sprintf("%s-%d", group.Layer, i),
			Polylines: []*geom.Polyline{pl},
		}
		n := Build(sub, center, scale)
		if len(n.Strands) == 0 {
			continue
		}
		networks = append(networks, n)
	}
	return networks
}
