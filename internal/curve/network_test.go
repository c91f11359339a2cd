package curve

import (
	"testing"

	"github.com/nobisoft/dxf2glb/internal/geom"
)

func group(layer string, polylines ...geom.Polyline) geom.LayerGroup {
	g := geom.LayerGroup{Layer: layer}
	for i := range polylines {
		g.Polylines = append(g.Polylines, &polylines[i])
	}
	return g
}

func TestBuild_CenterAndScale(t *testing.T) {
	g := group("WALLS", geom.Polyline{
		Points: []geom.Point3{{X: 10, Y: 20, Z: 30}, {X: 12, Y: 20, Z: 30}},
		Closed: false,
		Layer:  "WALLS",
	})
	center := geom.Point3{X: 10, Y: 20, Z: 30}

	n := Build(g, center, 2.0)
	if n.Name != "WALLS" {
		t.Errorf("name = %q, want WALLS", n.Name)
	}
	if len(n.Strands) != 1 {
		t.Fatalf("got %d strands, want 1", len(n.Strands))
	}
	got := n.Strands[0].Points
	if got[0] != (geom.Point3{}) {
		t.Errorf("first point = %v, want origin", got[0])
	}
	if got[1] != (geom.Point3{X: 4}) {
		t.Errorf("second point = %v, want {4 0 0}", got[1])
	}
}

func TestBuild_DropsShortPolylines(t *testing.T) {
	g := group("Default",
		geom.Polyline{Points: []geom.Point3{{X: 0}, {X: 1}}},
		geom.Polyline{Points: []geom.Point3{{X: 5}}},
		geom.Polyline{Points: nil},
		geom.Polyline{Points: []geom.Point3{{X: 0}, {X: 1}, {X: 2}}},
		geom.Polyline{Points: []geom.Point3{{Y: 1}, {Y: 2}}},
	)

	n := Build(g, geom.Point3{}, 1.0)
	if len(n.Strands) != 3 {
		t.Errorf("got %d strands, want 3 (short polylines dropped)", len(n.Strands))
	}
	if n.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", n.Skipped)
	}
}

func TestBuild_StrandInheritsClosedFlag(t *testing.T) {
	g := group("Default",
		geom.Polyline{Points: []geom.Point3{{X: 0}, {X: 1}, {Y: 1}}, Closed: true},
		geom.Polyline{Points: []geom.Point3{{X: 0}, {X: 1}}, Closed: false},
	)
	n := Build(g, geom.Point3{}, 1.0)
	if !n.Strands[0].Closed || n.Strands[1].Closed {
		t.Errorf("closed flags = [%v %v], want [true false]",
			n.Strands[0].Closed, n.Strands[1].Closed)
	}
}

func TestBuildUnmerged(t *testing.T) {
	g := group("PIPES",
		geom.Polyline{Points: []geom.Point3{{X: 0}, {X: 1}}},
		geom.Polyline{Points: []geom.Point3{{X: 5}}}, // dropped
		geom.Polyline{Points: []geom.Point3{{Y: 0}, {Y: 1}}},
	)
	networks := BuildUnmerged(g, geom.Point3{}, 1.0)
	if len(networks) != 2 {
		t.Fatalf("got %d networks, want 2", len(networks))
	}
	if networks[0].Name != "PIPES-0" || networks[1].Name != "PIPES-2" {
		t.Errorf("names = [%s %s], want [PIPES-0 PIPES-2]", networks[0].Name, networks[1].Name)
	}
	for _, n := range networks {
		if len(n.Strands) != 1 {
			t.Errorf("network %s has %d strands, want 1", n.Name, len(n.Strands))
		}
	}
}
