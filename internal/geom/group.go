package geom

// LayerGroup is one layer's polylines in input order.
type LayerGroup struct {
	Layer     string
	Polylines []*Polyline
}

// GroupByLayer partitions the set's polylines by exact layer tag.
// Groups are returned in order of each tag's first appearance, so output
// naming and processing order are deterministic for a given input.
// A Go map alone would randomise iteration order between runs, hence the
// ordered slice alongside the index map.
func GroupByLayer(set *PolylineSet) []LayerGroup {
	index := make(map[string]int)
	groups := make([]LayerGroup, 0)
	for i := range set.Polylines {
		pl := &set.Polylines[i]
		gi, ok := index[pl.Layer]
		if !ok {
			gi = len(groups)
			index[pl.Layer] = gi
			groups = append(groups, LayerGroup{Layer: pl.Layer})
		}
		groups[gi].Polylines = append(groups[gi].Polylines, pl)
	}
	return groups
}
