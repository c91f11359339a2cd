package pipeline

// MeshStats is the per-mesh vertex-count telemetry sampled around the three
// simplification stages.
type MeshStats struct {
	Name    string `json:"name"`
	Strands int    `json:"strands"`
	Skipped int    `json:"skipped_polylines"`

	VertsInitial   int `json:"verts_initial"`
	VertsWelded    int `json:"verts_welded"`
	VertsDissolved int `json:"verts_dissolved"`
	VertsFinal     int `json:"verts_final"`

	FacesInitial int `json:"faces_initial"`
	FacesFinal   int `json:"faces_final"`

	// AchievedRatio is the face ratio decimation actually reached. It is
	// above the requested ratio when collapses ran out before the target.
	AchievedRatio float64 `json:"achieved_ratio"`
}

// Reduction returns the fractional vertex reduction for this mesh.
func (s *MeshStats) Reduction() float64 {
	if s.VertsInitial == 0 {
		return 0
	}
	return 1 - float64(s.VertsFinal)/float64(s.VertsInitial)
}

// Summary aggregates a run's telemetry across all meshes.
type Summary struct {
	Meshes           int `json:"meshes"`
	Strands          int `json:"strands"`
	SkippedPolylines int `json:"skipped_polylines"`
	VertsInitial     int `json:"verts_initial"`
	VertsFinal       int `json:"verts_final"`
	FacesInitial     int `json:"faces_initial"`
	FacesFinal       int `json:"faces_final"`
}

// Reduction returns the overall vertex reduction, 1 - final/initial.
func (s *Summary) Reduction() float64 {
	if s.VertsInitial == 0 {
		return 0
	}
	return 1 - float64(s.VertsFinal)/float64(s.VertsInitial)
}

// Summarize folds per-mesh stats into run totals.
func Summarize(stats []MeshStats) Summary {
	var sum Summary
	sum.Meshes = len(stats)
	for i := range stats {
		s := &stats[i]
		sum.Strands += s.Strands
		sum.SkippedPolylines += s.Skipped
		sum.VertsInitial += s.VertsInitial
		sum.VertsFinal += s.VertsFinal
		sum.FacesInitial += s.FacesInitial
		sum.FacesFinal += s.FacesFinal
	}
	return sum
}
