// Package pipeline orchestrates the polyline-to-mesh conversion: centering,
// layer grouping, curve network building, tube generation, and the
// weld/dissolve/decimate simplification chain, fanned out across layers.
//
// This package is the composition root: it imports geom, curve, and mesh,
// but none of those packages import pipeline.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/nobisoft/dxf2glb/internal/curve"
	"github.com/nobisoft/dxf2glb/internal/geom"
	"github.com/nobisoft/dxf2glb/internal/mesh"
)

// Result is a completed pipeline run: the simplified meshes in layer
// first-appearance order, the frozen center they were built around, and the
// per-mesh telemetry.
type Result struct {
	Center geom.Point3
	Meshes []*mesh.Mesh
	Stats  []MeshStats
}

// Summary aggregates the run's telemetry.
func (r *Result) Summary() Summary {
	return Summarize(r.Stats)
}

// Run executes the full pipeline over the polyline set. The center is
// computed once from the capped sample and shared read-only by every layer
// worker; each layer's network → mesh → simplify chain is independent.
// An empty set aborts before any stage executes. The context is checked
// between stages; cancellation abandons the run.
func Run(ctx context.Context, set *geom.PolylineSet, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if set == nil || len(set.Polylines) == 0 {
		return nil, geom.ErrNoPolylines
	}

	if limit := opts.GetMaxPolylines(); limit > 0 && limit < len(set.Polylines) {
		diagf("limiting run to first %d of %d polylines", limit, len(set.Polylines))
		capped := *set
		capped.Polylines = set.Polylines[:limit]
		set = &capped
	}

	center, err := geom.CalculateCenter(set, opts.GetCenterSampleCap())
	if err != nil {
		return nil, fmt.Errorf("auto-center: %w", err)
	}
	diagf("center (%.2f, %.2f, %.2f)", center.X, center.Y, center.Z)

	groups := geom.GroupByLayer(set)
	diagf("%d layers, merge=%v", len(groups), opts.GetMergePerLayer())

	// One network per layer in merge mode, one per polyline otherwise.
	// Networks are expanded up front so results keep a stable order no
	// matter which worker finishes first.
	var networks []*curve.Network
	for _, g := range groups {
		if opts.GetMergePerLayer() {
			networks = append(networks, curve.Build(g, center, opts.GetScale()))
		} else {
			networks = append(networks, curve.BuildUnmerged(g, center, opts.GetScale())...)
		}
	}

	meshes := make([]*mesh.Mesh, len(networks))
	stats := make([]MeshStats, len(networks))
	errs := make([]error, len(networks))

	workers := opts.GetWorkers()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(networks) {
		workers = len(networks)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				meshes[i], stats[i], errs[i] = processNetwork(ctx, networks[i], opts)
			}
		}()
	}
	for i := range networks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result := &Result{Center: center, Meshes: meshes, Stats: stats}
	sum := result.Summary()
	diagf("run complete: %d meshes, %d -> %d vertices (%.2f%% reduction)",
		sum.Meshes, sum.VertsInitial, sum.VertsFinal, sum.Reduction()*100)
	return result, nil
}

// processNetwork runs the generate → weld → dissolve → decimate chain for
// one network. The three simplification stages are strictly sequential;
// parallelism lives at the network level only.
func processNetwork(ctx context.Context, n *curve.Network, opts *Options) (*mesh.Mesh, MeshStats, error) {
	st := MeshStats{Name: n.Name, Strands: len(n.Strands), Skipped: n.Skipped, AchievedRatio: 1.0}
	if n.Skipped > 0 {
		opsf("layer %s: skipped %d polylines with fewer than 2 points", n.Name, n.Skipped)
	}

	if err := ctx.Err(); err != nil {
		return nil, st, err
	}
	m, err := mesh.GenerateTube(n, opts.Profile())
	if err != nil {
		return nil, st, fmt.Errorf("layer %s: %w", n.Name, err)
	}
	st.VertsInitial = m.VertexCount()
	st.FacesInitial = m.FaceCount()

	if err := ctx.Err(); err != nil {
		return nil, st, err
	}
	mesh.Weld(m, opts.GetWeldDistance())
	st.VertsWelded = m.VertexCount()

	if err := ctx.Err(); err != nil {
		return nil, st, err
	}
	mesh.LimitedDissolve(m, opts.GetDissolveAngle())
	st.VertsDissolved = m.VertexCount()

	if err := ctx.Err(); err != nil {
		return nil, st, err
	}
	st.AchievedRatio = mesh.Decimate(m, opts.GetDecimateRatio(), opts.GetDecimatePolicy())
	st.VertsFinal = m.VertexCount()
	st.FacesFinal = m.FaceCount()

	if requested := opts.GetDecimateRatio(); opts.GetDecimatePolicy() == mesh.PolicyCollapse &&
		requested < 1.0 && st.AchievedRatio > requested && st.FacesInitial > 0 {
		opsf("layer %s: decimation stopped at ratio %.3f (requested %.3f)",
			n.Name, st.AchievedRatio, requested)
	}

	diagf("layer %s: verts %d -> %d -> %d -> %d, faces %d -> %d",
		n.Name, st.VertsInitial, st.VertsWelded, st.VertsDissolved, st.VertsFinal,
		st.FacesInitial, st.FacesFinal)

	if err := m.Validate(); err != nil {
		return nil, st, fmt.Errorf("layer %s: %w", n.Name, err)
	}
	return m, st, nil
}
