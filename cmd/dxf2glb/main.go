// Command dxf2glb converts extracted DXF polylines (JSON) into a simplified
// binary glTF scene. It runs the full pipeline: auto-centering, per-layer
// tube meshing, weld/dissolve/decimate simplification, and GLB export, with
// optional run persistence and HTML/PNG reporting.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nobisoft/dxf2glb/internal/geom"
	"github.com/nobisoft/dxf2glb/internal/glb"
	"github.com/nobisoft/dxf2glb/internal/pipeline"
	"github.com/nobisoft/dxf2glb/internal/report"
	"github.com/nobisoft/dxf2glb/internal/rundb"
	"github.com/nobisoft/dxf2glb/internal/version"
)

var (
	input      = flag.String("input", "", "Path to the polyline JSON document (required)")
	output     = flag.String("output", "", "Path for the GLB scene (default: input with .glb extension)")
	configPath = flag.String("config", "", "Path to a pipeline options JSON file")

	scale        = flag.Float64("scale", 1.0, "Uniform scale applied after centering")
	resolution   = flag.Int("resolution", 12, "Tube cross-section side count")
	bevel        = flag.Float64("bevel", 0.5, "Tube radius; 0 exports wire meshes")
	weld         = flag.Float64("weld", 0.001, "Vertex weld distance")
	dissolve     = flag.Float64("dissolve", 0.0872, "Limited-dissolve angle in radians")
	ratio        = flag.Float64("ratio", 0.5, "Decimation face-count ratio in (0, 1]")
	policy       = flag.String("policy", "collapse", "Decimation policy: collapse or dissolve")
	workers      = flag.Int("workers", 0, "Layer workers; 0 means one per CPU")
	maxPolylines = flag.Int("max-polylines", 0, "Process only the first N polylines; 0 means all")
	merge        = flag.Bool("merge", true, "Merge each layer into one mesh")

	dbPath      = flag.String("rundb", "", "Record the run in this sqlite database")
	htmlPath    = flag.String("report", "", "Write an HTML report to this path")
	pngPath     = flag.String("plot", "", "Write a PNG chart to this path")
	verbose     = flag.Bool("v", false, "Enable per-layer diagnostic logging")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("dxf2glb %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *input == "" {
		flag.Usage()
		log.Fatal("input path is required")
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(*input, filepath.Ext(*input)) + ".glb"
	}

	opts, err := buildOptions()
	if err != nil {
		log.Fatalf("invalid options: %v", err)
	}

	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := geom.LoadFile(*input)
	if err != nil {
		log.Fatalf("load %s: %v", *input, err)
	}
	log.Printf("loaded %d polylines (%d points) from %s",
		len(set.Polylines), set.PointCount(), *input)

	start := time.Now()
	result, err := pipeline.Run(ctx, set, opts)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	elapsed := time.Since(start)

	if err := glb.Export(outPath, result.Meshes); err != nil {
		log.Fatalf("export: %v", err)
	}

	sum := result.Summary()
	log.Printf("wrote %s: %d meshes, %d -> %d vertices (%.1f%% reduction) in %s",
		outPath, sum.Meshes, sum.VertsInitial, sum.VertsFinal,
		sum.Reduction()*100, elapsed.Round(time.Millisecond))

	if *dbPath != "" {
		if err := recordRun(opts, result, outPath); err != nil {
			log.Fatalf("record run: %v", err)
		}
	}

	title := filepath.Base(*input)
	if *htmlPath != "" {
		if err := report.SaveHTML(*htmlPath, title, result.Stats); err != nil {
			log.Fatalf("report: %v", err)
		}
		log.Printf("wrote report %s", *htmlPath)
	}
	if *pngPath != "" {
		if err := report.SavePNG(*pngPath, title, result.Stats); err != nil {
			log.Fatalf("plot: %v", err)
		}
		log.Printf("wrote plot %s", *pngPath)
	}
}

// buildOptions merges the config file with command-line overrides. Flags
// the user set explicitly win over the file; flags left at their default
// fall back to the file, then to the pipeline defaults.
func buildOptions() (*pipeline.Options, error) {
	opts := &pipeline.Options{}
	if *configPath != "" {
		loaded, err := pipeline.LoadOptions(*configPath)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			opts.Scale = scale
		case "resolution":
			opts.Resolution = resolution
		case "bevel":
			opts.BevelRadius = bevel
		case "weld":
			opts.WeldDistance = weld
		case "dissolve":
			opts.DissolveAngle = dissolve
		case "ratio":
			opts.DecimateRatio = ratio
		case "policy":
			opts.DecimatePolicy = policy
		case "workers":
			opts.Workers = workers
		case "max-polylines":
			opts.MaxPolylines = maxPolylines
		case "merge":
			opts.MergePerLayer = merge
		}
	})

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func recordRun(opts *pipeline.Options, result *pipeline.Result, outPath string) error {
	store, err := rundb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	sum := result.Summary()
	run := &rundb.Run{
		Source:           *input,
		Output:           outPath,
		OptionsJSON:      optionsJSON,
		Meshes:           sum.Meshes,
		Strands:          sum.Strands,
		SkippedPolylines: sum.SkippedPolylines,
		VertsInitial:     sum.VertsInitial,
		VertsFinal:       sum.VertsFinal,
		FacesInitial:     sum.FacesInitial,
		FacesFinal:       sum.FacesFinal,
	}
	if err := store.RecordRun(run, result.Stats); err != nil {
		return err
	}
	log.Printf("recorded run %s in %s", run.RunID, *dbPath)
	return nil
}
