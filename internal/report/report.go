// Package report renders run telemetry as human-readable artifacts: an HTML
// bar chart of per-layer vertex counts and a PNG fallback for environments
// without a browser.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/nobisoft/dxf2glb/internal/pipeline"
)

// ErrNoStats is returned when there is no telemetry to report on.
var ErrNoStats = errors.New("report: no layer stats")

// Digest summarizes the distribution of per-layer vertex reductions.
type Digest struct {
	Layers        int
	MeanReduction float64
	StdDev        float64
	MinReduction  float64
	MaxReduction  float64
}

// ReductionDigest computes the reduction distribution across layers.
func ReductionDigest(stats []pipeline.MeshStats) Digest {
	d := Digest{Layers: len(stats)}
	if len(stats) == 0 {
		return d
	}
	reductions := make([]float64, len(stats))
	for i := range stats {
		reductions[i] = stats[i].Reduction()
	}
	d.MeanReduction = stat.Mean(reductions, nil)
	d.StdDev = stat.StdDev(reductions, nil)
	d.MinReduction = reductions[0]
	d.MaxReduction = reductions[0]
	for _, r := range reductions[1:] {
		if r < d.MinReduction {
			d.MinReduction = r
		}
		if r > d.MaxReduction {
			d.MaxReduction = r
		}
	}
	return d
}

// WriteHTML renders a grouped bar chart of per-layer vertex counts before
// and after simplification.
func WriteHTML(w io.Writer, title string, stats []pipeline.MeshStats) error {
	if len(stats) == 0 {
		return ErrNoStats
	}

	x := make([]string, len(stats))
	initial := make([]opts.BarData, len(stats))
	final := make([]opts.BarData, len(stats))
	for i := range stats {
		x[i] = stats[i].Name
		initial[i] = opts.BarData{Value: stats[i].VertsInitial}
		final[i] = opts.BarData{Value: stats[i].VertsFinal}
	}

	d := ReductionDigest(stats)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1080px", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Vertex reduction by layer",
			Subtitle: fmt.Sprintf("%s: mean reduction %.1f%% across %d layers", title, d.MeanReduction*100, d.Layers),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("initial", initial,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("final", final,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render HTML: %w", err)
	}
	return nil
}

// SaveHTML writes the HTML report to a file.
func SaveHTML(path, title string, stats []pipeline.MeshStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteHTML(f, title, stats); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", path, err)
	}
	return nil
}

// SavePNG renders the same per-layer comparison as a static PNG.
func SavePNG(path, title string, stats []pipeline.MeshStats) error {
	if len(stats) == 0 {
		return ErrNoStats
	}

	names := make([]string, len(stats))
	initial := make(plotter.Values, len(stats))
	final := make(plotter.Values, len(stats))
	for i := range stats {
		names[i] = stats[i].Name
		initial[i] = float64(stats[i].VertsInitial)
		final[i] = float64(stats[i].VertsFinal)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "vertices"

	barWidth := vg.Points(18)
	initialBars, err := plotter.NewBarChart(initial, barWidth)
	if err != nil {
		return fmt.Errorf("report: initial bars: %w", err)
	}
	initialBars.Color = color.RGBA{R: 120, G: 120, B: 220, A: 255}
	initialBars.Offset = -barWidth / 2

	finalBars, err := plotter.NewBarChart(final, barWidth)
	if err != nil {
		return fmt.Errorf("report: final bars: %w", err)
	}
	finalBars.Color = color.RGBA{R: 100, G: 200, B: 120, A: 255}
	finalBars.Offset = barWidth / 2

	p.Add(initialBars, finalBars)
	p.Legend.Add("initial", initialBars)
	p.Legend.Add("final", finalBars)
	p.Legend.Top = true
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
