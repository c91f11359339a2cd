package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobisoft/dxf2glb/internal/pipeline"
)

func sampleStats() []pipeline.MeshStats {
	return []pipeline.MeshStats{
		{Name: "WALLS", VertsInitial: 1000, VertsFinal: 250},
		{Name: "DOORS", VertsInitial: 400, VertsFinal: 200},
	}
}

func TestReductionDigest(t *testing.T) {
	d := ReductionDigest(sampleStats())
	assert.Equal(t, 2, d.Layers)
	// Reductions are 0.75 and 0.5.
	assert.InDelta(t, 0.625, d.MeanReduction, 1e-12)
	assert.InDelta(t, 0.5, d.MinReduction, 1e-12)
	assert.InDelta(t, 0.75, d.MaxReduction, 1e-12)
	assert.Greater(t, d.StdDev, 0.0)
}

func TestReductionDigest_Empty(t *testing.T) {
	d := ReductionDigest(nil)
	assert.Equal(t, 0, d.Layers)
	assert.Equal(t, 0.0, d.MeanReduction)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "floorplan", sampleStats()))

	html := buf.String()
	assert.True(t, strings.Contains(html, "WALLS"), "layer names appear in the chart")
	assert.True(t, strings.Contains(html, "DOORS"))
	assert.True(t, strings.Contains(html, "initial"), "series names appear")
	assert.True(t, strings.Contains(html, "final"))
}

func TestWriteHTML_NoStats(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteHTML(&buf, "x", nil), ErrNoStats)
}

func TestSaveHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, SaveHTML(path, "floorplan", sampleStats()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.png")
	require.NoError(t, SavePNG(path, "floorplan", sampleStats()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSavePNG_NoStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.png")
	assert.ErrorIs(t, SavePNG(path, "x", nil), ErrNoStats)
}
