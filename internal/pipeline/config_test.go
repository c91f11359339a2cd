package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	opts := &Options{}
	assert.Equal(t, 1.0, opts.GetScale())
	assert.Equal(t, 0, opts.GetMaxPolylines())
	assert.True(t, opts.GetMergePerLayer())
	assert.Equal(t, 100_000, opts.GetCenterSampleCap())
	assert.Equal(t, 12, opts.GetResolution())
	assert.Equal(t, 0.5, opts.GetBevelRadius())
	assert.Equal(t, 0.001, opts.GetWeldDistance())
	assert.Equal(t, 0.0872, opts.GetDissolveAngle())
	assert.Equal(t, 0.5, opts.GetDecimateRatio())
	assert.Equal(t, "collapse", string(opts.GetDecimatePolicy()))
	assert.Equal(t, 0, opts.GetWorkers())
}

func TestOptions_Validate(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"empty", Options{}, true},
		{"negative scale", Options{Scale: ptrFloat64(-1)}, false},
		{"zero scale", Options{Scale: ptrFloat64(0)}, false},
		{"resolution too low", Options{Resolution: ptrInt(2)}, false},
		{"negative bevel", Options{BevelRadius: ptrFloat64(-0.1)}, false},
		{"zero bevel ok", Options{BevelRadius: ptrFloat64(0)}, true},
		{"negative weld", Options{WeldDistance: ptrFloat64(-1)}, false},
		{"ratio zero", Options{DecimateRatio: ptrFloat64(0)}, false},
		{"ratio above one", Options{DecimateRatio: ptrFloat64(1.5)}, false},
		{"ratio one ok", Options{DecimateRatio: ptrFloat64(1.0)}, true},
		{"bad policy", Options{DecimatePolicy: ptrString("subdivide")}, false},
		{"dissolve policy ok", Options{DecimatePolicy: ptrString("dissolve")}, true},
		{"negative workers", Options{Workers: ptrInt(-1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"scale": 0.001,
		"decimate_ratio": 0.25,
		"resolution": 6
	}`), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 0.001, opts.GetScale())
	assert.Equal(t, 0.25, opts.GetDecimateRatio())
	assert.Equal(t, 6, opts.GetResolution())
	// Unset fields keep defaults.
	assert.Equal(t, 0.5, opts.GetBevelRadius())
}

func TestLoadOptions_RejectsBadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "pipeline.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
		_, err := LoadOptions(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"decimate_ratio": 2}`), 0o644))
		_, err := LoadOptions(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadOptions(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}
