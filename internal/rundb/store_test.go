package rundb

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobisoft/dxf2glb/internal/pipeline"
	"github.com/nobisoft/dxf2glb/internal/timeutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		Source:       "floorplan.json",
		Output:       "floorplan.glb",
		OptionsJSON:  json.RawMessage(`{"decimate_ratio":0.5}`),
		Meshes:       2,
		Strands:      5,
		VertsInitial: 960,
		VertsFinal:   240,
		FacesInitial: 1920,
		FacesFinal:   480,
	}
	stats := []pipeline.MeshStats{
		{Name: "WALLS", Strands: 3, VertsInitial: 720, VertsWelded: 700,
			VertsDissolved: 300, VertsFinal: 180, FacesInitial: 1440, FacesFinal: 360, AchievedRatio: 0.25},
		{Name: "DOORS", Strands: 2, Skipped: 1, VertsInitial: 240, VertsWelded: 240,
			VertsDissolved: 120, VertsFinal: 60, FacesInitial: 480, FacesFinal: 120, AchievedRatio: 0.25},
	}
	require.NoError(t, s.RecordRun(run, stats))
	assert.NotEmpty(t, run.RunID, "RunID must be generated when empty")
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "floorplan.json", got.Source)
	assert.Equal(t, "floorplan.glb", got.Output)
	assert.Equal(t, 2, got.Meshes)
	assert.Equal(t, 240, got.VertsFinal)
	assert.JSONEq(t, `{"decimate_ratio":0.5}`, string(got.OptionsJSON))

	layers, err := s.LayerStats(run.RunID)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "WALLS", layers[0].Name)
	assert.Equal(t, "DOORS", layers[1].Name)
	assert.Equal(t, 1, layers[1].Skipped)
	assert.InDelta(t, 0.25, layers[0].AchievedRatio, 1e-12)
}

func TestRecordRun_KeepsExplicitID(t *testing.T) {
	s := openTestStore(t)
	run := &Run{RunID: "fixed-id", CreatedAt: 42}
	require.NoError(t, s.RecordRun(run, nil))
	assert.Equal(t, "fixed-id", run.RunID)

	got, err := s.GetRun("fixed-id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CreatedAt)
	assert.Nil(t, got.OptionsJSON)
}

func TestRecordRun_StampsFromClock(t *testing.T) {
	s := openTestStore(t)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(timeutil.NewFakeClock(frozen))

	run := &Run{RunID: "stamped"}
	require.NoError(t, s.RecordRun(run, nil))
	assert.Equal(t, frozen.UnixNano(), run.CreatedAt)
}

func TestGetRun_Missing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun("no-such-run")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordRun(&Run{RunID: "old", CreatedAt: 100}, nil))
	require.NoError(t, s.RecordRun(&Run{RunID: "new", CreatedAt: 200}, nil))
	require.NoError(t, s.RecordRun(&Run{RunID: "mid", CreatedAt: 150}, nil))

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
	assert.Equal(t, "old", runs[2].RunID)

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].RunID)
}

func TestLayerStats_EmptyRun(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordRun(&Run{RunID: "bare"}, nil))
	layers, err := s.LayerStats("bare")
	require.NoError(t, err)
	assert.Empty(t, layers)
}

func TestMigrations(t *testing.T) {
	s := openTestStore(t)
	dir := filepath.Join("..", "..", "db", "migrations")

	require.NoError(t, s.MigrateUp(dir))
	version, dirty, err := s.MigrateVersion(dir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Up again is a no-op.
	require.NoError(t, s.MigrateUp(dir))

	require.NoError(t, s.MigrateDown(dir))
	version, _, err = s.MigrateVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}
