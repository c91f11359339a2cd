// Package rundb persists conversion run records and per-layer telemetry in
// a sqlite database, so successive runs over the same drawing can be
// compared.
package rundb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nobisoft/dxf2glb/internal/pipeline"
	"github.com/nobisoft/dxf2glb/internal/timeutil"
)

// Run is one persisted pipeline execution: where the polylines came from,
// where the scene went, the options used, and the aggregate counts.
type Run struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	Output      string          `json:"output"`
	OptionsJSON json.RawMessage `json:"options_json,omitempty"`

	Meshes           int `json:"meshes"`
	Strands          int `json:"strands"`
	SkippedPolylines int `json:"skipped_polylines"`
	VertsInitial     int `json:"verts_initial"`
	VertsFinal       int `json:"verts_final"`
	FacesInitial     int `json:"faces_initial"`
	FacesFinal       int `json:"faces_final"`

	CreatedAt int64 `json:"created_at"`
}

// Store provides persistence for conversion runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// SetClock replaces the time source used for generated CreatedAt stamps.
func (s *Store) SetClock(clock timeutil.Clock) {
	s.clock = clock
}

// Open opens (creating if needed) the run database at path and ensures the
// baseline schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			source            TEXT,
			output            TEXT,
			options_json      TEXT,
			meshes            BIGINT,
			strands           BIGINT,
			skipped_polylines BIGINT,
			verts_initial     BIGINT,
			verts_final       BIGINT,
			faces_initial     BIGINT,
			faces_final       BIGINT,
			created_at        BIGINT
		);
		CREATE TABLE IF NOT EXISTS run_layers (
			run_id            TEXT,
			name              TEXT,
			strands           BIGINT,
			skipped           BIGINT,
			verts_initial     BIGINT,
			verts_welded      BIGINT,
			verts_dissolved   BIGINT,
			verts_final       BIGINT,
			faces_initial     BIGINT,
			faces_final       BIGINT,
			achieved_ratio    DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_run_layers_run ON run_layers (run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create run schema: %w", err)
	}

	return &Store{db: db, clock: timeutil.RealClock{}}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a run and its per-layer stats in one transaction. If
// RunID is empty, a UUID is generated; if CreatedAt is zero, the current
// time is used.
func (s *Store) RecordRun(run *Run, stats []pipeline.MeshStats) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var optionsStr interface{}
	if len(run.OptionsJSON) > 0 {
		optionsStr = string(run.OptionsJSON)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin run insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, source, output, options_json,
			meshes, strands, skipped_polylines,
			verts_initial, verts_final, faces_initial, faces_final,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.Output, optionsStr,
		run.Meshes, run.Strands, run.SkippedPolylines,
		run.VertsInitial, run.VertsFinal, run.FacesInitial, run.FacesFinal,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range stats {
		st := &stats[i]
		_, err = tx.Exec(`
			INSERT INTO run_layers (
				run_id, name, strands, skipped,
				verts_initial, verts_welded, verts_dissolved, verts_final,
				faces_initial, faces_final, achieved_ratio
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, st.Name, st.Strands, st.Skipped,
			st.VertsInitial, st.VertsWelded, st.VertsDissolved, st.VertsFinal,
			st.FacesInitial, st.FacesFinal, st.AchievedRatio,
		)
		if err != nil {
			return fmt.Errorf("insert layer %s: %w", st.Name, err)
		}
	}

	return tx.Commit()
}

// GetRun returns a single run by ID, or sql.ErrNoRows if absent.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source, output, options_json,
		       meshes, strands, skipped_polylines,
		       verts_initial, verts_final, faces_initial, faces_final,
		       created_at
		FROM runs
		WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns up to limit runs, most recent first. A non-positive
// limit returns everything.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT run_id, source, output, options_json,
		       meshes, strands, skipped_polylines,
		       verts_initial, verts_final, faces_initial, faces_final,
		       created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LayerStats returns the per-layer telemetry recorded for a run, in
// insertion order.
func (s *Store) LayerStats(runID string) ([]pipeline.MeshStats, error) {
	rows, err := s.db.Query(`
		SELECT name, strands, skipped,
		       verts_initial, verts_welded, verts_dissolved, verts_final,
		       faces_initial, faces_final, achieved_ratio
		FROM run_layers
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query layer stats: %w", err)
	}
	defer rows.Close()

	var stats []pipeline.MeshStats
	for rows.Next() {
		var st pipeline.MeshStats
		err := rows.Scan(
			&st.Name, &st.Strands, &st.Skipped,
			&st.VertsInitial, &st.VertsWelded, &st.VertsDissolved, &st.VertsFinal,
			&st.FacesInitial, &st.FacesFinal, &st.AchievedRatio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan layer stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var optionsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.Source, &r.Output, &optionsStr,
		&r.Meshes, &r.Strands, &r.SkippedPolylines,
		&r.VertsInitial, &r.VertsFinal, &r.FacesInitial, &r.FacesFinal,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if optionsStr.Valid && optionsStr.String != "" {
		r.OptionsJSON = json.RawMessage(optionsStr.String)
	}
	return &r, nil
}
