package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoPolylines is returned when the input document is well-formed but
// contains no polylines at all.
var ErrNoPolylines = errors.New("input document contains no polylines")

// document mirrors the extractor's JSON output. Points arrive as raw
// [x, y, z] triples; closed and layer carry the documented defaults.
type document struct {
	Polylines []documentPolyline `json:"polylines"`
	Stats     json.RawMessage    `json:"stats,omitempty"`
}

type documentPolyline struct {
	Points [][]float64 `json:"points"`
	Closed bool        `json:"closed,omitempty"`
	Layer  string      `json:"layer,omitempty"`
}

// Load reads a polyline document from r. Malformed JSON or a point entry
// with the wrong arity is a fatal input error; a document with zero
// polylines returns ErrNoPolylines.
func Load(r io.Reader) (*PolylineSet, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode polyline document: %w", err)
	}
	if len(doc.Polylines) == 0 {
		return nil, ErrNoPolylines
	}

	set := &PolylineSet{
		Polylines: make([]Polyline, 0, len(doc.Polylines)),
		Stats:     doc.Stats,
	}
	for i, dp := range doc.Polylines {
		pl := Polyline{
			Points: make([]Point3, 0, len(dp.Points)),
			Closed: dp.Closed,
			Layer:  dp.Layer,
		}
		if pl.Layer == "" {
			pl.Layer = DefaultLayer
		}
		for j, coords := range dp.Points {
			if len(coords) != 3 {
				return nil, fmt.Errorf("polyline %d point %d: expected 3 coordinates, got %d", i, j, len(coords))
			}
			pl.Points = append(pl.Points, Point3{X: coords[0], Y: coords[1], Z: coords[2]})
		}
		set.Polylines = append(set.Polylines, pl)
	}
	return set, nil
}

// LoadFile opens and decodes a polyline document from disk.
func LoadFile(path string) (*PolylineSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open polyline document: %w", err)
	}
	defer f.Close()
	return Load(f)
}
