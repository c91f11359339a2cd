package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nobisoft/dxf2glb/internal/geom"
	"github.com/nobisoft/dxf2glb/internal/mesh"
)

// Options is the full configuration surface of the conversion pipeline.
// Fields are pointers so a JSON file can override any subset; the Get*
// accessors supply the defaults for everything left unset, so partial
// configs are safe.
type Options struct {
	// Geometry
	Scale           *float64 `json:"scale,omitempty"`
	MaxPolylines    *int     `json:"max_polylines,omitempty"`
	MergePerLayer   *bool    `json:"merge_per_layer,omitempty"`
	CenterSampleCap *int     `json:"center_sample_cap,omitempty"`

	// Tube profile
	Resolution  *int     `json:"resolution,omitempty"`
	BevelRadius *float64 `json:"bevel_radius,omitempty"`

	// Simplification
	WeldDistance   *float64 `json:"weld_distance,omitempty"`
	DissolveAngle  *float64 `json:"dissolve_angle,omitempty"`
	DecimateRatio  *float64 `json:"decimate_ratio,omitempty"`
	DecimatePolicy *string  `json:"decimate_policy,omitempty"` // "collapse" or "dissolve"

	// Execution
	Workers *int `json:"workers,omitempty"`
}

// LoadOptions loads Options from a JSON file. Fields omitted from the file
// keep their defaults.
func LoadOptions(path string) (*Options, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	opts := &Options{}
	if err := json.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}

// Validate checks that every set field is within range.
func (o *Options) Validate() error {
	if o.Scale != nil && *o.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", *o.Scale)
	}
	if o.MaxPolylines != nil && *o.MaxPolylines < 0 {
		return fmt.Errorf("max_polylines must be non-negative, got %d", *o.MaxPolylines)
	}
	if o.Resolution != nil && *o.Resolution < 3 {
		return fmt.Errorf("resolution must be at least 3, got %d", *o.Resolution)
	}
	if o.BevelRadius != nil && *o.BevelRadius < 0 {
		return fmt.Errorf("bevel_radius must be non-negative, got %v", *o.BevelRadius)
	}
	if o.WeldDistance != nil && *o.WeldDistance < 0 {
		return fmt.Errorf("weld_distance must be non-negative, got %v", *o.WeldDistance)
	}
	if o.DissolveAngle != nil && *o.DissolveAngle < 0 {
		return fmt.Errorf("dissolve_angle must be non-negative, got %v", *o.DissolveAngle)
	}
	if o.DecimateRatio != nil && (*o.DecimateRatio <= 0 || *o.DecimateRatio > 1) {
		return fmt.Errorf("decimate_ratio must be in (0, 1], got %v", *o.DecimateRatio)
	}
	if o.DecimatePolicy != nil {
		switch mesh.Policy(*o.DecimatePolicy) {
		case mesh.PolicyCollapse, mesh.PolicyPlanar:
		default:
			return fmt.Errorf("decimate_policy must be %q or %q, got %q",
				mesh.PolicyCollapse, mesh.PolicyPlanar, *o.DecimatePolicy)
		}
	}
	if o.Workers != nil && *o.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *o.Workers)
	}
	return nil
}

// GetScale returns the uniform scale factor or the default.
func (o *Options) GetScale() float64 {
	if o.Scale == nil {
		return 1.0
	}
	return *o.Scale
}

// GetMaxPolylines returns the polyline cap, 0 meaning no cap.
func (o *Options) GetMaxPolylines() int {
	if o.MaxPolylines == nil {
		return 0
	}
	return *o.MaxPolylines
}

// GetMergePerLayer returns whether each layer merges into one mesh.
func (o *Options) GetMergePerLayer() bool {
	if o.MergePerLayer == nil {
		return true
	}
	return *o.MergePerLayer
}

// GetCenterSampleCap returns the centering sample cap.
func (o *Options) GetCenterSampleCap() int {
	if o.CenterSampleCap == nil {
		return geom.DefaultCenterSampleCap
	}
	return *o.CenterSampleCap
}

// GetResolution returns the tube cross-section side count.
func (o *Options) GetResolution() int {
	if o.Resolution == nil {
		return 12
	}
	return *o.Resolution
}

// GetBevelRadius returns the tube cross-section radius.
func (o *Options) GetBevelRadius() float64 {
	if o.BevelRadius == nil {
		return 0.5
	}
	return *o.BevelRadius
}

// GetWeldDistance returns the vertex weld distance.
func (o *Options) GetWeldDistance() float64 {
	if o.WeldDistance == nil {
		return 0.001
	}
	return *o.WeldDistance
}

// GetDissolveAngle returns the limited-dissolve angle in radians, roughly
// five degrees by default.
func (o *Options) GetDissolveAngle() float64 {
	if o.DissolveAngle == nil {
		return 0.0872
	}
	return *o.DissolveAngle
}

// GetDecimateRatio returns the decimation face-count ratio.
func (o *Options) GetDecimateRatio() float64 {
	if o.DecimateRatio == nil {
		return 0.5
	}
	return *o.DecimateRatio
}

// GetDecimatePolicy returns the decimation policy.
func (o *Options) GetDecimatePolicy() mesh.Policy {
	if o.DecimatePolicy == nil {
		return mesh.PolicyCollapse
	}
	return mesh.Policy(*o.DecimatePolicy)
}

// GetWorkers returns the layer worker count, 0 meaning one per CPU.
func (o *Options) GetWorkers() int {
	if o.Workers == nil {
		return 0
	}
	return *o.Workers
}

// Profile returns the tube profile described by the options.
func (o *Options) Profile() mesh.Profile {
	return mesh.Profile{Resolution: o.GetResolution(), BevelRadius: o.GetBevelRadius()}
}
