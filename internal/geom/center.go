package geom

import (
	"errors"
	"math"
)

// DefaultCenterSampleCap bounds the number of points scanned when computing
// the auto-center. Drawings routinely carry millions of polyline vertices;
// the bounding box of the first 100k points is close enough, because
// centering only exists to keep coordinates numerically well-conditioned.
const DefaultCenterSampleCap = 100_000

// ErrEmptyInput is returned when a polyline set has no points to center on.
var ErrEmptyInput = errors.New("polyline set has no points")

// CalculateCenter returns the midpoint of the axis-aligned bounding box of
// the set's points, scanning at most sampleCap points in input order.
// A sampleCap <= 0 uses DefaultCenterSampleCap. The result is computed once
// per run and must be reused for every layer; recomputing it per layer
// would break relative alignment across layers.
func CalculateCenter(set *PolylineSet, sampleCap int) (Point3, error) {
	if sampleCap <= 0 {
		sampleCap = DefaultCenterSampleCap
	}

	min := Point3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := Point3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

	count := 0
scan:
	for i := range set.Polylines {
		for _, p := range set.Polylines[i].Points {
			min.X = math.Min(min.X, p.X)
			min.Y = math.Min(min.Y, p.Y)
			min.Z = math.Min(min.Z, p.Z)
			max.X = math.Max(max.X, p.X)
			max.Y = math.Max(max.Y, p.Y)
			max.Z = math.Max(max.Z, p.Z)
			count++
			if count >= sampleCap {
				break scan
			}
		}
	}

	if count == 0 {
		return Point3{}, ErrEmptyInput
	}

	return Point3{
		X: (min.X + max.X) / 2,
		Y: (min.Y + max.Y) / 2,
		Z: (min.Z + max.Z) / 2,
	}, nil
}
