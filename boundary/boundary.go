// Package boundary guards navigation against leaving the 2D site boundary: a
// ray-cast point-in-polygon test and a nearest-edge clamp that pulls outside
// points back in with a safety margin.
package boundary

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Polygon is a simple closed polygon over site-plan coordinates. The closing
// edge from the last vertex back to the first is implicit.
type Polygon struct {
	vertices []r2.Point
	centroid r2.Point
	// margin is how far inside the boundary clamped points land, in meters.
	margin float64
}

// NewPolygon builds a polygon from at least 3 vertices. margin is the safety
// distance clamped points are offset inward, toward the centroid.
func NewPolygon(vertices []r2.Point, margin float64) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, errors.Errorf("polygon requires at least 3 vertices, got %d", len(vertices))
	}
	if margin < 0 {
		return nil, errors.New("safety margin cannot be negative")
	}
	var centroid r2.Point
	for _, v := range vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return nil, errors.Errorf("polygon vertex %v is not finite", v)
		}
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(len(vertices)))
	out := make([]r2.Point, len(vertices))
	copy(out, vertices)
	return &Polygon{vertices: out, centroid: centroid, margin: margin}, nil
}

// Centroid returns the vertex centroid, a guaranteed interior reference point
// for convex boundaries.
func (pg *Polygon) Centroid() r2.Point {
	return pg.centroid
}

// IsInside reports whether pt lies inside the polygon, by edge-crossing parity
// of a ray cast in +X. Runs in O(edges).
func (pg *Polygon) IsInside(pt r2.Point) bool {
	inside := false
	n := len(pg.vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := pg.vertices[i], pg.vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// ClampResult reports the outcome of a Clamp call. Distance is how far the
// query point was from the boundary before clamping; it is zero when no
// clamping occurred.
type ClampResult struct {
	Point      r2.Point
	WasClamped bool
	Distance   float64
}

// Clamp returns pt unchanged when it is inside the boundary. Otherwise it
// projects pt onto the nearest edge and offsets the projection inward by the
// safety margin, toward the centroid. Clamping is idempotent.
func (pg *Polygon) Clamp(pt r2.Point) ClampResult {
	if pg.IsInside(pt) {
		return ClampResult{Point: pt}
	}

	nearest := pg.vertices[0]
	best := math.Inf(1)
	n := len(pg.vertices)
	for i := 0; i < n; i++ {
		a := pg.vertices[i]
		b := pg.vertices[(i+1)%n]
		candidate := closestOnSegment(pt, a, b)
		if d := candidate.Sub(pt).Norm(); d < best {
			best = d
			nearest = candidate
		}
	}

	inward := pg.centroid.Sub(nearest)
	if norm := inward.Norm(); norm > 1e-12 {
		nearest = nearest.Add(inward.Mul(pg.margin / norm))
	}
	return ClampResult{Point: nearest, WasClamped: true, Distance: best}
}

// closestOnSegment projects pt onto segment ab, clamped to its endpoints.
func closestOnSegment(pt, a, b r2.Point) r2.Point {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom == 0 {
		return a
	}
	t := pt.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Mul(t))
}
