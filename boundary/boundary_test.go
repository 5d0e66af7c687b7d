package boundary

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func square(t *testing.T, margin float64) *Polygon {
	t.Helper()
	pg, err := NewPolygon([]r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, margin)
	test.That(t, err, test.ShouldBeNil)
	return pg
}

func TestNewPolygonValidation(t *testing.T) {
	_, err := NewPolygon([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, 0)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPolygon([]r2.Point{{}, {X: 1}, {Y: 1}}, -1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsInside(t *testing.T) {
	pg := square(t, 0.1)

	test.That(t, pg.IsInside(pg.Centroid()), test.ShouldBeTrue)
	test.That(t, pg.IsInside(r2.Point{X: 5, Y: 5}), test.ShouldBeTrue)
	test.That(t, pg.IsInside(r2.Point{X: 100, Y: 100}), test.ShouldBeFalse)
	test.That(t, pg.IsInside(r2.Point{X: -0.01, Y: 5}), test.ShouldBeFalse)
}

func TestIsInsideConcave(t *testing.T) {
	// A U-shaped boundary: the notch is outside even though it is inside the
	// convex hull.
	pg, err := NewPolygon([]r2.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 6, Y: 10},
		{X: 6, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 10}, {X: 0, Y: 10},
	}, 0.1)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, pg.IsInside(r2.Point{X: 5, Y: 8}), test.ShouldBeFalse)
	test.That(t, pg.IsInside(r2.Point{X: 2, Y: 8}), test.ShouldBeTrue)
	test.That(t, pg.IsInside(r2.Point{X: 5, Y: 2}), test.ShouldBeTrue)
}

func TestClamp(t *testing.T) {
	pg := square(t, 0.5)

	inside := r2.Point{X: 3, Y: 7}
	res := pg.Clamp(inside)
	test.That(t, res.WasClamped, test.ShouldBeFalse)
	test.That(t, res.Distance, test.ShouldEqual, 0)
	test.That(t, res.Point, test.ShouldResemble, inside)

	outside := r2.Point{X: 15, Y: 5}
	res = pg.Clamp(outside)
	test.That(t, res.WasClamped, test.ShouldBeTrue)
	test.That(t, res.Distance, test.ShouldAlmostEqual, 5)
	test.That(t, pg.IsInside(res.Point), test.ShouldBeTrue)
	// Nearest edge point is (10, 5); the margin pulls toward the centroid.
	test.That(t, res.Point.X, test.ShouldBeLessThan, 10)
	test.That(t, res.Point.X, test.ShouldBeGreaterThan, 9)
	test.That(t, res.Point.Y, test.ShouldAlmostEqual, 5, 0.01)
}

func TestClampIdempotent(t *testing.T) {
	pg := square(t, 0.5)

	inside := r2.Point{X: 2, Y: 2}
	test.That(t, pg.Clamp(pg.Clamp(inside).Point).Point, test.ShouldResemble, inside)

	outside := r2.Point{X: -4, Y: 20}
	once := pg.Clamp(outside)
	twice := pg.Clamp(once.Point)
	test.That(t, twice.WasClamped, test.ShouldBeFalse)
	test.That(t, twice.Point, test.ShouldResemble, once.Point)
}
