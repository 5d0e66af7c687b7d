package calibration

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func rotate90Z(p r3.Vector) r3.Vector {
	return r3.Vector{X: -p.Y, Y: p.X, Z: p.Z}
}

func TestSolveExact(t *testing.T) {
	// Points related by scale 2, a 90 degree rotation about Z and a known
	// translation must be recovered with near-zero residuals.
	scale := 2.0
	translation := r3.Vector{X: 1, Y: 2, Z: 3}
	sources := []r3.Vector{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 3, Y: -2, Z: 0.5}}
	set := make(Set, len(sources))
	for i, s := range sources {
		set[i] = CorrespondencePair{Source: s, Target: rotate90Z(s).Mul(scale).Add(translation)}
	}

	result, err := Solve(set)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Transform.Scale(), test.ShouldAlmostEqual, scale, 1e-9)
	test.That(t, result.Transform.Translation().X, test.ShouldAlmostEqual, translation.X, 1e-9)
	test.That(t, result.Transform.Translation().Y, test.ShouldAlmostEqual, translation.Y, 1e-9)
	test.That(t, result.Transform.Translation().Z, test.ShouldAlmostEqual, translation.Z, 1e-9)
	test.That(t, result.MaxError, test.ShouldBeLessThan, 1e-4)
	test.That(t, result.MeanError, test.ShouldBeLessThan, 1e-4)
	test.That(t, len(result.Residuals), test.ShouldEqual, len(set))

	r := result.Transform.Rotation()
	test.That(t, mat.Det(r), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, r.At(0, 1), test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, r.At(1, 0), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, r.At(2, 2), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestSolveExactThreePoints(t *testing.T) {
	// The minimum configuration: three noise-free points under a known
	// transform are recovered with residuals under 1e-4.
	scale := 1.5
	translation := r3.Vector{X: -3, Y: 0.5, Z: 12}
	sources := []r3.Vector{{X: 1, Y: 1}, {X: 4, Y: -2}, {X: -1, Y: 3}}
	set := make(Set, len(sources))
	for i, s := range sources {
		set[i] = CorrespondencePair{Source: s, Target: rotate90Z(s).Mul(scale).Add(translation)}
	}

	result, err := Solve(set)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Transform.Scale(), test.ShouldAlmostEqual, scale, 1e-9)
	test.That(t, result.MaxError, test.ShouldBeLessThan, 1e-4)
	test.That(t, mat.Det(result.Transform.Rotation()), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestSolveProperties(t *testing.T) {
	// The three-pair site survey scenario: the solve must be deterministic and
	// yield a proper-orthogonal rotation with positive scale.
	set := Set{
		{Source: r3.Vector{}, Target: r3.Vector{X: 19, Y: 35}},
		{Source: r3.Vector{X: 10}, Target: r3.Vector{X: 21, Y: 17}},
		{Source: r3.Vector{Y: 10}, Target: r3.Vector{X: 13, Y: 13}},
	}

	result, err := Solve(set)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Transform.Scale(), test.ShouldBeGreaterThan, 0)

	r := result.Transform.Rotation()
	test.That(t, mat.Det(r), test.ShouldAlmostEqual, 1, 1e-9)
	// R^T R == I within tolerance.
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			test.That(t, rtr.At(i, j), test.ShouldAlmostEqual, want, 1e-9)
		}
	}

	// Deterministic across runs: no randomness anywhere in the solver.
	again, err := Solve(set)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Transform.Scale(), test.ShouldEqual, result.Transform.Scale())
	test.That(t, again.Transform.Translation(), test.ShouldResemble, result.Transform.Translation())
	test.That(t, again.Residuals, test.ShouldResemble, result.Residuals)
}

func TestSolveErrors(t *testing.T) {
	_, err := Solve(Set{
		{Source: r3.Vector{}, Target: r3.Vector{X: 1}},
		{Source: r3.Vector{X: 1}, Target: r3.Vector{X: 2}},
	})
	test.That(t, errors.Is(err, ErrInsufficientPoints), test.ShouldBeTrue)

	// Collinear sources leave the covariance rank-deficient.
	collinear := Set{
		{Source: r3.Vector{}, Target: r3.Vector{}},
		{Source: r3.Vector{X: 1}, Target: r3.Vector{X: 2}},
		{Source: r3.Vector{X: 2}, Target: r3.Vector{X: 4}},
	}
	_, err = Solve(collinear)
	test.That(t, errors.Is(err, ErrDegenerateConfiguration), test.ShouldBeTrue)

	coincident := Set{
		{Source: r3.Vector{X: 1}, Target: r3.Vector{}},
		{Source: r3.Vector{X: 1}, Target: r3.Vector{X: 1}},
		{Source: r3.Vector{X: 1}, Target: r3.Vector{Y: 1}},
	}
	_, err = Solve(coincident)
	test.That(t, errors.Is(err, ErrDegenerateConfiguration), test.ShouldBeTrue)

	nonFinite := Set{
		{Source: r3.Vector{X: math.NaN()}, Target: r3.Vector{}},
		{Source: r3.Vector{X: 1}, Target: r3.Vector{X: 1}},
		{Source: r3.Vector{Y: 1}, Target: r3.Vector{Y: 1}},
	}
	_, err = Solve(nonFinite)
	test.That(t, errors.Is(err, ErrNonFinite), test.ShouldBeTrue)
}

func TestApplyInverseRoundTrip(t *testing.T) {
	set := Set{
		{Source: r3.Vector{}, Target: r3.Vector{X: 19, Y: 35}},
		{Source: r3.Vector{X: 10}, Target: r3.Vector{X: 21, Y: 17}},
		{Source: r3.Vector{Y: 10}, Target: r3.Vector{X: 13, Y: 13}},
	}
	result, err := Solve(set)
	test.That(t, err, test.ShouldBeNil)
	st := result.Transform

	for _, p := range []r3.Vector{{}, {X: 5, Y: -3, Z: 2}, {X: -100, Y: 42, Z: 7.5}} {
		back := st.ApplyInverse(st.Apply(p))
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, 1e-9)
		test.That(t, back.Z, test.ShouldAlmostEqual, p.Z, 1e-9)
	}
}

func TestRotationQuaternion(t *testing.T) {
	// 90 degrees about Z as a matrix converts to the matching unit quaternion.
	st := NewSimilarityTransform(
		mat.NewDense(3, 3, []float64{0, -1, 0, 1, 0, 0, 0, 0, 1}), 1, r3.Vector{})
	q := st.RotationQuaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/4), 1e-9)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sin(math.Pi/4), 1e-9)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, q.Jmag, test.ShouldAlmostEqual, 0, 1e-9)

	identity := NewIdentityTransform()
	test.That(t, identity.RotationQuaternion().Real, test.ShouldAlmostEqual, 1)
}
