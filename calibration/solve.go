package calibration

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/sitewalk/poselink/spatialmath"
)

// Singular values smaller than this fraction of the largest one are treated as
// zero when checking the covariance rank.
const degeneracyRatio = 1e-9

// Result is the outcome of a calibration solve: the recovered transform plus
// per-point Euclidean residuals (in input order) and their aggregates.
type Result struct {
	Transform *SimilarityTransform
	Residuals []float64
	MaxError  float64
	MeanError float64
}

// Solve recovers the similarity transform mapping the source points of set
// onto the target points, by the Umeyama least-squares method. It is pure and
// deterministic for a given input order. It returns ErrInsufficientPoints for
// fewer than 3 pairs and ErrDegenerateConfiguration for collinear points.
func Solve(set Set) (*Result, error) {
	n := len(set)
	if n < 3 {
		return nil, errors.Wrapf(ErrInsufficientPoints, "got %d", n)
	}
	for i, pair := range set {
		if !spatialmath.VectorIsFinite(pair.Source) || !spatialmath.VectorIsFinite(pair.Target) {
			return nil, errors.Wrapf(ErrNonFinite, "pair %d", i)
		}
	}

	var srcCentroid, tgtCentroid r3.Vector
	for _, pair := range set {
		srcCentroid = srcCentroid.Add(pair.Source)
		tgtCentroid = tgtCentroid.Add(pair.Target)
	}
	srcCentroid = srcCentroid.Mul(1 / float64(n))
	tgtCentroid = tgtCentroid.Mul(1 / float64(n))

	// Cross-covariance H = sum (tgt_i - tgtC) (src_i - srcC)^T, and the total
	// squared spread of the centered source cloud for the scale estimate.
	h := mat.NewDense(3, 3, nil)
	var srcSpread float64
	for _, pair := range set {
		s := pair.Source.Sub(srcCentroid)
		t := pair.Target.Sub(tgtCentroid)
		srcSpread += s.Norm2()
		h.Set(0, 0, h.At(0, 0)+t.X*s.X)
		h.Set(0, 1, h.At(0, 1)+t.X*s.Y)
		h.Set(0, 2, h.At(0, 2)+t.X*s.Z)
		h.Set(1, 0, h.At(1, 0)+t.Y*s.X)
		h.Set(1, 1, h.At(1, 1)+t.Y*s.Y)
		h.Set(1, 2, h.At(1, 2)+t.Y*s.Z)
		h.Set(2, 0, h.At(2, 0)+t.Z*s.X)
		h.Set(2, 1, h.At(2, 1)+t.Z*s.Y)
		h.Set(2, 2, h.At(2, 2)+t.Z*s.Z)
	}
	if srcSpread < 1e-12 {
		return nil, errors.Wrap(ErrDegenerateConfiguration, "source points are coincident")
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return nil, errors.Wrap(ErrDegenerateConfiguration, "SVD factorization failed")
	}
	values := svd.Values(nil)
	// Collinear points leave the covariance with rank <= 1. A planar cloud
	// (rank 2) is fine; the reflection correction resolves the free axis.
	if values[0] < 1e-12 || values[1] < degeneracyRatio*values[0] {
		return nil, errors.Wrapf(ErrDegenerateConfiguration,
			"singular values %v", values)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Reflection correction: force det(R) = +1 so a mirrored (left-handed)
	// solution is never returned.
	sign := 1.0
	if mat.Det(&u)*mat.Det(&v) < 0 {
		sign = -1.0
	}
	d := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, sign})

	var rotation mat.Dense
	rotation.Product(&u, d, v.T())

	// Least-squares-optimal scale for the fixed rotation: ratio of the matched
	// spread (trace of D*S) to the source spread.
	scale := (values[0] + values[1] + sign*values[2]) / srcSpread
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errors.Wrapf(ErrDegenerateConfiguration, "non-positive scale %v", scale)
	}

	st := NewSimilarityTransform(&rotation, scale, r3.Vector{})
	// Translation carries the rotated, scaled source centroid exactly onto the
	// target centroid.
	st.translation = tgtCentroid.Sub(st.rotate(srcCentroid).Mul(scale))

	result := &Result{Transform: st, Residuals: make([]float64, n)}
	for i, pair := range set {
		residual := st.Apply(pair.Source).Sub(pair.Target).Norm()
		result.Residuals[i] = residual
		result.MeanError += residual
		if residual > result.MaxError {
			result.MaxError = residual
		}
	}
	result.MeanError /= float64(n)
	return result, nil
}
