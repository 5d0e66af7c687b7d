// Package calibration solves for the similarity transform (rotation, uniform
// scale, translation) aligning one 3D point set onto another from user-entered
// correspondence pairs, using the SVD-based Umeyama method.
package calibration

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/sitewalk/poselink/spatialmath"
)

// CorrespondencePair matches one point in the source frame with the point it
// should map onto in the target frame. Both are in meters.
type CorrespondencePair struct {
	Source r3.Vector
	Target r3.Vector
}

// Set is an ordered sequence of correspondence pairs. Order is irrelevant to
// the solve but preserved for round-trips back to the UI that entered it.
type Set []CorrespondencePair

// SimilarityTransform maps source-frame points onto target-frame points as
// q = scale * R * p + translation. The rotation is proper-orthogonal
// (det = +1) and the scale strictly positive. Instances are immutable once
// built; recalibration produces a replacement rather than mutating in place.
type SimilarityTransform struct {
	rotation    *mat.Dense
	scale       float64
	translation r3.Vector
}

// NewSimilarityTransform builds a transform from its parts. rotation must be a
// 3x3 proper-orthogonal matrix; it is copied, not retained.
func NewSimilarityTransform(rotation *mat.Dense, scale float64, translation r3.Vector) *SimilarityTransform {
	return &SimilarityTransform{
		rotation:    mat.DenseCopyOf(rotation),
		scale:       scale,
		translation: translation,
	}
}

// NewIdentityTransform returns the identity similarity transform.
func NewIdentityTransform() *SimilarityTransform {
	return &SimilarityTransform{
		rotation: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		scale:    1,
	}
}

// Scale returns the uniform scale factor.
func (st *SimilarityTransform) Scale() float64 {
	return st.scale
}

// Translation returns the translation component.
func (st *SimilarityTransform) Translation() r3.Vector {
	return st.translation
}

// Rotation returns a copy of the 3x3 rotation matrix.
func (st *SimilarityTransform) Rotation() *mat.Dense {
	return mat.DenseCopyOf(st.rotation)
}

// Apply maps a source-frame point into the target frame.
func (st *SimilarityTransform) Apply(p r3.Vector) r3.Vector {
	rp := st.rotate(p)
	return rp.Mul(st.scale).Add(st.translation)
}

// ApplyInverse maps a target-frame point back into the source frame. The
// rotation is orthonormal so its inverse is its transpose.
func (st *SimilarityTransform) ApplyInverse(q r3.Vector) r3.Vector {
	d := q.Sub(st.translation).Mul(1 / st.scale)
	r := st.rotation
	return r3.Vector{
		X: r.At(0, 0)*d.X + r.At(1, 0)*d.Y + r.At(2, 0)*d.Z,
		Y: r.At(0, 1)*d.X + r.At(1, 1)*d.Y + r.At(2, 1)*d.Z,
		Z: r.At(0, 2)*d.X + r.At(1, 2)*d.Y + r.At(2, 2)*d.Z,
	}
}

func (st *SimilarityTransform) rotate(p r3.Vector) r3.Vector {
	r := st.rotation
	return r3.Vector{
		X: r.At(0, 0)*p.X + r.At(0, 1)*p.Y + r.At(0, 2)*p.Z,
		Y: r.At(1, 0)*p.X + r.At(1, 1)*p.Y + r.At(1, 2)*p.Z,
		Z: r.At(2, 0)*p.X + r.At(2, 1)*p.Y + r.At(2, 2)*p.Z,
	}
}

// RotationQuaternion returns the rotation component as a unit quaternion.
func (st *SimilarityTransform) RotationQuaternion() quat.Number {
	r := st.rotation
	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{
			Real: s / 4,
			Imag: (r.At(2, 1) - r.At(1, 2)) / s,
			Jmag: (r.At(0, 2) - r.At(2, 0)) / s,
			Kmag: (r.At(1, 0) - r.At(0, 1)) / s,
		}
	case r.At(0, 0) > r.At(1, 1) && r.At(0, 0) > r.At(2, 2):
		s := math.Sqrt(1+r.At(0, 0)-r.At(1, 1)-r.At(2, 2)) * 2
		q = quat.Number{
			Real: (r.At(2, 1) - r.At(1, 2)) / s,
			Imag: s / 4,
			Jmag: (r.At(0, 1) + r.At(1, 0)) / s,
			Kmag: (r.At(0, 2) + r.At(2, 0)) / s,
		}
	case r.At(1, 1) > r.At(2, 2):
		s := math.Sqrt(1+r.At(1, 1)-r.At(0, 0)-r.At(2, 2)) * 2
		q = quat.Number{
			Real: (r.At(0, 2) - r.At(2, 0)) / s,
			Imag: (r.At(0, 1) + r.At(1, 0)) / s,
			Jmag: s / 4,
			Kmag: (r.At(1, 2) + r.At(2, 1)) / s,
		}
	default:
		s := math.Sqrt(1+r.At(2, 2)-r.At(0, 0)-r.At(1, 1)) * 2
		q = quat.Number{
			Real: (r.At(1, 0) - r.At(0, 1)) / s,
			Imag: (r.At(0, 2) + r.At(2, 0)) / s,
			Jmag: (r.At(1, 2) + r.At(2, 1)) / s,
			Kmag: s / 4,
		}
	}
	return spatialmath.Normalize(q)
}
