// Package transform bridges the panorama viewer's coordinate frame and the
// BIM model's frame. Positions pass through an axis flip (the two frames have
// opposite handedness) and the calibrated similarity transform; orientations
// pass through a fixed chain of quaternion operators. The forward/inverse
// position pair round-trips within floating-point tolerance.
package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/sitewalk/poselink/calibration"
	"github.com/sitewalk/poselink/spatialmath"
)

// ErrNonFinite is returned when a transform input or output carries NaN or Inf.
var ErrNonFinite = errors.New("non-finite value in transform")

// Pipeline applies the calibrated similarity transform to positions and the
// fixed orientation operator chain to orientations. It is immutable; a
// recalibration builds a replacement pipeline which callers swap in atomically.
type Pipeline struct {
	cal     *calibration.SimilarityTransform
	calQuat quat.Number

	// Fixed operators: +90 degree pitch about X, then 180 degrees about the
	// vertical axis to undo the mirrored left/right viewing convention.
	pitchQuat quat.Number
	yawQuat   quat.Number

	correction *PolyCorrection
}

// NewPipeline builds a pipeline around a solved similarity transform. The
// orientation chain's calibration quaternion is derived from the transform's
// rotation. correction may be nil.
func NewPipeline(cal *calibration.SimilarityTransform, correction *PolyCorrection) *Pipeline {
	return &Pipeline{
		cal:        cal,
		calQuat:    cal.RotationQuaternion(),
		pitchQuat:  spatialmath.NewQuaternionFromAxisAngle(math.Pi/2, 1, 0, 0),
		yawQuat:    spatialmath.NewQuaternionFromAxisAngle(math.Pi, 0, 0, 1),
		correction: correction,
	}
}

// flip negates the X axis, reconciling the handedness mismatch between the two
// frames. It is its own inverse.
func flip(p r3.Vector) r3.Vector {
	return r3.Vector{X: -p.X, Y: p.Y, Z: p.Z}
}

// ForwardPosition maps a panorama-frame position into the model frame. When a
// polynomial correction is configured it is added after the similarity
// transform; the correction is best-effort and not undone by InversePosition.
func (pl *Pipeline) ForwardPosition(p r3.Vector) (r3.Vector, error) {
	if !spatialmath.VectorIsFinite(p) {
		return r3.Vector{}, errors.Wrapf(ErrNonFinite, "position %v", p)
	}
	out := pl.cal.Apply(flip(p))
	if pl.correction != nil {
		out = pl.correction.Apply(out)
	}
	if !spatialmath.VectorIsFinite(out) {
		return r3.Vector{}, errors.Wrapf(ErrNonFinite, "transformed position %v", out)
	}
	return out, nil
}

// InversePosition maps a model-frame position back into the panorama frame.
// The polynomial correction, if any, is ignored: inverse(forward(p)) == p
// holds for the primary pipeline only.
func (pl *Pipeline) InversePosition(q r3.Vector) (r3.Vector, error) {
	if !spatialmath.VectorIsFinite(q) {
		return r3.Vector{}, errors.Wrapf(ErrNonFinite, "position %v", q)
	}
	out := flip(pl.cal.ApplyInverse(q))
	if !spatialmath.VectorIsFinite(out) {
		return r3.Vector{}, errors.Wrapf(ErrNonFinite, "transformed position %v", out)
	}
	return out, nil
}

// ForwardOrientation applies the operator chain in order: calibration
// quaternion, +90 degree pitch, 180 degree yaw. The output is unit-norm.
func (pl *Pipeline) ForwardOrientation(q quat.Number) quat.Number {
	out := spatialmath.Normalize(quat.Mul(pl.calQuat, q))
	out = spatialmath.Normalize(quat.Mul(pl.pitchQuat, out))
	return spatialmath.Normalize(quat.Mul(pl.yawQuat, out))
}

// InverseOrientation undoes the chain with each operator's conjugate in
// reversed order; quaternion composition is non-commutative so the reversal
// is load-bearing.
func (pl *Pipeline) InverseOrientation(q quat.Number) quat.Number {
	out := spatialmath.Normalize(quat.Mul(quat.Conj(pl.yawQuat), q))
	out = spatialmath.Normalize(quat.Mul(quat.Conj(pl.pitchQuat), out))
	return spatialmath.Normalize(quat.Mul(quat.Conj(pl.calQuat), out))
}

// ForwardPose maps a full panorama-frame pose into the model frame.
func (pl *Pipeline) ForwardPose(p spatialmath.Pose) (spatialmath.Pose, error) {
	pos, err := pl.ForwardPosition(p.Position)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return spatialmath.Pose{Position: pos, Orientation: pl.ForwardOrientation(p.Orientation)}, nil
}

// InversePose maps a full model-frame pose back into the panorama frame.
func (pl *Pipeline) InversePose(p spatialmath.Pose) (spatialmath.Pose, error) {
	pos, err := pl.InversePosition(p.Position)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return spatialmath.Pose{Position: pos, Orientation: pl.InverseOrientation(p.Orientation)}, nil
}
