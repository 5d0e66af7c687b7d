package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a camera pose: a position in meters and a unit-quaternion orientation.
// Poses are value types; operations return new poses.
type Pose struct {
	Position    r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns the pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose from a position and an orientation, with the
// orientation normalized to unit length.
func NewPose(position r3.Vector, orientation quat.Number) Pose {
	return Pose{Position: position, Orientation: Normalize(orientation)}
}

// Interpolate returns the pose a fraction by of the way from p1 to p2, with a
// linear position blend and a spherical orientation blend. by is clamped to [0, 1].
func Interpolate(p1, p2 Pose, by float64) Pose {
	if by <= 0 {
		return p1
	}
	if by >= 1 {
		return p2
	}
	return Pose{
		Position:    Lerp(p1.Position, p2.Position, by),
		Orientation: Slerp(p1.Orientation, p2.Orientation, by),
	}
}

// Lerp linearly interpolates between two vectors.
func Lerp(v1, v2 r3.Vector, by float64) r3.Vector {
	return v1.Add(v2.Sub(v1).Mul(by))
}

// PoseAlmostEqual reports whether two poses are within the given position
// (meters) and orientation (radians) tolerances of each other.
func PoseAlmostEqual(p1, p2 Pose, posTol, angTol float64) bool {
	return p1.Position.Sub(p2.Position).Norm() < posTol &&
		AngleBetween(p1.Orientation, p2.Orientation) < angTol
}

// VectorIsFinite reports whether every component of v is a finite number.
func VectorIsFinite(v r3.Vector) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// PoseIsFinite reports whether both the position and orientation of p are finite.
func PoseIsFinite(p Pose) bool {
	return VectorIsFinite(p.Position) && QuaternionIsFinite(p.Orientation)
}
