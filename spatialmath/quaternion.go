// Package spatialmath defines the spatial math primitives shared by the calibration,
// transform and synchronization packages: poses, quaternion helpers and interpolation.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Normalize scales a quaternion to unit length. Compositions drift away from
// unit norm in floating point, so this is applied after every Mul.
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if math.Abs(length-1.0) < 1e-10 {
		return q
	}
	if length == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Number{Real: q.Real / length, Imag: q.Imag / length, Jmag: q.Jmag / length, Kmag: q.Kmag / length}
}

// NewQuaternionFromAxisAngle returns the unit quaternion for a rotation of theta
// radians about the given (unnormalized) axis.
func NewQuaternionFromAxisAngle(theta, rx, ry, rz float64) quat.Number {
	n := math.Sqrt(rx*rx + ry*ry + rz*rz)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	s := math.Sin(theta / 2)
	return Normalize(quat.Number{
		Real: math.Cos(theta / 2),
		Imag: s * rx / n,
		Jmag: s * ry / n,
		Kmag: s * rz / n,
	})
}

// QuaternionAlmostEqual checks equality between two quaternions up to sign,
// since q and -q represent the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return AngleBetween(a, b) < tol
}

// AngleBetween returns the rotation angle in radians taking orientation a to
// orientation b.
func AngleBetween(a, b quat.Number) float64 {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	dot = math.Abs(dot)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}

// Slerp interpolates spherically between two unit quaternions. by is clamped
// to [0, 1]; the shorter great-circle arc is always taken.
func Slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	if by <= 0 {
		return qN1
	}
	if by >= 1 {
		return qN2
	}
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag
	if dot < 0 {
		qN2 = quat.Scale(-1, qN2)
		dot = -dot
	}
	// Nearly parallel quaternions degrade to a lerp.
	if dot > 0.9995 {
		return Normalize(quat.Add(qN1, quat.Scale(by, quat.Sub(qN2, qN1))))
	}
	theta0 := math.Acos(dot)
	theta := theta0 * by
	s1 := math.Cos(theta) - dot*math.Sin(theta)/math.Sin(theta0)
	s2 := math.Sin(theta) / math.Sin(theta0)
	return Normalize(quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2)))
}

// QuaternionIsFinite reports whether every component of q is a finite number.
func QuaternionIsFinite(q quat.Number) bool {
	return isFinite(q.Real) && isFinite(q.Imag) && isFinite(q.Jmag) && isFinite(q.Kmag)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
