// Package utils contains small shared math helpers.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Clamp returns value restricted to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ModAngDeg returns the angle in degrees normalized to [0, 360).
func ModAngDeg(ang float64) float64 {
	return math.Mod(math.Mod(ang, 360)+360, 360)
}

// AngleDiffDeg returns the closest difference between two angles in degrees.
// The arguments are commutative.
func AngleDiffDeg(a1, a2 float64) float64 {
	return float64(180) - math.Abs(math.Abs(a1-a2)-float64(180))
}
