package transform

import "github.com/golang/geo/r3"

// PolyCorrection is a separately-calibrated quadratic refinement added to
// forward-transformed positions: dx = X(x) and dy = Y(y) where X and Y are
// quadratics fit empirically for one site. It is additive, best-effort and
// non-invertible; it does not participate in the round-trip contract and does
// not generalize beyond the dataset it was regressed on.
type PolyCorrection struct {
	// XCoeffs and YCoeffs hold [c0, c1, c2] for c0 + c1*v + c2*v*v.
	XCoeffs [3]float64
	YCoeffs [3]float64
}

// Apply adds the quadratic offsets to p.
func (pc *PolyCorrection) Apply(p r3.Vector) r3.Vector {
	dx := pc.XCoeffs[0] + pc.XCoeffs[1]*p.X + pc.XCoeffs[2]*p.X*p.X
	dy := pc.YCoeffs[0] + pc.YCoeffs[1]*p.Y + pc.YCoeffs[2]*p.Y*p.Y
	return r3.Vector{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
}
