package pathcond

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

// repairSeparation enforces the minimum-separation invariant: after this pass
// no two consecutive points are closer than minSep. A violating pair is
// replaced by two points straddling its midpoint along the local direction
// vector; coincident points get a seeded-random direction. When the straddle
// would push a point back into its predecessor, only the later point moves
// instead, so earlier repaired pairs stay valid.
func repairSeparation(points []Waypoint, minSep float64, rng *rand.Rand) {
	for i := 1; i < len(points); i++ {
		a := points[i-1].Position
		b := points[i].Position
		delta := b.Sub(a)
		dist := delta.Norm()
		if dist >= minSep {
			continue
		}

		var dir r3.Vector
		if dist < 1e-12 {
			theta := rng.Float64() * 2 * math.Pi
			dir = r3.Vector{X: math.Cos(theta), Y: math.Sin(theta)}
		} else {
			dir = delta.Mul(1 / dist)
		}

		mid := a.Add(delta.Mul(0.5))
		newA := mid.Sub(dir.Mul(minSep / 2))
		newB := mid.Add(dir.Mul(minSep / 2))
		if i >= 2 && newA.Sub(points[i-2].Position).Norm() < minSep {
			points[i].Position = a.Add(dir.Mul(minSep))
			continue
		}
		points[i-1].Position = newA
		points[i].Position = newB
	}
}
