package pathcond

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/sitewalk/poselink/utils"
)

// manhattanize rebuilds the path with headings snapped to multiples of 90
// degrees. The heading estimate at each sample comes from a forward-looking
// window of future deltas rather than the immediate step, and a new heading
// must persist for hysteresis consecutive samples before the switch is
// committed. Step lengths and Z are carried over from the input.
func manhattanize(points []Waypoint, lookahead, hysteresis int) {
	if len(points) < 2 {
		return
	}
	src := make([]r3.Vector, len(points))
	for i, wp := range points {
		src[i] = wp.Position
	}

	committed := snapHeading(lookaheadDelta(src, 0, lookahead))
	pending := committed
	pendingCount := 0

	for i := 1; i < len(src); i++ {
		candidate := snapHeading(lookaheadDelta(src, i-1, lookahead))
		if candidate == committed {
			pending = committed
			pendingCount = 0
		} else {
			if candidate == pending {
				pendingCount++
			} else {
				pending = candidate
				pendingCount = 1
			}
			if pendingCount >= hysteresis {
				committed = candidate
				pendingCount = 0
			}
		}

		step := src[i].Sub(src[i-1])
		stepLen := math.Hypot(step.X, step.Y)
		dir := headingVector(committed)
		prev := points[i-1].Position
		points[i].Position = r3.Vector{
			X: prev.X + dir.X*stepLen,
			Y: prev.Y + dir.Y*stepLen,
			Z: src[i].Z,
		}
	}
}

// lookaheadDelta sums up to n future deltas starting at sample i.
func lookaheadDelta(src []r3.Vector, i, n int) r3.Vector {
	end := i + n
	if end > len(src)-1 {
		end = len(src) - 1
	}
	return src[end].Sub(src[i])
}

// snapHeading returns the delta's XY heading snapped to the nearest multiple
// of 90 degrees, as one of 0, 90, 180, 270.
func snapHeading(delta r3.Vector) int {
	if delta.X == 0 && delta.Y == 0 {
		return 0
	}
	deg := utils.ModAngDeg(utils.RadToDeg(math.Atan2(delta.Y, delta.X)))
	return int(utils.ModAngDeg(90*math.Round(deg/90))) % 360
}

func headingVector(deg int) r3.Vector {
	switch deg {
	case 90:
		return r3.Vector{Y: 1}
	case 180:
		return r3.Vector{X: -1}
	case 270:
		return r3.Vector{Y: -1}
	default:
		return r3.Vector{X: 1}
	}
}
