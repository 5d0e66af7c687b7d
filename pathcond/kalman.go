package pathcond

// axisKalman is a scalar constant-velocity Kalman filter run over one
// coordinate axis of the path. State is [position, velocity] with a 2x2
// covariance; the sample index serves as the time base (dt = 1).
type axisKalman struct {
	pos, vel           float64
	p00, p01, p10, p11 float64
	q, r               float64
	initialized        bool
}

func newAxisKalman(processNoise, measurementNoise float64) *axisKalman {
	return &axisKalman{q: processNoise, r: measurementNoise}
}

// Next feeds one measurement through predict/update and returns the filtered
// position. The first measurement initializes the state.
func (kf *axisKalman) Next(z float64) float64 {
	if !kf.initialized {
		kf.pos = z
		kf.vel = 0
		kf.p00, kf.p11 = 1, 1
		kf.initialized = true
		return kf.pos
	}

	// Predict: x' = F x with F = [[1, 1], [0, 1]]; P' = F P F^T + Q.
	kf.pos += kf.vel
	p00 := kf.p00 + kf.p10 + kf.p01 + kf.p11 + kf.q
	p01 := kf.p01 + kf.p11
	p10 := kf.p10 + kf.p11
	p11 := kf.p11 + kf.q
	kf.p00, kf.p01, kf.p10, kf.p11 = p00, p01, p10, p11

	// Update with the scalar position measurement, H = [1, 0].
	innovation := z - kf.pos
	s := kf.p00 + kf.r
	k0 := kf.p00 / s
	k1 := kf.p10 / s
	kf.pos += k0 * innovation
	kf.vel += k1 * innovation
	kf.p00, kf.p01, kf.p10, kf.p11 =
		(1-k0)*kf.p00, (1-k0)*kf.p01, kf.p10-k1*kf.p00, kf.p11-k1*kf.p01
	return kf.pos
}

// filterKalman runs an independent constant-velocity filter over each
// coordinate axis, sequentially over the sample order.
func filterKalman(points []Waypoint, processNoise, measurementNoise float64) {
	kx := newAxisKalman(processNoise, measurementNoise)
	ky := newAxisKalman(processNoise, measurementNoise)
	kz := newAxisKalman(processNoise, measurementNoise)
	for i := range points {
		points[i].Position.X = kx.Next(points[i].Position.X)
		points[i].Position.Y = ky.Next(points[i].Position.Y)
		points[i].Position.Z = kz.Next(points[i].Position.Z)
	}
}
