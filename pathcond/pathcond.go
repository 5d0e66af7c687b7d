// Package pathcond conditions the raw capture path of a panoramic image
// sequence: Savitzky-Golay smoothing, per-axis Kalman filtering, a
// minimum-separation repair pass and an optional axis-snapped ("Manhattan")
// reconstruction. Sample count and per-sample metadata are preserved across
// all stages.
package pathcond

import (
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/sitewalk/poselink/spatialmath"
)

// Waypoint is one conditioned path sample, ordered by acquisition sequence.
type Waypoint struct {
	Position r3.Vector
	// ImageRef names the panorama captured at this sample, if any.
	ImageRef string
	Yaw      float64
	Pitch    float64
}

// Config holds the conditioning parameters. The zero value is not usable; use
// DefaultConfig and override fields.
type Config struct {
	// SmoothingWindow is the Savitzky-Golay window size, an odd integer >= 3.
	SmoothingWindow int
	// PolyOrder is the Savitzky-Golay polynomial order, in [1, SmoothingWindow).
	PolyOrder int
	// ProcessNoise and MeasurementNoise are the scalar Kalman tuning parameters.
	ProcessNoise     float64
	MeasurementNoise float64
	// MinSeparation is the smallest allowed distance in meters between
	// consecutive samples after conditioning.
	MinSeparation float64
	// Manhattan enables axis-snapped path reconstruction.
	Manhattan bool
	// Lookahead is how many future deltas inform the Manhattan heading estimate.
	Lookahead int
	// Hysteresis is how many consecutive samples must agree on a new heading
	// before a switch is committed.
	Hysteresis int
	// Seed drives the direction fallback for coincident points, keeping
	// conditioning runs reproducible.
	Seed int64
}

// DefaultConfig returns the conditioning defaults.
func DefaultConfig() Config {
	return Config{
		SmoothingWindow:  5,
		PolyOrder:        2,
		ProcessNoise:     1e-3,
		MeasurementNoise: 1e-2,
		MinSeparation:    0.05,
		Lookahead:        5,
		Hysteresis:       3,
		Seed:             1,
	}
}

// Validate checks the config for usability.
func (cfg Config) Validate() error {
	if cfg.SmoothingWindow < 3 || cfg.SmoothingWindow%2 == 0 {
		return errors.Errorf("smoothing window must be an odd integer >= 3, got %d", cfg.SmoothingWindow)
	}
	if cfg.PolyOrder < 1 || cfg.PolyOrder >= cfg.SmoothingWindow {
		return errors.Errorf("polynomial order must be in [1, %d), got %d", cfg.SmoothingWindow, cfg.PolyOrder)
	}
	if cfg.ProcessNoise <= 0 || cfg.MeasurementNoise <= 0 {
		return errors.New("kalman noise parameters must be positive")
	}
	if cfg.MinSeparation < 0 {
		return errors.New("minimum separation cannot be negative")
	}
	if cfg.Manhattan && (cfg.Lookahead < 1 || cfg.Hysteresis < 1) {
		return errors.New("manhattan lookahead and hysteresis must be >= 1")
	}
	return nil
}

// Condition runs the full conditioning pipeline over raw, returning a sequence
// of the same length with ImageRef, Yaw and Pitch preserved per sample. A
// singular smoothing design matrix is a warning, not an error: the smoothing
// stage passes the input through unchanged.
func Condition(raw []Waypoint, cfg Config, logger golog.Logger) ([]Waypoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, wp := range raw {
		if !spatialmath.VectorIsFinite(wp.Position) {
			return nil, errors.Errorf("waypoint %d has a non-finite position %v", i, wp.Position)
		}
	}
	if len(raw) == 0 {
		return []Waypoint{}, nil
	}

	out := make([]Waypoint, len(raw))
	copy(out, raw)

	if len(out) >= cfg.SmoothingWindow {
		if err := smoothSavGol(out, cfg.SmoothingWindow, cfg.PolyOrder); err != nil {
			logger.Warnw("savitzky-golay design matrix is singular; skipping smoothing", "error", err)
		}
	}

	filterKalman(out, cfg.ProcessNoise, cfg.MeasurementNoise)

	if cfg.MinSeparation > 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		repairSeparation(out, cfg.MinSeparation, rng)
	}

	if cfg.Manhattan {
		manhattanize(out, cfg.Lookahead, cfg.Hysteresis)
	}

	return out, nil
}
