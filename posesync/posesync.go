// Package posesync keeps the BIM model viewer and the panorama viewer looking
// at the same place. An Orchestrator owns the shared sync state, arbitrates
// which viewer is the authority at any instant, drives smooth camera
// transitions on the other viewer, and suppresses the echo reports those
// transitions would otherwise bounce back.
package posesync

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sitewalk/poselink/spatialmath"
)

// Source identifies a pose producer.
type Source int

// The two viewers, plus the no-authority startup value.
const (
	SourceNone Source = iota
	SourceModel
	SourcePano
)

func (s Source) String() string {
	switch s {
	case SourceModel:
		return "model"
	case SourcePano:
		return "pano"
	default:
		return "none"
	}
}

// other returns the opposite viewer.
func (s Source) other() Source {
	switch s {
	case SourceModel:
		return SourcePano
	case SourcePano:
		return SourceModel
	default:
		return SourceNone
	}
}

// Phase is the orchestrator's state-machine phase.
type Phase int

// The orchestrator is idle or animating one viewer toward a target pose.
const (
	PhaseIdle Phase = iota
	PhaseAnimatingToModel
	PhaseAnimatingToPano
)

func (p Phase) String() string {
	switch p {
	case PhaseAnimatingToModel:
		return "animating-to-model"
	case PhaseAnimatingToPano:
		return "animating-to-pano"
	default:
		return "idle"
	}
}

// State is the process-wide synchronization state. The orchestrator is its
// single writer; everything else reads snapshots. Generation strictly
// increases on every accepted external update and invalidates stale
// animation ticks.
type State struct {
	Authority  Source
	LastUpdate time.Time
	Generation uint64
}

// ApplyOptions accompanies an outbound pose application. Token must be echoed
// back by the consuming viewer on any pose report the application provokes.
type ApplyOptions struct {
	Animate bool
	Token   string
}

// Viewer is the outbound interface each viewer engine implements. ApplyPose
// must not block; it may synchronously call back into ReportPose.
type Viewer interface {
	ApplyPose(pose spatialmath.Pose, opts ApplyOptions)
}

// Config holds the orchestrator tuning parameters.
type Config struct {
	// InterpolationDuration is how long a driven camera transition takes.
	InterpolationDuration time.Duration
	// TickInterval is the animation frame period used by Start.
	TickInterval time.Duration
	// PositionNoise and OrientationNoise are the thresholds (meters, radians)
	// below which a repeat report from the current authority is churn, not news.
	PositionNoise    float64
	OrientationNoise float64
	// SuppressionWindow is how long after driving a viewer that viewer's own
	// reports are treated as echoes.
	SuppressionWindow time.Duration
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		InterpolationDuration: 600 * time.Millisecond,
		TickInterval:          16 * time.Millisecond,
		PositionNoise:         0.01,
		OrientationNoise:      0.01,
		SuppressionWindow:     250 * time.Millisecond,
	}
}

// Validate checks the config for usability.
func (cfg Config) Validate() error {
	if cfg.InterpolationDuration <= 0 || cfg.TickInterval <= 0 {
		return errors.New("interpolation duration and tick interval must be positive")
	}
	if cfg.PositionNoise < 0 || cfg.OrientationNoise < 0 {
		return errors.New("noise thresholds cannot be negative")
	}
	if cfg.SuppressionWindow < 0 {
		return errors.New("suppression window cannot be negative")
	}
	return nil
}
