package posesync

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	viamutils "go.viam.com/utils"

	"github.com/sitewalk/poselink/boundary"
	"github.com/sitewalk/poselink/pathcond"
	"github.com/sitewalk/poselink/spatialmath"
	"github.com/sitewalk/poselink/transform"
	"github.com/sitewalk/poselink/utils"
)

// suppression records one orchestrator-driven pose application: the single-use
// token the viewer must echo, and the window inside which any report from that
// viewer is treated as an echo regardless of token.
type suppression struct {
	token string
	until time.Time
}

// animation is one in-flight camera transition. It is superseded, never
// queued behind: a newer report simply replaces it, and its generation lets
// stale ticks be discarded.
type animation struct {
	from, to   spatialmath.Pose
	target     Source
	start      time.Time
	duration   time.Duration
	generation uint64
}

// Orchestrator is the single writer of the shared sync state. All pose
// reports, ticks and jump requests funnel through its mutex, emulating the
// one-logical-timeline model the design assumes.
type Orchestrator struct {
	mu     sync.Mutex
	cfg    Config
	logger golog.Logger
	clk    clock.Clock

	model Viewer
	pano  Viewer

	// pipeline maps panorama-frame poses into the model frame (forward) and
	// back (inverse). Replaced atomically on recalibration via SetPipeline.
	pipeline *transform.Pipeline
	path     []pathcond.Waypoint
	guard    *boundary.Polygon

	state       State
	lastPose    spatialmath.Pose
	anim        *animation
	suppressed  map[Source]suppression
	lastApplied map[Source]*spatialmath.Pose

	cancelCtx               context.Context
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
	running                 bool
}

// New returns an orchestrator mediating between the two viewers through the
// given transform pipeline, using the wall clock.
func New(cfg Config, model, pano Viewer, pipeline *transform.Pipeline, logger golog.Logger) (*Orchestrator, error) {
	return NewWithClock(cfg, model, pano, pipeline, clock.New(), logger)
}

// NewWithClock is New with an injected clock, for deterministic tests.
func NewWithClock(
	cfg Config,
	model, pano Viewer,
	pipeline *transform.Pipeline,
	clk clock.Clock,
	logger golog.Logger,
) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil || pano == nil {
		return nil, errors.New("both viewers are required")
	}
	if pipeline == nil {
		return nil, errors.New("transform pipeline is required")
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:         cfg,
		logger:      logger,
		clk:         clk,
		model:       model,
		pano:        pano,
		pipeline:    pipeline,
		suppressed:  map[Source]suppression{},
		lastApplied: map[Source]*spatialmath.Pose{},
		cancelCtx:   cancelCtx,
		cancel:      cancel,
	}, nil
}

// SetPipeline swaps in a new transform pipeline after recalibration.
func (o *Orchestrator) SetPipeline(pipeline *transform.Pipeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pipeline = pipeline
}

// SetConditionedPath replaces the conditioned path used for floor jumps. The
// path is in the panorama dataset's frame.
func (o *Orchestrator) SetConditionedPath(path []pathcond.Waypoint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.path = path
}

// SetBoundary installs the site boundary guard used by floor jumps.
func (o *Orchestrator) SetBoundary(guard *boundary.Polygon) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.guard = guard
}

// Phase reports the current state-machine phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.anim == nil {
		return PhaseIdle
	}
	if o.anim.target == SourceModel {
		return PhaseAnimatingToModel
	}
	return PhaseAnimatingToPano
}

// Snapshot returns a copy of the current sync state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ReportPose ingests a live pose report from one viewer. It returns whether
// the report was accepted. Rejections are silent no-ops by contract: echoes of
// orchestrator-driven applications (live token or inside the suppression
// window), redundant churn from the current authority, and non-finite poses.
// An accepted report makes the source the authority, stamps a new generation
// and begins an interpolated transition on the other viewer.
func (o *Orchestrator) ReportPose(source Source, pose spatialmath.Pose, token string) bool {
	if source != SourceModel && source != SourcePano {
		return false
	}
	if !spatialmath.PoseIsFinite(pose) {
		o.logger.Warnw("dropping non-finite pose report", "source", source)
		return false
	}

	o.mu.Lock()
	now := o.clk.Now()

	if sup, ok := o.suppressed[source]; ok {
		if token != "" && token == sup.token {
			// Single use: the echo consumed its token.
			delete(o.suppressed, source)
			o.mu.Unlock()
			return false
		}
		if now.Before(sup.until) {
			o.mu.Unlock()
			return false
		}
		delete(o.suppressed, source)
	}

	if source == o.state.Authority &&
		spatialmath.PoseAlmostEqual(pose, o.lastPose, o.cfg.PositionNoise, o.cfg.OrientationNoise) {
		o.mu.Unlock()
		return false
	}

	target, err := o.transformFor(source.other(), pose)
	if err != nil {
		o.logger.Warnw("dropping pose report; transform failed", "source", source, "error", err)
		o.mu.Unlock()
		return false
	}

	o.state.Authority = source
	o.state.Generation++
	o.state.LastUpdate = now
	o.lastPose = pose

	from := o.lastApplied[source.other()]
	if from == nil {
		// Nothing to interpolate from yet; adopt the target immediately.
		o.anim = nil
		o.mu.Unlock()
		o.apply(source.other(), target, false)
		return true
	}
	o.anim = &animation{
		from:       *from,
		to:         target,
		target:     source.other(),
		start:      now,
		duration:   o.cfg.InterpolationDuration,
		generation: o.state.Generation,
	}
	o.mu.Unlock()
	return true
}

// RequestFloorJump navigates both viewers to the conditioned path sample
// nearest the clicked site-plan point, immediately and without interpolation.
// The point is clamped to the site boundary first when a guard is installed.
func (o *Orchestrator) RequestFloorJump(pt r2.Point) error {
	o.mu.Lock()
	if len(o.path) == 0 {
		o.mu.Unlock()
		return errors.New("no conditioned path loaded")
	}
	if o.guard != nil {
		res := o.guard.Clamp(pt)
		if res.WasClamped {
			o.logger.Debugw("floor jump clamped to boundary", "distance", res.Distance)
		}
		pt = res.Point
	}

	// The click is in the model frame; bring it into the dataset frame the
	// conditioned path lives in before the nearest-neighbor scan.
	query, err := o.pipeline.InversePosition(r3.Vector{X: pt.X, Y: pt.Y})
	if err != nil {
		o.mu.Unlock()
		return err
	}
	nearest := o.path[0]
	best := nearest.Position.Sub(query).Norm2()
	for _, wp := range o.path[1:] {
		if d := wp.Position.Sub(query).Norm2(); d < best {
			best = d
			nearest = wp
		}
	}

	panoPose := spatialmath.NewPose(
		nearest.Position,
		spatialmath.NewQuaternionFromAxisAngle(nearest.Yaw, 0, 0, 1),
	)
	modelPose, err := o.pipeline.ForwardPose(panoPose)
	if err != nil {
		o.mu.Unlock()
		return err
	}

	// Explicit user navigation: supersede any in-flight transition and adopt
	// the pose on both viewers without animating.
	o.state.Authority = SourceNone
	o.state.Generation++
	o.state.LastUpdate = o.clk.Now()
	o.anim = nil
	o.mu.Unlock()

	o.apply(SourcePano, panoPose, false)
	o.apply(SourceModel, modelPose, false)
	return nil
}

// Tick advances the in-flight transition by one animation frame. It is safe
// to call from any scheduling primitive; Start wires it to a ticker. Ticks
// carrying a stale generation are discarded rather than applied.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	anim := o.anim
	if anim == nil {
		o.mu.Unlock()
		return
	}
	if anim.generation != o.state.Generation {
		o.anim = nil
		o.mu.Unlock()
		return
	}
	now := o.clk.Now()
	t := utils.Clamp(float64(now.Sub(anim.start))/float64(anim.duration), 0, 1)
	pose := spatialmath.Interpolate(anim.from, anim.to, t)
	target := anim.target
	if t >= 1 {
		// Animation complete; back to idle.
		o.anim = nil
	}
	o.mu.Unlock()

	o.apply(target, pose, true)
}

// apply drives one viewer to a pose, arming echo suppression for it. Called
// without the lock held: viewers may synchronously report back.
func (o *Orchestrator) apply(target Source, pose spatialmath.Pose, animate bool) {
	token := uuid.NewString()
	o.mu.Lock()
	o.suppressed[target] = suppression{token: token, until: o.clk.Now().Add(o.cfg.SuppressionWindow)}
	p := pose
	o.lastApplied[target] = &p
	viewer := o.model
	if target == SourcePano {
		viewer = o.pano
	}
	o.mu.Unlock()

	viewer.ApplyPose(pose, ApplyOptions{Animate: animate, Token: token})
}

// Start launches the animation tick loop. Close stops it.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return errors.New("orchestrator already started")
	}
	o.running = true
	ticker := o.clk.Ticker(o.cfg.TickInterval)
	o.activeBackgroundWorkers.Add(1)
	viamutils.PanicCapturingGo(func() {
		defer o.activeBackgroundWorkers.Done()
		defer ticker.Stop()
		for {
			select {
			case <-o.cancelCtx.Done():
				return
			case <-ticker.C:
				o.Tick()
			}
		}
	})
	return nil
}

// Close stops the tick loop and waits for it to exit.
func (o *Orchestrator) Close() {
	o.cancel()
	o.activeBackgroundWorkers.Wait()
}

// transformFor maps a pose into the frame of the given destination viewer.
func (o *Orchestrator) transformFor(dest Source, pose spatialmath.Pose) (spatialmath.Pose, error) {
	if dest == SourceModel {
		return o.pipeline.ForwardPose(pose)
	}
	return o.pipeline.InversePose(pose)
}
