package headpose

import (
	"errors"
	"fmt"
	"time"

	"github.com/attentive-robotics/go-headpose/internal/log"
	"github.com/attentive-robotics/go-headpose/pkg/headpose/landmark"
)

// Estimator stabilizes the per-frame pose stream: it throttles solver
// invocations, caches the last accepted result and masks transient
// solve failures with the stale cache.
//
// The cache (last angles, classification, acceptance timestamp) is
// owned exclusively by the Estimator and is only ever mutated from the
// single worker context reachable through the dispatch gate. Callers
// outside that context get read-only snapshots via Last.
type Estimator struct {
	solver     *Solver
	thresholds Thresholds
	throttle   time.Duration

	// solve defaults to solver.Solve; tests substitute faulty paths.
	solve func(*landmark.Observation) (*Pose, error)

	last      EulerAngles
	lastIn    bool
	lastAt    time.Time
	hasResult bool
}

// NewEstimator creates an estimator for the given configuration and
// reference model.
func NewEstimator(cfg Config, model *ReferenceModel) *Estimator {
	solver := NewSolver(model, cfg.Intrinsics)
	return &Estimator{
		solver:     solver,
		solve:      solver.Solve,
		thresholds: cfg.Thresholds,
		throttle:   cfg.ThrottleInterval,
	}
}

// Update runs one stabilization step for an observation taken at now.
//
//   - No face in the observation: returns a no-face result and leaves
//     the cache untouched. A momentary detection gap must not corrupt
//     the last good reading, but it is surfaced, not papered over.
//   - Inside the throttle window with a cached result: returns the
//     cached angles with the classification re-evaluated, without
//     invoking the solver.
//   - Otherwise solves. Success updates the cache and its timestamp.
//     Failure returns the previous cached result unchanged; the
//     timestamp is not refreshed, so retries continue at the throttle
//     cadence instead of freezing.
func (e *Estimator) Update(obs *landmark.Observation, now time.Time) Result {
	if obs == nil || len(obs.Points) == 0 || len(obs.Points) < e.solver.model.Len() {
		return NoFaceResult()
	}

	if e.hasResult && now.Sub(e.lastAt) < e.throttle {
		// Classification is cheap and always recomputed, even for
		// cached angles.
		return PoseResult(e.classified(e.last))
	}

	angles, err := e.solveObservation(obs)
	if err != nil {
		log.Debug("pose solve failed, serving cached result", "error", err)
		if e.hasResult {
			return PoseResult(HeadPose{
				Pitch:      e.last.Pitch,
				Yaw:        e.last.Yaw,
				Roll:       e.last.Roll,
				InPosition: e.lastIn,
			})
		}
		return NoFaceResult()
	}

	pose := e.classified(angles)
	e.last = angles
	e.lastIn = pose.InPosition
	e.lastAt = now
	e.hasResult = true
	return PoseResult(pose)
}

// Last returns a read-only snapshot of the last accepted pose.
func (e *Estimator) Last() (HeadPose, bool) {
	if !e.hasResult {
		return HeadPose{}, false
	}
	return HeadPose{
		Pitch:      e.last.Pitch,
		Yaw:        e.last.Yaw,
		Roll:       e.last.Roll,
		InPosition: e.lastIn,
	}, true
}

func (e *Estimator) classified(a EulerAngles) HeadPose {
	return HeadPose{
		Pitch:      a.Pitch,
		Yaw:        a.Yaw,
		Roll:       a.Roll,
		InPosition: e.thresholds.InPosition(a),
	}
}

// solveObservation runs the solver and decomposition with panic
// recovery: any fault on the numeric path is downgraded to a solve
// failure rather than escaping the pipeline.
func (e *Estimator) solveObservation(obs *landmark.Observation) (angles EulerAngles, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in solve path", "panic", r)
			err = fmt.Errorf("%w: %v", ErrSolveDiverged, r)
		}
	}()

	// The model pairs positionally with the first N landmarks; extra
	// landmarks are ignored.
	if len(obs.Points) > e.solver.model.Len() {
		obs = &landmark.Observation{
			Points: obs.Points[:e.solver.model.Len()],
			Width:  obs.Width,
			Height: obs.Height,
		}
	}

	pose, err := e.solve(obs)
	if err != nil {
		return EulerAngles{}, err
	}
	if rows, cols := pose.Rotation.Dims(); rows != 3 || cols != 3 {
		return EulerAngles{}, errors.New("headpose: rotation is not 3x3")
	}
	return DecomposeRotation(pose.Rotation), nil
}
