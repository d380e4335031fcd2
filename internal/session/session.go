// Package session runs the per-frame pipeline of one player: clock, input,
// control commands, dynamic colliders, motion, recording and telemetry.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/clock"
	"github.com/Faultbox/omnistep/internal/engine/input"
	"github.com/Faultbox/omnistep/internal/engine/motion"
	"github.com/Faultbox/omnistep/internal/engine/recorder"
	"github.com/Faultbox/omnistep/internal/engine/spatial"
	"github.com/Faultbox/omnistep/internal/remote"
	"github.com/Faultbox/omnistep/internal/scene"
	"github.com/Faultbox/omnistep/internal/telemetry"
	"github.com/Faultbox/omnistep/pkg/math"
)

// ErrAborted wraps every condition that ends a session.
var ErrAborted = errors.New("session aborted")

// Config holds the tunables of the components a session owns.
type Config struct {
	Motion   motion.Config
	Input    input.Config
	Clock    clock.Config
	Recorder recorder.Config
	// FullEvaluation rebuilds dynamic colliders from their evaluated
	// geometry instead of their base triangles.
	FullEvaluation bool
}

// Options are the collaborators of a session. Camera and Scene are
// required; the rest are optional.
type Options struct {
	Camera  camera.Host
	Scene   *scene.Scene
	Metrics *telemetry.Metrics
	Remote  *remote.Server
	Log     *zap.Logger
}

// Session owns one player and everything that drives it.
type Session struct {
	cfg Config

	cam     camera.Host
	scene   *scene.Scene
	clock   *clock.Clock
	mapper  *input.Mapper
	index   *spatial.Index
	ctrl    *motion.Controller
	rec     *recorder.Recorder
	metrics *telemetry.Metrics
	remote  *remote.Server
	log     *zap.Logger

	pad     *input.PadState
	last    motion.Snapshot
	aborted error
}

// New checks the session preconditions and spawns the player. A failed
// precondition is returned wrapped in ErrAborted.
func New(cfg Config, opts Options) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Camera == nil {
		log.Error("no camera to drive")
		return nil, fmt.Errorf("%w: %w", ErrAborted, motion.ErrNoCamera)
	}
	if opts.Scene == nil {
		log.Error("no scene geometry")
		return nil, fmt.Errorf("%w: %w", ErrAborted, motion.ErrNoIndex)
	}

	mapper, err := input.NewMapper(cfg.Input, log.Named("input"))
	if err != nil {
		return nil, fmt.Errorf("%w: input bindings: %w", ErrAborted, err)
	}

	index := spatial.NewIndex(opts.Scene.Static, log.Named("spatial"))
	if opts.Metrics != nil {
		index.SetObserver(opts.Metrics)
	}
	if len(opts.Scene.Colliders) > 0 {
		index.DynamicSet(opts.Scene.Objects(0), cfg.FullEvaluation)
	}

	ctrl, err := motion.New(cfg.Motion, motion.Options{
		Camera: opts.Camera,
		Index:  index,
		Input:  mapper.State(),
		Spawns: opts.Scene.Spawns,
		Log:    log.Named("motion"),
	})
	if err != nil {
		log.Error("player setup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	s := &Session{
		cfg:     cfg,
		cam:     opts.Camera,
		scene:   opts.Scene,
		clock:   clock.New(cfg.Clock, log.Named("clock")),
		mapper:  mapper,
		index:   index,
		ctrl:    ctrl,
		rec:     recorder.New(cfg.Recorder, log.Named("recorder")),
		metrics: opts.Metrics,
		remote:  opts.Remote,
		log:     log,
	}
	log.Info("session started",
		zap.String("scene", opts.Scene.Name),
		zap.Int("static_faces", len(opts.Scene.Static)),
		zap.Int("colliders", len(opts.Scene.Colliders)),
		zap.Float32("fps", s.clock.FPS()))
	return s, nil
}

// Clock returns the scene clock.
func (s *Session) Clock() *clock.Clock { return s.clock }

// Mapper returns the input mapper hosts feed raw events into.
func (s *Session) Mapper() *input.Mapper { return s.mapper }

// Input returns the mapped input state.
func (s *Session) Input() *input.State { return s.mapper.State() }

// Controller returns the player's motion controller.
func (s *Session) Controller() *motion.Controller { return s.ctrl }

// Index returns the spatial index.
func (s *Session) Index() *spatial.Index { return s.index }

// Recorder returns the animation recorder.
func (s *Session) Recorder() *recorder.Recorder { return s.rec }

// Scene returns the loaded scene.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Snapshot returns the player state after the last frame.
func (s *Session) Snapshot() motion.Snapshot { return s.last }

// Err returns the abort error, or nil while the session runs.
func (s *Session) Err() error { return s.aborted }

// SetGamepad sets the controller state read by the following frames. nil
// means no controller is connected.
func (s *Session) SetGamepad(pad *input.PadState) {
	s.pad = pad
}

// Frame runs one frame from a measured wall-clock delta. A panic inside the
// pipeline is reported and ends the session; every later call returns the
// same error.
func (s *Session) Frame(measured float32) (err error) {
	if s.aborted != nil {
		return s.aborted
	}
	defer func() {
		if r := recover(); r != nil {
			err = s.abort(r)
		}
	}()

	start := time.Now()
	// a looping recording holds the target step across the wrap
	if s.rec.AtLoopBoundary() {
		measured = s.clock.Target()
	}
	dt := s.clock.Tick(measured)

	s.mapper.Update(dt, s.pad)
	in := s.mapper.State()

	if s.remote != nil {
		s.remote.Queue().Drain(s.execute)
	}
	s.animateColliders()

	respawn := in.Respawn
	s.ctrl.Update(dt)
	if respawn && !in.Respawn && s.metrics != nil {
		s.metrics.Respawned()
	}

	s.rec.Update(s.clock, in.Restart, s.pose())

	snap := s.ctrl.Snapshot()
	snap.Frame = s.clock.Frame()
	if s.metrics != nil {
		n, _ := s.clock.Substeps()
		s.metrics.ObserveFrame(float32(time.Since(start).Seconds()), n)
		s.metrics.ObservePlayer(s.last, snap)
	}
	if s.remote != nil {
		s.remote.Publish(snap)
	}
	s.last = snap

	s.mapper.ClearTriggers()
	return nil
}

// animateColliders re-places the scene's moving colliders at the current
// scene time.
func (s *Session) animateColliders() {
	var moving []spatial.Object
	t := s.clock.Elapsed()
	for _, c := range s.scene.Colliders {
		if c.Animated() {
			moving = append(moving, c.Object(t))
		}
	}
	if len(moving) > 0 {
		s.index.DynamicSet(moving, s.cfg.FullEvaluation)
	}
}

func (s *Session) pose() recorder.Pose {
	world := s.cam.WorldMatrix()
	return recorder.Pose{
		Position: math.Translation(world),
		Rotation: math.EulerXYZ(world),
		Mode:     s.ctrl.Mode().String(),
		Grounded: s.ctrl.State().Grounded,
	}
}

// execute runs one control command on the frame loop.
func (s *Session) execute(cmd remote.Command) remote.Result {
	if s.metrics != nil {
		s.metrics.CommandExecuted(string(cmd.Kind))
	}
	switch cmd.Kind {
	case remote.KindSetPosition:
		return remote.Result{OK: s.ctrl.SetPosition(cmd.Vector, cmd.ClearVelocity)}

	case remote.KindImpulse:
		return remote.Result{OK: s.ctrl.ApplyImpulse(cmd.Vector, cmd.ClearVelocity)}

	case remote.KindRespawn:
		var res remote.Result
		if cmd.World != nil {
			res.OK = s.ctrl.RespawnAt(*cmd.World)
		} else {
			res.Spawn, res.OK = s.ctrl.Respawn()
		}
		if res.OK && s.metrics != nil {
			s.metrics.Respawned()
		}
		return res

	case remote.KindDynamicSet:
		s.index.DynamicSet([]spatial.Object{cmd.Object}, s.cfg.FullEvaluation)
		return remote.Result{OK: true}

	case remote.KindDynamicRemove:
		s.index.DynamicRemove(cmd.Name)
		return remote.Result{OK: true}

	case remote.KindDynamicClear:
		s.index.DynamicClearAll()
		return remote.Result{OK: true}

	case remote.KindRayCast:
		return hitResult(s.index.RayCast(cmd.Vector, cmd.Direction, cmd.MaxDistance))

	case remote.KindFindNearest:
		return hitResult(s.index.FindNearest(cmd.Vector, cmd.MaxDistance))

	case remote.KindRayCastPlayer:
		return hitResult(s.ctrl.RayCastPlayer(cmd.Vector, cmd.Direction))
	}

	s.log.Warn("unknown command", zap.String("kind", string(cmd.Kind)))
	return remote.Result{Error: fmt.Sprintf("unknown command %q", cmd.Kind)}
}

func hitResult(h spatial.Hit, ok bool) remote.Result {
	if !ok {
		return remote.Result{OK: true}
	}
	return remote.Result{OK: true, Hit: remote.NewHit(h)}
}

func (s *Session) abort(r any) error {
	err := fmt.Errorf("%w: panic in frame %d: %v", ErrAborted, s.clock.Frame(), r)
	s.log.Error("frame panic", zap.Error(err), zap.Stack("stack"))

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("scene", s.scene.Name)
		scope.SetTag("mode", s.ctrl.Mode().String())
		scope.SetTag("frame", fmt.Sprint(s.clock.Frame()))
	})
	hub.Recover(r)
	hub.Flush(5 * time.Second)

	s.aborted = err
	return err
}

// Position is a convenience for hosts that draw the player.
func (s *Session) Position() mgl32.Vec3 {
	return s.ctrl.State().Root.Position()
}
