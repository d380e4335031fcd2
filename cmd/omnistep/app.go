package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/config"
	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/engine/motion"
	"github.com/Faultbox/omnistep/internal/engine/window"
	"github.com/Faultbox/omnistep/internal/logger"
	"github.com/Faultbox/omnistep/internal/remote"
	"github.com/Faultbox/omnistep/internal/scene"
	"github.com/Faultbox/omnistep/internal/session"
	"github.com/Faultbox/omnistep/internal/telemetry"
)

// plotSize is the edge of the exported path plot in pixels.
const plotSize = 1024

type app struct {
	cfg     *config.Config
	log     *zap.Logger
	window  *window.Window
	view    window.View
	session *session.Session

	cancel context.CancelFunc
	served chan error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg: cfg,
		log: logger.Named("app"),
	}

	sc, err := scene.Load(cfg.Scene.Path, logger.Named("scene"))
	if err != nil {
		return nil, err
	}

	// Create window (this also creates the renderer)
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	}, logger.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	a.view = window.View{PixelsPerMeter: cfg.Window.PixelsPerMeter}

	// The player starts at the first spawn, or standing at the origin.
	_, h := a.window.OutputSize()
	cam := camera.NewViewport(
		camera.FromPitchYaw(mgl32.Vec3{0, 0, cfg.Motion.PlayerHeight}, math32.Pi/2, 0),
		float32(h))
	cam.Focal = cfg.Window.FocalLength

	metrics := telemetry.New()
	var srv *remote.Server
	if cfg.Remote.Enabled {
		srv = remote.NewServer(cfg.Remote, remote.Options{
			Observer: metrics,
			Metrics:  metrics.Handler(),
			Log:      logger.Named("remote"),
		})
	}

	a.session, err = session.New(cfg.Session(), session.Options{
		Camera:  cam,
		Scene:   sc,
		Metrics: metrics,
		Remote:  srv,
		Log:     logger.Named("session"),
	})
	if err != nil {
		a.window.Close()
		return nil, err
	}

	if srv != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		a.served = make(chan error, 1)
		go func() { a.served <- srv.Run(ctx) }()
	}

	a.window.Capture(true)
	a.log.Info("initialized successfully")
	return a, nil
}

// run drives frames until the window closes or the session aborts.
func (a *app) run() error {
	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting loop")

	for {
		// Calculate delta time
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		// 1. Process input
		if a.window.Poll(a.session.Mapper()) {
			return nil
		}
		a.session.SetGamepad(a.window.Gamepad())

		// 2. Simulate
		if err := a.session.Frame(dt); err != nil {
			return err
		}

		// 3. Render
		a.draw()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			snap := a.session.Snapshot()
			a.window.SetTitle(fmt.Sprintf("%s - %s %.1f m/s - %d fps",
				a.cfg.Window.Title, snap.Mode, snap.RealVelocity.Len(), frameCount))
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (a *app) draw() {
	ctrl := a.session.Controller()
	snap := a.session.Snapshot()
	radius := ctrl.Config().Radius
	if ctrl.Mode() == motion.Fly {
		radius = ctrl.Config().FlyRadius
	}
	marker := window.Marker{
		Position: snap.Position,
		Radius:   radius * ctrl.Config().Scale,
		Yaw:      snap.Yaw,
		Grounded: snap.Grounded,
		Fly:      ctrl.Mode() == motion.Fly,
	}
	if ctrl.Teleporting() {
		target := ctrl.Teleport().Target()
		marker.Target = &target
	}
	index := a.session.Index()
	a.view.Draw(a.window, index.Static().Faces(), index.Dynamic().Faces(), marker)
}

func (a *app) saveRecording(csvPath, plotPath string) {
	rec := a.session.Recorder()
	if rec.Len() == 0 {
		return
	}
	if csvPath != "" {
		if err := rec.SaveCSV(csvPath); err != nil {
			a.log.Error("failed to write keyframes", zap.Error(err))
		}
	}
	if plotPath != "" {
		if err := rec.SavePlot(plotPath, plotSize); err != nil {
			a.log.Error("failed to write path plot", zap.Error(err))
		}
	}
}

func (a *app) close() {
	a.log.Info("closing")

	if a.cancel != nil {
		a.cancel()
		if err := <-a.served; err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("control API stopped", zap.Error(err))
		}
	}
	if a.window != nil {
		a.window.Close()
	}
}
