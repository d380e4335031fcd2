// Package main runs OmniStep without a window: it replays an input script
// against a scene, then exports the recorded path. With -serve it keeps
// the session ticking so the control API can drive it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chewxy/math32"
	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/config"
	"github.com/Faultbox/omnistep/internal/engine/camera"
	"github.com/Faultbox/omnistep/internal/logger"
	"github.com/Faultbox/omnistep/internal/remote"
	"github.com/Faultbox/omnistep/internal/scene"
	"github.com/Faultbox/omnistep/internal/session"
	"github.com/Faultbox/omnistep/internal/telemetry"
)

// viewHeight is the virtual viewport height used for the camera.
const viewHeight = 720

var (
	flagScript = flag.String("script", "", "Input script to replay (YAML)")
	flagCSV    = flag.String("csv", "", "Write recorded keyframes to this CSV file")
	flagPlot   = flag.String("plot", "", "Write a top-down PNG of the recorded path")
	flagSize   = flag.Int("plot-size", 1024, "Edge of the path plot in pixels")
	flagServe  = flag.Bool("serve", false, "Keep ticking after the script until interrupted")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *flagCSV != "" || *flagPlot != "" {
		cfg.Recorder.Enabled = true
		cfg.Recorder.Record = true
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("sim")

	for _, note := range cfg.Validate() {
		log.Warn("config adjusted", zap.String("note", note))
	}
	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			log.Error("failed to write config", zap.Error(err))
			os.Exit(1)
		}
		log.Info("config written", zap.String("path", path))
		return
	}

	flush, err := telemetry.InitCrashReporting(telemetry.CrashOptions{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	})
	if err != nil {
		log.Warn("crash reporting disabled", zap.Error(err))
	}
	defer flush()
	defer sentry.Recover()

	if err := run(cfg, log); err != nil {
		log.Error("simulation failed", zap.Error(err))
		flush()
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	sc, err := scene.Load(cfg.Scene.Path, logger.Named("scene"))
	if err != nil {
		return err
	}

	var script *session.Script
	if *flagScript != "" {
		if script, err = session.LoadScript(*flagScript); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.New()
	var srv *remote.Server
	served := make(chan error, 1)
	if cfg.Remote.Enabled {
		srv = remote.NewServer(cfg.Remote, remote.Options{
			Observer: metrics,
			Metrics:  metrics.Handler(),
			Log:      logger.Named("remote"),
		})
		go func() { served <- srv.Run(ctx) }()
	}

	cam := camera.NewViewport(
		camera.FromPitchYaw(mgl32.Vec3{0, 0, cfg.Motion.PlayerHeight}, math32.Pi/2, 0),
		viewHeight)
	cam.Focal = cfg.Window.FocalLength

	s, err := session.New(cfg.Session(), session.Options{
		Camera:  cam,
		Scene:   sc,
		Metrics: metrics,
		Remote:  srv,
		Log:     logger.Named("session"),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	if script != nil {
		log.Info("replaying script",
			zap.String("path", *flagScript),
			zap.Int("frames", script.Frames()))
		if err := s.Play(script); err != nil {
			return err
		}
	}

	if *flagServe {
		if err := serve(ctx, s, log); err != nil {
			return err
		}
	}

	stats := s.Clock().Stats()
	snap := s.Snapshot()
	log.Info("simulation finished",
		zap.Uint64("frames", s.Clock().Frame()),
		zap.Float64("scene_time", s.Clock().Elapsed()),
		zap.Duration("wall_time", time.Since(start)),
		zap.Float64("frame_mean", stats.Mean),
		zap.Float64("frame_stddev", stats.StdDev),
		zap.String("mode", snap.Mode),
		zap.Float32s("position", snap.Position[:]))

	if err := export(s, log); err != nil {
		return err
	}

	if srv != nil {
		stop()
		if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control API: %w", err)
		}
	}
	return nil
}

// serve ticks the session in real time at the clock rate until ctx ends.
func serve(ctx context.Context, s *session.Session, log *zap.Logger) error {
	clk := s.Clock()
	ticker := time.NewTicker(time.Duration(float64(clk.Target()) * float64(time.Second)))
	defer ticker.Stop()

	log.Info("serving", zap.Float32("fps", clk.FPS()))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("interrupted")
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if err := s.Frame(dt); err != nil {
				return err
			}
		}
	}
}

func export(s *session.Session, log *zap.Logger) error {
	rec := s.Recorder()
	if rec.Len() == 0 {
		return nil
	}
	if *flagCSV != "" {
		if err := rec.SaveCSV(*flagCSV); err != nil {
			return err
		}
		log.Info("keyframes written", zap.String("path", *flagCSV), zap.Int("count", rec.Len()))
	}
	if *flagPlot != "" {
		if err := rec.SavePlot(*flagPlot, *flagSize); err != nil {
			return err
		}
		log.Info("path plot written", zap.String("path", *flagPlot))
	}
	return nil
}
