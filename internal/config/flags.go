package config

import (
	"flag"

	"github.com/Faultbox/omnistep/internal/engine/motion"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScene      = flag.String("scene", "", "Scene file")
	flagMode       = flag.String("mode", "", "Start mode: WALK or FLY")
	flagFPS        = flag.Float64("fps", 0, "Scene frame rate")
	flagFixed      = flag.Bool("fixed", false, "Simulate every frame at the target timestep")
	flagRecord     = flag.Bool("record", false, "Record the player path")
	flagAPI        = flag.Bool("api", false, "Enable the local control API")
	flagListen     = flag.String("listen", "", "Control API address (loopback only)")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagWrite      = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config target, if any.
func WriteConfigPath() string {
	return *flagWrite
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagMode != "" {
		if m, err := motion.ParseMode(*flagMode); err == nil {
			cfg.Motion.Mode = m
		}
	}
	if *flagFPS > 0 {
		cfg.Clock.FPS = float32(*flagFPS)
	}
	if *flagFixed {
		cfg.Clock.FixedTimestep = true
	}
	if *flagRecord {
		cfg.Recorder.Enabled = true
		cfg.Recorder.Record = true
	}
	if *flagAPI {
		cfg.Remote.Enabled = true
	}
	if *flagListen != "" {
		cfg.Remote.Listen = *flagListen
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
