package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to open output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to snapshot config", "error", err)
		os.Exit(1)
	}

	if *headless {
		runHeadless(cfg, rngSeed, output, *logStats, *maxTicks)
		return
	}
	runViewer(cfg, rngSeed, output, *logStats, *maxTicks)
}

// runHeadless steps the simulation at the configured fixed timestep with no
// window, for batch runs and parameter searches.
func runHeadless(cfg *config.Config, seed int64, output *telemetry.OutputManager, logStats bool, maxTicks int) {
	eng := sim.NewEngine(cfg, seed, output)
	defer eng.Close()
	eng.LogStats = logStats

	slog.Info("starting headless simulation",
		"seed", seed,
		"dt", cfg.Sim.DT,
		"max_ticks", maxTicks,
	)

	for {
		eng.Step(cfg.Sim.DT)
		if maxTicks > 0 && int(eng.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", eng.Tick())
			return
		}
	}
}

// runViewer runs the interactive raylib viewer: orbit camera on right drag,
// wheel to dolly, WASD pans, Tab cycles the tuning panel's school, H hides it.
func runViewer(cfg *config.Config, seed int64, output *telemetry.OutputManager, logStats bool, maxTicks int) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Shoal")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	eng := sim.NewEngine(cfg, seed, output)
	defer eng.Close()
	eng.LogStats = logStats

	cam := camera.New(r3.Vec{Y: -10}, 180)
	rend := renderer.New()
	panel := ui.New()
	paused := false

	for !rl.WindowShouldClose() {
		dt := float64(rl.GetFrameTime())

		handleInput(cam, panel, eng, &paused)

		if !paused {
			eng.Step(dt)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 8, G: 20, B: 38, A: 255})
		rend.Draw(eng, cam)
		panel.Draw(eng, cfg.Screen.Width)
		rl.DrawFPS(10, 10)
		rl.EndDrawing()

		if maxTicks > 0 && int(eng.Tick()) >= maxTicks {
			break
		}
	}
}

func handleInput(cam *camera.Camera, panel *ui.Panel, eng *sim.Engine, paused *bool) {
	const orbitSpeed = 0.005
	const panSpeed = 60.0

	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Orbit(float64(-d.X)*orbitSpeed, float64(d.Y)*orbitSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.Dolly(1 - float64(wheel)*0.1)
	}

	dt := float64(rl.GetFrameTime())
	if rl.IsKeyDown(rl.KeyW) {
		cam.Pan(0, panSpeed*dt)
	}
	if rl.IsKeyDown(rl.KeyS) {
		cam.Pan(0, -panSpeed*dt)
	}
	if rl.IsKeyDown(rl.KeyA) {
		cam.Pan(-panSpeed*dt, 0)
	}
	if rl.IsKeyDown(rl.KeyD) {
		cam.Pan(panSpeed*dt, 0)
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		*paused = !*paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		panel.NextSchool(eng.SchoolCount())
	}
	if rl.IsKeyPressed(rl.KeyH) {
		panel.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		cam.Reset()
	}
}
