package sim

import (
	"testing"

	"github.com/pthm-cable/shoal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Sim:       config.SimConfig{DT: 0.016},
		Flee:      config.FleeConfig{DetectPad: 10},
		Bend:      config.BendConfig{Deadzone: 0.2, Gain: 0.5, Max: 1, SlewRate: 2},
		Terrain:   config.TerrainConfig{Seed: 1, Size: 400, BaseHeight: -40, HeightScale: 6, NoiseScale: 0.015},
		Telemetry: config.TelemetryConfig{StatsWindow: 2, PerfWindow: 16},
		Schools: []config.SchoolConfig{
			{
				Name: "minnow", Count: 20, Scale: 1,
				Separation: 1, Alignment: 1, TargetWeight: 1,
				AversionDistance: 2, CellRadius: 8, Speed: 10,
				MaxTurnRate: 3, MaxVerticalAngle: 0.6,
				BoundsMin: [3]float64{-80, -35, -80},
				BoundsMax: [3]float64{80, 20, 80},
				Prey:      true,
				StateTransitionSpeed: 2, AnimationSpeed: 1,
				TargetLerpMin: 5, TargetLerpMax: 10,
			},
			{
				Name: "crab", Count: 5, Scale: 1.5,
				Separation: 1, Alignment: 0.4, TargetWeight: 0.8,
				AversionDistance: 1.5, CellRadius: 8, Speed: 4,
				MaxTurnRate: 2.5, MaxVerticalAngle: 0,
				BoundsMin:   [3]float64{-80, -50, -80},
				BoundsMax:   [3]float64{80, 0, 80},
				SeabedBound: true, Prey: true,
				StateTransitionSpeed: 2, AnimationSpeed: 0.6,
				TargetLerpMin: 5, TargetLerpMax: 10,
			},
		},
		Obstacles: []config.ObstacleConfig{
			{Pos: [3]float64{40, -10, 30}, HalfExtent: [3]float64{5, 5, 5}},
		},
	}
}

func TestEngineSpawnsConfiguredCounts(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.Step(cfg.Sim.DT)

	for i := range cfg.Schools {
		if got := eng.Agents(i).Len(); got != cfg.Schools[i].Count {
			t.Errorf("school %q has %d agents, want %d", cfg.Schools[i].Name, got, cfg.Schools[i].Count)
		}
	}
	if eng.SchoolCount() != 2 {
		t.Errorf("SchoolCount = %d, want 2", eng.SchoolCount())
	}
}

func TestEngineStepAdvancesTick(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.Step(cfg.Sim.DT)
	eng.Step(cfg.Sim.DT)
	if eng.Tick() != 2 {
		t.Errorf("Tick = %d, want 2", eng.Tick())
	}

	// Non-positive dt is a no-op.
	eng.Step(0)
	eng.Step(-1)
	if eng.Tick() != 2 {
		t.Errorf("Tick advanced on non-positive dt: %d", eng.Tick())
	}
}

func TestEngineStepDeterministic(t *testing.T) {
	cfg := testConfig()
	a := NewEngine(cfg, 7, nil)
	defer a.Close()
	b := NewEngine(testConfig(), 7, nil)
	defer b.Close()

	for i := 0; i < 10; i++ {
		a.Step(cfg.Sim.DT)
		b.Step(cfg.Sim.DT)
	}

	agA, agB := a.Agents(0), b.Agents(0)
	if agA.Len() != agB.Len() {
		t.Fatalf("agent counts diverged: %d vs %d", agA.Len(), agB.Len())
	}
	for i := 0; i < agA.Len(); i++ {
		if agA.Pos[i] != agB.Pos[i] {
			t.Fatalf("same seed diverged at agent %d: %v vs %v", i, agA.Pos[i], agB.Pos[i])
		}
	}
}

func TestDeferredSpawnAndDespawn(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.Step(cfg.Sim.DT)
	base := eng.Agents(0).Len()

	// A queued despawn leaves the current frame's working set untouched.
	eng.Despawn(0, 3)
	eng.Step(cfg.Sim.DT)
	if got := eng.Agents(0).Len(); got != base {
		t.Errorf("despawn applied mid-frame: %d, want %d", got, base)
	}
	eng.Step(cfg.Sim.DT)
	if got := eng.Agents(0).Len(); got != base-3 {
		t.Errorf("after despawn: %d agents, want %d", got, base-3)
	}

	eng.Spawn(0, 5)
	eng.Step(cfg.Sim.DT)
	eng.Step(cfg.Sim.DT)
	if got := eng.Agents(0).Len(); got != base+2 {
		t.Errorf("after spawn: %d agents, want %d", got, base+2)
	}
}

func TestSeabedSchoolPinnedToTerrain(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.Step(cfg.Sim.DT)

	field := eng.Terrain()
	ag := eng.Agents(1) // crab school
	for i := 0; i < ag.Len(); i++ {
		p := ag.Pos[i]
		if !field.Contains(p.X, p.Z) {
			continue
		}
		if want := field.HeightAt(p.X, p.Z); p.Y != want {
			t.Errorf("crab %d Y = %v, want terrain height %v", i, p.Y, want)
		}
	}
}

func TestEngineMetrics(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	for i := 0; i < 5; i++ {
		eng.Step(cfg.Sim.DT)
	}

	pol, con := eng.Metrics()
	if pol < 0 || pol > 1 {
		t.Errorf("polarization = %v, want [0,1]", pol)
	}
	if con < 0 || con > 1 {
		t.Errorf("containment = %v, want [0,1]", con)
	}
	// Agents spawn inset from the bounds; after a few small steps nearly
	// everything is still contained.
	if con < 0.9 {
		t.Errorf("containment = %v right after spawn, want >= 0.9", con)
	}
}

func TestSetSchoolWeights(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.SetSchoolWeights(0, 2.5, 0.5, 1.5)
	s := eng.School(0)
	if s.SeparationWeight != 2.5 || s.AlignmentWeight != 0.5 || s.TargetWeight != 1.5 {
		t.Errorf("weights not applied: %+v", s)
	}

	// Out-of-range school index is ignored.
	eng.SetSchoolWeights(99, 1, 1, 1)
}

func TestTargetsOnePerSchool(t *testing.T) {
	cfg := testConfig()
	eng := NewEngine(cfg, 1, nil)
	defer eng.Close()

	eng.Step(cfg.Sim.DT)

	targets := eng.Targets()
	if len(targets) != len(cfg.Schools) {
		t.Fatalf("%d targets, want one per school (%d)", len(targets), len(cfg.Schools))
	}
	seen := make(map[int]bool)
	for _, tg := range targets {
		if seen[tg.School] {
			t.Errorf("school %d has multiple targets", tg.School)
		}
		seen[tg.School] = true

		s := eng.School(tg.School)
		if tg.Pos.X < s.BoundsMin.X || tg.Pos.X > s.BoundsMax.X ||
			tg.Pos.Y < s.BoundsMin.Y || tg.Pos.Y > s.BoundsMax.Y ||
			tg.Pos.Z < s.BoundsMin.Z || tg.Pos.Z > s.BoundsMax.Z {
			t.Errorf("target for school %d outside bounds: %v", tg.School, tg.Pos)
		}
	}
}
