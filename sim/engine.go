// Package sim owns the entity store and drives the flock pipeline: it
// extracts per-school working sets from the ECS, steps each school, clamps
// seabed dwellers, writes results back, and applies deferred population
// changes at frame end.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/terrain"
)

// Engine is the simulation: the entity world plus the frame pipeline and
// everything extracted from or written back to it.
type Engine struct {
	world  *ecs.World
	mapper *ecs.Map6[
		components.Position,
		components.Heading,
		components.Motion,
		components.Swim,
		components.Membership,
		components.Pose,
	]
	filter *ecs.Filter6[
		components.Position,
		components.Heading,
		components.Motion,
		components.Swim,
		components.Membership,
		components.Pose,
	]

	cfg *config.Config
	rng *rand.Rand

	schools  []flock.School
	names    []string
	agents   []*flock.Agents
	entities [][]ecs.Entity
	cursor   []int

	movers    []*targetMover
	targets   []flock.Target
	obstacles []flock.Obstacle
	predators []flock.Predator

	frame  *flock.Frame
	field  *terrain.Field
	tuning flock.Tuning

	perf   *telemetry.PerfCollector
	stats  *telemetry.Collector
	output *telemetry.OutputManager

	// LogStats mirrors window stats and perf summaries to the log.
	LogStats bool

	mutations []mutation

	tick      int64
	simTime   float64
	occupancy float64
}

// NewEngine builds the world from configuration, spawns the initial
// populations, and starts the pipeline's worker pool.
func NewEngine(cfg *config.Config, seed int64, output *telemetry.OutputManager) *Engine {
	world := ecs.NewWorld()

	e := &Engine{
		world: world,
		mapper: ecs.NewMap6[
			components.Position,
			components.Heading,
			components.Motion,
			components.Swim,
			components.Membership,
			components.Pose,
		](world),
		filter: ecs.NewFilter6[
			components.Position,
			components.Heading,
			components.Motion,
			components.Swim,
			components.Membership,
			components.Pose,
		](world),
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		frame:  flock.NewFrame(),
		output: output,
		perf:   telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		stats:  telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		tuning: flock.Tuning{
			FleeDetectPad: cfg.Flee.DetectPad,
			BendDeadzone:  cfg.Bend.Deadzone,
			BendGain:      cfg.Bend.Gain,
			MaxBend:       cfg.Bend.Max,
			BendSlewRate:  cfg.Bend.SlewRate,
		},
	}

	e.field = terrain.New(
		cfg.Terrain.Seed,
		cfg.Terrain.Size,
		cfg.Terrain.BaseHeight,
		cfg.Terrain.HeightScale,
		cfg.Terrain.NoiseScale,
	)

	for _, o := range cfg.Obstacles {
		e.obstacles = append(e.obstacles, flock.Obstacle{
			Pos:        vec3(o.Pos),
			HalfExtent: vec3(o.HalfExtent),
		})
	}

	for i := range cfg.Schools {
		sc := &cfg.Schools[i]
		e.schools = append(e.schools, flock.School{
			ID:                   i,
			SeparationWeight:     sc.Separation,
			AlignmentWeight:      sc.Alignment,
			TargetWeight:         sc.TargetWeight,
			AversionDistance:     sc.AversionDistance,
			CellRadius:           sc.CellRadius,
			Speed:                sc.Speed,
			MaxTurnRate:          sc.MaxTurnRate,
			MaxVerticalAngle:     sc.MaxVerticalAngle,
			BoundsMin:            vec3(sc.BoundsMin),
			BoundsMax:            vec3(sc.BoundsMax),
			SeabedBound:          sc.SeabedBound,
			Hunts:                sc.Predator,
			Flees:                sc.Prey,
			StateTransitionSpeed: sc.StateTransitionSpeed,
			AnimationSpeed:       sc.AnimationSpeed,
		})
		e.names = append(e.names, sc.Name)
		e.agents = append(e.agents, &flock.Agents{})
		e.entities = append(e.entities, nil)
		e.movers = append(e.movers, newTargetMover(i, &e.schools[i], sc, e.rng))
	}
	e.cursor = make([]int, len(e.schools))

	for i := range cfg.Schools {
		e.spawnAgents(i, cfg.Schools[i].Count)
	}

	slog.Info("engine ready",
		"schools", len(e.schools),
		"agents", e.agentCount(),
		"obstacles", len(e.obstacles),
		"seed", seed,
	)
	return e
}

// Close stops the pipeline's worker pool.
func (e *Engine) Close() {
	e.frame.Close()
}

// Step advances the simulation by dt seconds.
func (e *Engine) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > flock.MaxDT {
		dt = flock.MaxDT
	}

	e.perf.StartFrame()

	e.perf.StartPhase(telemetry.PhaseTargets)
	e.advanceTargets(dt)

	e.perf.StartPhase(telemetry.PhaseExtract)
	e.extract()

	e.perf.StartPhase(telemetry.PhaseSteer)
	var occ float64
	occupied := 0
	for i := range e.schools {
		e.frame.Step(flock.Input{
			School:    e.schools[i],
			Agents:    e.agents[i],
			Targets:   e.targets,
			Obstacles: e.obstacles,
			Predators: e.predators,
			Tuning:    e.tuning,
			DT:        dt,
		})
		if e.agents[i].Len() > 0 {
			occ += e.frame.MeanCellOccupancy()
			occupied++
		}
	}
	if occupied > 0 {
		e.occupancy = occ / float64(occupied)
	}

	// Seabed clamp runs only after every school has steered; it reads the
	// steered positions, never the extracted ones.
	e.perf.StartPhase(telemetry.PhaseSeabed)
	for i := range e.schools {
		if e.schools[i].SeabedBound {
			flock.ClampToSeabed(&e.schools[i], e.agents[i], e.field.CastRay)
		}
	}

	e.perf.StartPhase(telemetry.PhaseApply)
	e.apply()

	e.perf.StartPhase(telemetry.PhaseMutations)
	e.applyMutations()

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.tick++
	e.simTime += dt
	if e.stats.Tick(dt) {
		ws := e.stats.Flush(e.tick, e.simTime, e.sample())
		if e.LogStats {
			ws.LogStats()
		}
		if err := e.output.WriteTelemetry(ws); err != nil {
			slog.Error("telemetry write failed", "error", err)
		}
		ps := e.perf.Stats()
		if e.LogStats {
			ps.LogStats()
		}
		if err := e.output.WritePerf(ps, e.tick); err != nil {
			slog.Error("perf write failed", "error", err)
		}
	}

	e.perf.EndFrame()
}

// extract copies every enabled agent into its school's working set and
// snapshots hunter positions for the prey schools.
func (e *Engine) extract() {
	for i := range e.agents {
		e.agents[i].Reset()
		e.entities[i] = e.entities[i][:0]
	}
	e.predators = e.predators[:0]

	query := e.filter.Query()
	for query.Next() {
		pos, head, motion, swim, mem, _ := query.Get()
		if !mem.Enabled {
			continue
		}
		s := mem.School

		// Target speed modifier resets each frame; steering raises it
		// again if the agent is still fleeing.
		e.agents[s].Append(pos.Point, pos.Scale, head.Dir, head.Prev,
			motion.MoveMod, 1, swim.Bend, swim.Time, e.schools[s].Flees)
		e.entities[s] = append(e.entities[s], query.Entity())

		if mem.Role == components.RoleHunter {
			e.predators = append(e.predators, flock.Predator{Pos: pos.Point, Size: mem.Size})
		}
	}
}

// apply writes the stepped working sets back to the store. The query visits
// entities in the same order as extract because no structural change happens
// between the two passes.
func (e *Engine) apply() {
	for i := range e.cursor {
		e.cursor[i] = 0
	}

	query := e.filter.Query()
	for query.Next() {
		pos, head, motion, swim, mem, pose := query.Get()
		if !mem.Enabled {
			continue
		}
		ag := e.agents[mem.School]
		i := e.cursor[mem.School]
		e.cursor[mem.School]++

		pos.Point = ag.Pos[i]
		head.Dir = ag.Heading[i]
		head.Prev = ag.Prev[i]
		motion.MoveMod = ag.MoveMod[i]
		motion.TargetMod = ag.TargetMod[i]
		swim.Bend = ag.Bend[i]
		swim.TargetBend = ag.TargetBend[i]
		swim.Time = ag.AnimTime[i]
		pose.Orient = ag.Orient[i]
	}
}

// sample snapshots flock shape for the stats window flush.
func (e *Engine) sample() telemetry.Sample {
	var sum r3.Vec
	total := 0
	fleeing := 0
	var moveMods, bends []float64

	for _, ag := range e.agents {
		for i := 0; i < ag.Len(); i++ {
			sum = r3.Add(sum, ag.Heading[i])
			if ag.TargetMod[i] >= flock.FleeSpeedMod {
				fleeing++
			}
			moveMods = append(moveMods, ag.MoveMod[i])
			b := ag.TargetBend[i]
			if b < 0 {
				b = -b
			}
			bends = append(bends, b)
		}
		total += ag.Len()
	}

	var pol float64
	if total > 0 {
		pol = r3.Norm(sum) / float64(total)
	}

	return telemetry.Sample{
		Agents:        total,
		Schools:       len(e.schools),
		Polarization:  pol,
		Fleeing:       fleeing,
		CellOccupancy: e.occupancy,
		MoveMods:      moveMods,
		Bends:         bends,
	}
}

// Metrics reports mean heading coherence and the fraction of agents inside
// their school bounds, for parameter search fitness.
func (e *Engine) Metrics() (polarization, containment float64) {
	var sum r3.Vec
	total := 0
	inside := 0
	for si, ag := range e.agents {
		s := &e.schools[si]
		for i := 0; i < ag.Len(); i++ {
			sum = r3.Add(sum, ag.Heading[i])
			p := ag.Pos[i]
			if p.X >= s.BoundsMin.X && p.X <= s.BoundsMax.X &&
				p.Y >= s.BoundsMin.Y && p.Y <= s.BoundsMax.Y &&
				p.Z >= s.BoundsMin.Z && p.Z <= s.BoundsMax.Z {
				inside++
			}
		}
		total += ag.Len()
	}
	if total == 0 {
		return 0, 0
	}
	return r3.Norm(sum) / float64(total), float64(inside) / float64(total)
}

// SetSchoolWeights overrides a school's steering weights at runtime.
func (e *Engine) SetSchoolWeights(school int, separation, alignment, target float64) {
	if school < 0 || school >= len(e.schools) {
		return
	}
	s := &e.schools[school]
	s.SeparationWeight = separation
	s.AlignmentWeight = alignment
	s.TargetWeight = target
}

// SchoolCount returns the number of schools.
func (e *Engine) SchoolCount() int { return len(e.schools) }

// School returns a snapshot of a school's parameters.
func (e *Engine) School(i int) flock.School { return e.schools[i] }

// SchoolName returns a school's configured name.
func (e *Engine) SchoolName(i int) string { return e.names[i] }

// Agents exposes a school's working set for rendering. Valid between Steps.
func (e *Engine) Agents(i int) *flock.Agents { return e.agents[i] }

// Obstacles returns the static obstacle set.
func (e *Engine) Obstacles() []flock.Obstacle { return e.obstacles }

// Targets returns the current frame's target points.
func (e *Engine) Targets() []flock.Target { return e.targets }

// Terrain returns the seabed heightfield.
func (e *Engine) Terrain() *terrain.Field { return e.field }

// Tick returns the number of completed steps.
func (e *Engine) Tick() int64 { return e.tick }

// SimTime returns accumulated simulated seconds.
func (e *Engine) SimTime() float64 { return e.simTime }

func (e *Engine) agentCount() int {
	n := 0
	for i := range e.cfg.Schools {
		n += e.cfg.Schools[i].Count
	}
	return n
}

func vec3(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
