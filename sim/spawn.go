package sim

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
)

// mutation is a deferred population change. Positive count spawns, negative
// despawns. Mutations queue during a frame and apply only at frame end so
// the extract and apply passes always see the same entity set.
type mutation struct {
	school int
	count  int
}

// Spawn queues n new agents for a school at frame end.
func (e *Engine) Spawn(school, n int) {
	if school < 0 || school >= len(e.schools) || n <= 0 {
		return
	}
	e.mutations = append(e.mutations, mutation{school: school, count: n})
}

// Despawn queues removal of up to n of a school's agents at frame end.
func (e *Engine) Despawn(school, n int) {
	if school < 0 || school >= len(e.schools) || n <= 0 {
		return
	}
	e.mutations = append(e.mutations, mutation{school: school, count: -n})
}

// applyMutations drains the mutation queue. Runs after apply, so removals
// operate on live entities and additions join next frame's extract.
func (e *Engine) applyMutations() {
	for _, m := range e.mutations {
		if m.count > 0 {
			e.spawnAgents(m.school, m.count)
			e.stats.RecordSpawns(m.count)
			slog.Debug("spawned", "school", e.names[m.school], "count", m.count)
		} else {
			removed := e.despawnAgents(m.school, -m.count)
			e.stats.RecordDespawns(removed)
			slog.Debug("despawned", "school", e.names[m.school], "count", removed)
		}
	}
	e.mutations = e.mutations[:0]
}

// spawnAgents creates n agents inside the school's bounds with randomized
// positions, headings, and animation phases.
func (e *Engine) spawnAgents(school, n int) {
	sc := &e.cfg.Schools[school]
	s := &e.schools[school]

	role := components.RoleNone
	size := sc.Scale
	if sc.Predator {
		role = components.RoleHunter
		size = sc.PredatorSize
	} else if sc.Prey {
		role = components.RoleQuarry
	}

	for k := 0; k < n; k++ {
		p := e.randomPointIn(s)
		h := e.randomHeading()

		pos := components.Position{Point: p, Scale: sc.Scale}
		head := components.Heading{Dir: h, Prev: h}
		motion := components.Motion{MoveMod: 1, TargetMod: 1}
		// Spread animation phase so the school does not swim in lockstep.
		swim := components.Swim{Time: e.rng.Float64()}
		mem := components.Membership{School: school, Role: role, Size: size, Enabled: true}
		pose := components.Pose{Orient: flock.LookRotation(h)}

		e.mapper.NewEntity(&pos, &head, &motion, &swim, &mem, &pose)
	}
}

// despawnAgents removes up to n of the school's agents, newest first, and
// reports how many were actually removed.
func (e *Engine) despawnAgents(school, n int) int {
	ents := e.entities[school]
	removed := 0
	for len(ents) > 0 && removed < n {
		last := ents[len(ents)-1]
		ents = ents[:len(ents)-1]
		if e.world.Alive(last) {
			e.mapper.Remove(last)
			removed++
		}
	}
	e.entities[school] = ents
	return removed
}

// randomPointIn picks a uniform point inside the school's bounds, inset by
// one cell radius so new agents do not start inside the containment band.
func (e *Engine) randomPointIn(s *flock.School) r3.Vec {
	inset := s.CellRadius
	lo := r3.Add(s.BoundsMin, r3.Vec{X: inset, Y: inset, Z: inset})
	hi := r3.Sub(s.BoundsMax, r3.Vec{X: inset, Y: inset, Z: inset})
	if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
		lo, hi = s.BoundsMin, s.BoundsMax
	}
	return r3.Vec{
		X: lo.X + e.rng.Float64()*(hi.X-lo.X),
		Y: lo.Y + e.rng.Float64()*(hi.Y-lo.Y),
		Z: lo.Z + e.rng.Float64()*(hi.Z-lo.Z),
	}
}

// randomHeading picks a unit heading with a random yaw and level pitch.
func (e *Engine) randomHeading() r3.Vec {
	yaw := e.rng.Float64() * 2 * math.Pi
	return r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
}
