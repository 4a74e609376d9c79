package sim

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

// targetMover drifts one school's seek target between random points inside
// the school's bounds. Each completed traverse re-rolls a destination and a
// duration in the configured range.
type targetMover struct {
	school   int
	start    r3.Vec
	end      r3.Vec
	elapsed  float64
	duration float64

	lerpMin float64
	lerpMax float64
	min     r3.Vec
	max     r3.Vec
}

func newTargetMover(school int, s *flock.School, sc *config.SchoolConfig, rng *rand.Rand) *targetMover {
	m := &targetMover{
		school:  school,
		lerpMin: sc.TargetLerpMin,
		lerpMax: sc.TargetLerpMax,
		min:     s.BoundsMin,
		max:     s.BoundsMax,
	}
	m.start = m.randomPoint(rng)
	m.end = m.randomPoint(rng)
	m.duration = m.randomDuration(rng)
	return m
}

// advance moves the target's clock forward, rolling over to a fresh
// destination as each traverse completes.
func (m *targetMover) advance(dt float64, rng *rand.Rand) {
	m.elapsed += dt
	for m.elapsed >= m.duration {
		m.elapsed -= m.duration
		m.start = m.end
		m.end = m.randomPoint(rng)
		m.duration = m.randomDuration(rng)
	}
}

// pos returns the target's current interpolated position.
func (m *targetMover) pos() r3.Vec {
	t := m.elapsed / m.duration
	return r3.Add(m.start, r3.Scale(t, r3.Sub(m.end, m.start)))
}

func (m *targetMover) randomPoint(rng *rand.Rand) r3.Vec {
	return r3.Vec{
		X: m.min.X + rng.Float64()*(m.max.X-m.min.X),
		Y: m.min.Y + rng.Float64()*(m.max.Y-m.min.Y),
		Z: m.min.Z + rng.Float64()*(m.max.Z-m.min.Z),
	}
}

func (m *targetMover) randomDuration(rng *rand.Rand) float64 {
	return m.lerpMin + rng.Float64()*(m.lerpMax-m.lerpMin)
}

// advanceTargets steps every mover and rebuilds the pooled target list the
// schools filter per frame.
func (e *Engine) advanceTargets(dt float64) {
	e.targets = e.targets[:0]
	for _, m := range e.movers {
		m.advance(dt, e.rng)
		e.targets = append(e.targets, flock.Target{Pos: m.pos(), School: m.school})
	}
}
