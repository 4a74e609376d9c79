package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// animTimeWrap bounds accumulated animation time to keep float precision.
const animTimeWrap = 1_000_000

// animateAgents runs the four animation passes. The passes are strictly
// sequential because each consumes the previous pass's output, but every
// pass is independent across agents.
func (f *Frame) animateAgents(s *School, ag *Agents, tuning *Tuning, dt float64) {
	f.bendPass(ag, tuning, dt)
	f.timePass(s, ag, dt)
	f.speedPass(s, ag, dt)
	f.slewPass(ag, tuning, dt)
}

// bendPass derives the signed horizontal turn rate since the previous frame
// and shapes it into this frame's bend target: deadzone, gain, clamp.
func (f *Frame) bendPass(ag *Agents, tuning *Tuning, dt float64) {
	f.pool.forEach(ag.Len(), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			prev := ag.Prev[i]
			cur := ag.Heading[i]

			prevYaw := math.Atan2(prev.X, prev.Z)
			curYaw := math.Atan2(cur.X, cur.Z)
			angVel := wrapAngle(curYaw-prevYaw) / dt

			if math.Abs(angVel) < tuning.BendDeadzone {
				angVel = 0
			}
			ag.TargetBend[i] = clamp(angVel*tuning.BendGain, -tuning.MaxBend, tuning.MaxBend)
			ag.Prev[i] = cur
		}
	})
}

// timePass accumulates animation time, wrapping to bound precision loss.
func (f *Frame) timePass(s *School, ag *Agents, dt float64) {
	f.pool.forEach(ag.Len(), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			ag.AnimTime[i] += dt * s.AnimationSpeed * ag.MoveMod[i]
			if ag.AnimTime[i] > animTimeWrap {
				ag.AnimTime[i] = math.Mod(ag.AnimTime[i], animTimeWrap)
			}
		}
	})
}

// speedPass moves the move-speed modifier toward its target exponentially:
// alpha = 1 - exp(-k*dt).
func (f *Frame) speedPass(s *School, ag *Agents, dt float64) {
	k := math.Max(epsilon, s.StateTransitionSpeed)
	alpha := 1 - math.Exp(-k*dt)
	f.pool.forEach(ag.Len(), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			ag.MoveMod[i] += (ag.TargetMod[i] - ag.MoveMod[i]) * alpha
		}
	})
}

// slewPass moves the emitted bend vector toward the bend target at a fixed
// rate, never overshooting within one step.
func (f *Frame) slewPass(ag *Agents, tuning *Tuning, dt float64) {
	step := tuning.BendSlewRate * dt
	f.pool.forEach(ag.Len(), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			goal := r3.Vec{X: ag.TargetBend[i]}
			delta := r3.Sub(goal, ag.Bend[i])
			dist := r3.Norm(delta)
			if dist <= step || dist < epsilon {
				ag.Bend[i] = goal
				continue
			}
			ag.Bend[i] = r3.Add(ag.Bend[i], r3.Scale(step/dist, delta))
		}
	})
}
