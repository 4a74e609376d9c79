package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// steerAgents computes each agent's new heading and position from the cell
// aggregates. Fully data-parallel: every agent reads immutable aggregates
// and writes only its own slots.
func (f *Frame) steerAgents(s *School, ag *Agents, targets []Target, obstacles []Obstacle, predators []Predator, tuning *Tuning, dt float64) {
	f.pool.forEach(ag.Len(), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			f.steerOne(s, ag, i, targets, obstacles, predators, tuning, dt)
		}
	})
}

func (f *Frame) steerOne(s *School, ag *Agents, i int, targets []Target, obstacles []Obstacle, predators []Predator, tuning *Tuning, dt float64) {
	cell := &f.cells[f.cellOf[i]]
	pos := ag.Pos[i]
	own := ag.Heading[i]

	// Alignment pulls toward the cell's average heading, separation pushes
	// off the cell's centroid, target seeking pulls toward the nearest
	// school target. Every normalize is safe: degenerate input yields a
	// zero contribution instead of NaN.
	inv := 1 / float64(cell.Count)
	avgHeading := r3.Scale(inv, cell.SumHeading)
	alignment := r3.Scale(s.AlignmentWeight, safeNormalize(r3.Sub(avgHeading, own)))
	separation := r3.Scale(s.SeparationWeight,
		safeNormalize(r3.Sub(r3.Scale(float64(cell.Count), pos), cell.SumPos)))
	targetPull := r3.Scale(s.TargetWeight,
		safeNormalize(r3.Sub(targets[cell.TargetIdx].Pos, pos)))

	normalHeading := safeNormalize(r3.Add(alignment, r3.Add(separation, targetPull)))

	// Obstacle avoidance: head for the standoff point on the obstacle's
	// aversion sphere. Strength ramps from 0 at the sphere surface to 1 at
	// half the effective radius inside it.
	obs := obstacles[cell.ObstacleIdx]
	effR := s.AversionDistance + maxExtent(obs.HalfExtent)
	outDir := safeNormalize(r3.Sub(pos, obs.Pos))
	standoff := r3.Add(obs.Pos, r3.Scale(effR, outDir))
	avoidHeading := safeNormalize(r3.Sub(standoff, pos))

	penetration := cell.ObstacleDist - effR
	tObstacle := saturate(-penetration / math.Max(epsilon, effR/2))
	tAvoid := tObstacle

	if ag.Prey[i] && cell.PredatorIdx >= 0 {
		pred := predators[cell.PredatorIdx]
		predHalf := pred.Size / 2
		effP := s.AversionDistance + predHalf

		predOut := safeNormalize(r3.Sub(pos, pred.Pos))
		predStandoff := r3.Add(pred.Pos, r3.Scale(effP, predOut))
		predHeading := safeNormalize(r3.Sub(predStandoff, pos))

		predPen := cell.PredatorDist - effP
		tPredator := saturate(-predPen / math.Max(epsilon, effP/2))

		if cell.PredatorDist < s.AversionDistance+tuning.FleeDetectPad+predHalf {
			ag.TargetMod[i] = FleeSpeedMod
		}

		// Blend the two avoidance headings by relative distance: the
		// closer threat dominates.
		total := cell.ObstacleDist + cell.PredatorDist
		if total > epsilon {
			wObstacle := cell.PredatorDist / total
			avoidHeading = safeNormalize(r3.Add(
				r3.Scale(wObstacle, avoidHeading),
				r3.Scale(1-wObstacle, predHeading)))
		}
		if tPredator > tAvoid {
			tAvoid = tPredator
		}
	}

	blended := safeNormalize(lerpVec(normalHeading, avoidHeading, tAvoid))

	next := limitTurn(own, blended, s.MaxTurnRate, dt)
	if s.SeabedBound {
		next = flattenHeading(next, own)
	} else {
		next = clampPitch(next, s.MaxVerticalAngle)
	}
	next = f.containInBounds(s, pos, next)

	ag.Heading[i] = next
	ag.Pos[i] = r3.Add(pos, r3.Scale(s.Speed*dt*ag.MoveMod[i], next))
	ag.Orient[i] = lookAlong(next)
}

// limitTurn steps old toward desired at maxTurnRate, then hard-clamps the
// angular change this frame to maxTurnRate*dt via an axis-angle rotation
// around cross(old, next).
func limitTurn(old, desired r3.Vec, maxTurnRate, dt float64) r3.Vec {
	next := safeNormalize(r3.Add(old, r3.Scale(dt*maxTurnRate, r3.Sub(desired, old))))
	if r3.Norm2(next) < normEps2 {
		return old
	}

	maxStep := maxTurnRate * dt
	angle := math.Acos(clamp(r3.Dot(old, next), -1, 1))
	if angle <= maxStep {
		return next
	}
	axis := r3.Cross(old, next)
	if r3.Norm2(axis) < normEps2 {
		// Headings are anti-parallel; no rotation plane to clamp in.
		return old
	}
	return safeNormalize(r3.NewRotation(maxStep, axis).Rotate(old))
}

// clampPitch limits the heading's vertical angle to ±maxVertical.
func clampPitch(h r3.Vec, maxVertical float64) r3.Vec {
	pitch := math.Asin(clamp(h.Y, -1, 1))
	if math.Abs(pitch) <= maxVertical {
		return h
	}
	horizontal := safeNormalize(r3.Vec{X: h.X, Z: h.Z})
	if r3.Norm2(horizontal) < normEps2 {
		// Pointing straight up or down: fall back to a level heading is
		// impossible, keep the clamped vertical component only.
		return h
	}
	sign := 1.0
	if pitch < 0 {
		sign = -1
	}
	return r3.Add(
		r3.Scale(math.Cos(maxVertical), horizontal),
		r3.Vec{Y: sign * math.Sin(maxVertical)})
}

// flattenHeading projects the heading into the horizontal plane for
// seabed-bound schools. Y is corrected later by the seabed clamp.
func flattenHeading(h, old r3.Vec) r3.Vec {
	flat := safeNormalize(r3.Vec{X: h.X, Z: h.Z})
	if r3.Norm2(flat) < normEps2 {
		return safeNormalize(r3.Vec{X: old.X, Z: old.Z})
	}
	return flat
}

// containInBounds blends a pull-to-center direction into the heading when
// the agent sits outside the bounds box. The pull strength is
// saturate(penetration/margin) and contributes exactly zero at the surface.
func (f *Frame) containInBounds(s *School, pos, heading r3.Vec) r3.Vec {
	pen := boundsPenetration(pos, s.BoundsMin, s.BoundsMax)
	if pen <= 0 {
		return heading
	}
	pull := safeNormalize(r3.Sub(s.Center(), pos))
	if s.SeabedBound {
		pull = safeNormalize(r3.Vec{X: pull.X, Z: pull.Z})
	}
	margin := math.Max(epsilon, 2*s.CellRadius)
	t := saturate(pen / margin)
	return safeNormalize(lerpVec(heading, pull, t))
}

// boundsPenetration returns the largest per-axis distance outside [min,max],
// or 0 when the point is inside the box.
func boundsPenetration(p, min, max r3.Vec) float64 {
	pen := 0.0
	for _, d := range [...]float64{
		min.X - p.X, p.X - max.X,
		min.Y - p.Y, p.Y - max.Y,
		min.Z - p.Z, p.Z - max.Z,
	} {
		if d > pen {
			pen = d
		}
	}
	return pen
}
