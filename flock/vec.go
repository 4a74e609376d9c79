// Package flock implements the per-frame steering pipeline for schools of
// autonomous agents: spatial bucketing, per-cell aggregation, steering,
// animation state updates, and the seabed clamp.
package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// epsilon guards every division in the pipeline.
	epsilon = 1e-5

	// normEps2 is the squared length below which a vector is treated as zero.
	normEps2 = 1e-12
)

// safeNormalize returns the unit vector of v, or the zero vector when v is
// too short to normalize. It never produces NaN or Inf.
func safeNormalize(v r3.Vec) r3.Vec {
	n2 := r3.Norm2(v)
	if n2 < normEps2 {
		return r3.Vec{}
	}
	return r3.Scale(1/math.Sqrt(n2), v)
}

// saturate clamps x to [0, 1].
func saturate(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// clamp restricts x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// lerpVec interpolates between a and b by t without clamping t.
func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// maxExtent returns the largest component of a half-extent vector, used as
// the scalar radius term in obstacle avoidance.
func maxExtent(v r3.Vec) float64 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}

// lookAlong builds a rotation carrying the base forward axis (0,0,1) onto
// the unit heading h. A zero heading yields the identity rotation.
func lookAlong(h r3.Vec) r3.Rotation {
	identity := r3.NewRotation(0, r3.Vec{Y: 1})
	n2 := r3.Norm2(h)
	if n2 < normEps2 {
		return identity
	}
	base := r3.Vec{Z: 1}
	d := clamp(r3.Dot(base, h), -1, 1)
	axis := r3.Cross(base, h)
	if r3.Norm2(axis) < normEps2 {
		if d > 0 {
			return identity
		}
		// Heading opposite to base: rotate half a turn around up.
		return r3.NewRotation(math.Pi, r3.Vec{Y: 1})
	}
	return r3.NewRotation(math.Acos(d), axis)
}

// LookRotation returns the orientation that carries the model's forward
// axis onto dir. Spawning uses it to seed agent poses; the pipeline keeps
// them current afterwards.
func LookRotation(dir r3.Vec) r3.Rotation {
	return lookAlong(dir)
}

// wrapAngle wraps a to [-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
