package flock

import "gonum.org/v1/gonum/spatial/r3"

// MaxDT bounds the frame delta-time so a single step can never displace an
// agent further than one twentieth of a second of travel.
const MaxDT = 0.05

// FleeSpeedMod is the target speed modifier forced onto prey that detect a
// predator inside their detection range.
const FleeSpeedMod = 3.0

// School holds the per-school steering parameters. A School value is an
// immutable snapshot for the duration of one frame.
type School struct {
	ID int

	SeparationWeight float64
	AlignmentWeight  float64
	TargetWeight     float64

	AversionDistance float64 // obstacle/predator standoff distance
	CellRadius       float64 // spatial bucket edge length
	Speed            float64 // base move speed, units/second
	MaxTurnRate      float64 // radians/second
	MaxVerticalAngle float64 // pitch limit, radians; ignored for seabed schools

	BoundsMin r3.Vec
	BoundsMax r3.Vec

	SeabedBound bool // steer in the horizontal plane, clamp Y to terrain later
	Hunts       bool // school members are predators to other schools
	Flees       bool // school members react to predators

	StateTransitionSpeed float64 // speed-modifier smoothing rate, 1/seconds
	AnimationSpeed       float64 // accumulated-time rate multiplier
}

// Center returns the midpoint of the school's bounds box.
func (s *School) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(s.BoundsMin, s.BoundsMax))
}

// Target is a seek point owned by one school.
type Target struct {
	Pos    r3.Vec
	School int
}

// Obstacle is a static box agents steer away from.
type Obstacle struct {
	Pos        r3.Vec
	HalfExtent r3.Vec
}

// Predator is a snapshot of a hunting agent's position and body size.
type Predator struct {
	Pos  r3.Vec
	Size float64
}

// Tuning holds pipeline-wide constants that are not per-school: prey
// detection padding and the bend-signal shaping parameters.
type Tuning struct {
	FleeDetectPad float64 // added to aversion+predator half-size for detection
	BendDeadzone  float64 // angular velocity below this emits no bend, rad/s
	BendGain      float64 // angular velocity to bend signal gain
	MaxBend       float64 // bend target clamp
	BendSlewRate  float64 // emitted bend vector speed, units/second
}

// DefaultTuning returns the tuning values used when none are configured.
func DefaultTuning() Tuning {
	return Tuning{
		FleeDetectPad: 10,
		BendDeadzone:  0.2,
		BendGain:      0.5,
		MaxBend:       1,
		BendSlewRate:  2,
	}
}

// Agents is the flat working set for one school's enabled agents, extracted
// from the store before a frame and written back after. All slices share
// one length and index space; index i is one agent.
type Agents struct {
	Pos     []r3.Vec
	Scale   []float64
	Heading []r3.Vec
	Prev    []r3.Vec // heading at the end of the previous frame

	MoveMod   []float64
	TargetMod []float64

	Bend       []r3.Vec
	TargetBend []float64
	AnimTime   []float64

	Prey []bool // agent reacts to predators this frame

	Orient []r3.Rotation // output: look-along-heading orientation
}

// Len returns the number of agents in the working set.
func (a *Agents) Len() int { return len(a.Pos) }

// Reset truncates every slice so the set can be refilled for a new frame
// without reallocating.
func (a *Agents) Reset() {
	a.Pos = a.Pos[:0]
	a.Scale = a.Scale[:0]
	a.Heading = a.Heading[:0]
	a.Prev = a.Prev[:0]
	a.MoveMod = a.MoveMod[:0]
	a.TargetMod = a.TargetMod[:0]
	a.Bend = a.Bend[:0]
	a.TargetBend = a.TargetBend[:0]
	a.AnimTime = a.AnimTime[:0]
	a.Prey = a.Prey[:0]
	a.Orient = a.Orient[:0]
}

// Append adds one agent to the working set and returns its index.
func (a *Agents) Append(pos r3.Vec, scale float64, heading, prev r3.Vec, moveMod, targetMod float64, bend r3.Vec, animTime float64, prey bool) int {
	a.Pos = append(a.Pos, pos)
	a.Scale = append(a.Scale, scale)
	a.Heading = append(a.Heading, heading)
	a.Prev = append(a.Prev, prev)
	a.MoveMod = append(a.MoveMod, moveMod)
	a.TargetMod = append(a.TargetMod, targetMod)
	a.Bend = append(a.Bend, bend)
	a.TargetBend = append(a.TargetBend, 0)
	a.AnimTime = append(a.AnimTime, animTime)
	a.Prey = append(a.Prey, prey)
	a.Orient = append(a.Orient, lookAlong(heading))
	return len(a.Pos) - 1
}

// RayHit is the result of a terrain raycast.
type RayHit struct {
	Point  r3.Vec
	Normal r3.Vec
}

// RayFunc casts a ray through terrain collision geometry. It reports the
// first hit along dir from origin, or ok=false on a miss.
type RayFunc func(origin, dir r3.Vec) (hit RayHit, ok bool)
