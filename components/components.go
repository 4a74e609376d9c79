// Package components defines ECS components for the school simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Role marks an agent's part in predator/prey interactions.
type Role uint8

const (
	RoleNone   Role = iota
	RoleHunter      // chased-from: other schools flee this agent
	RoleQuarry      // flees hunters when its school has fleeing enabled
)

// String returns a readable role name for logging.
func (r Role) String() string {
	switch r {
	case RoleHunter:
		return "hunter"
	case RoleQuarry:
		return "quarry"
	default:
		return "none"
	}
}

// Position holds an agent's world position and uniform scale.
// Scale is preserved untouched through the steering pipeline.
type Position struct {
	Point r3.Vec
	Scale float64
}

// Heading holds the agent's unit forward direction.
// Prev is the heading at the end of the previous frame; the bend pass
// derives its turn signal from the difference.
type Heading struct {
	Dir  r3.Vec
	Prev r3.Vec
}

// Motion holds the two speed modifiers. MoveMod scales actual displacement
// and approaches TargetMod exponentially each frame.
type Motion struct {
	MoveMod   float64
	TargetMod float64
}

// Swim holds the smoothed secondary animation outputs consumed by renderers.
type Swim struct {
	Bend       r3.Vec  // emitted bend vector, slewed toward TargetBend
	TargetBend float64 // clamped bend target computed this frame
	Time       float64 // accumulated animation time, wraps at 1e6
}

// Membership ties an agent to its school. Disabled agents are skipped by
// every pipeline stage.
type Membership struct {
	School  int
	Role    Role
	Size    float64 // hunter body size; drives prey avoidance radius
	Enabled bool
}

// Pose is the orientation output: a rotation looking along the heading.
type Pose struct {
	Orient r3.Rotation
}
