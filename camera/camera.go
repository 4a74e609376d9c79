// Package camera provides a 3D orbit camera for viewport control.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits a focus point at a distance, described by yaw and pitch.
// It is pure math; the renderer converts it to its own camera type.
type Camera struct {
	// Focus is the point the camera looks at, in world coordinates.
	Focus r3.Vec

	// Yaw rotates around the world up axis, radians.
	Yaw float64

	// Pitch tilts above the horizon, radians. Positive looks down.
	Pitch float64

	// Distance from focus to eye.
	Distance float64

	// Distance constraints
	MinDistance, MaxDistance float64

	defaultFocus    r3.Vec
	defaultYaw      float64
	defaultPitch    float64
	defaultDistance float64
}

// maxPitch keeps the camera off the poles where yaw degenerates.
const maxPitch = math.Pi/2 - 0.05

// New creates a camera orbiting the given focus.
func New(focus r3.Vec, distance float64) *Camera {
	c := &Camera{
		Focus:       focus,
		Yaw:         math.Pi / 4,
		Pitch:       0.4,
		Distance:    distance,
		MinDistance: 5,
		MaxDistance: distance * 6,
	}
	c.defaultFocus = c.Focus
	c.defaultYaw = c.Yaw
	c.defaultPitch = c.Pitch
	c.defaultDistance = c.Distance
	return c
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	return r3.Add(c.Focus, r3.Vec{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	})
}

// Orbit rotates the camera around the focus by yaw and pitch deltas.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Dolly multiplies the orbit distance by the given factor, clamped.
func (c *Camera) Dolly(factor float64) {
	c.Distance = clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

// Pan moves the focus in the camera's horizontal plane. dx slides along the
// camera's right axis, dz along its forward axis projected to the ground.
func (c *Camera) Pan(dx, dz float64) {
	sin, cos := math.Sin(c.Yaw), math.Cos(c.Yaw)
	right := r3.Vec{X: cos, Z: -sin}
	forward := r3.Vec{X: -sin, Z: -cos}
	c.Focus = r3.Add(c.Focus, r3.Add(r3.Scale(dx, right), r3.Scale(dz, forward)))
}

// Reset returns the camera to its construction pose.
func (c *Camera) Reset() {
	c.Focus = c.defaultFocus
	c.Yaw = c.defaultYaw
	c.Pitch = c.defaultPitch
	c.Distance = c.defaultDistance
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
