// Package terrain provides the demo seabed heightfield and the vertical
// raycast the seabed clamp queries against.
package terrain

import (
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/flock"
)

// Field is a procedural square heightfield centered on the origin.
type Field struct {
	noise       opensimplex.Noise
	halfSize    float64
	baseHeight  float64
	heightScale float64
	noiseScale  float64
}

// New creates a heightfield of the given edge length.
func New(seed int64, size, baseHeight, heightScale, noiseScale float64) *Field {
	return &Field{
		noise:       opensimplex.NewNormalized(seed),
		halfSize:    size / 2,
		baseHeight:  baseHeight,
		heightScale: heightScale,
		noiseScale:  noiseScale,
	}
}

// Size returns the field's edge length.
func (f *Field) Size() float64 { return f.halfSize * 2 }

// HeightAt samples the seabed height under a world XZ position.
func (f *Field) HeightAt(x, z float64) float64 {
	n := f.noise.Eval2(x*f.noiseScale, z*f.noiseScale) // [0,1]
	return f.baseHeight + (n-0.5)*2*f.heightScale
}

// Contains reports whether an XZ position lies over the field.
func (f *Field) Contains(x, z float64) bool {
	return x >= -f.halfSize && x <= f.halfSize && z >= -f.halfSize && z <= f.halfSize
}

// CastRay implements flock.RayFunc for vertical rays. Only downward rays
// can hit; anything else, or an origin outside the field or already below
// the surface, is a miss.
func (f *Field) CastRay(origin, dir r3.Vec) (flock.RayHit, bool) {
	if dir.Y >= 0 {
		return flock.RayHit{}, false
	}
	if !f.Contains(origin.X, origin.Z) {
		return flock.RayHit{}, false
	}
	h := f.HeightAt(origin.X, origin.Z)
	if origin.Y < h {
		return flock.RayHit{}, false
	}
	return flock.RayHit{
		Point:  r3.Vec{X: origin.X, Y: h, Z: origin.Z},
		Normal: f.normalAt(origin.X, origin.Z),
	}, true
}

// normalAt estimates the surface normal by central differences.
func (f *Field) normalAt(x, z float64) r3.Vec {
	const step = 0.5
	dx := f.HeightAt(x+step, z) - f.HeightAt(x-step, z)
	dz := f.HeightAt(x, z+step) - f.HeightAt(x, z-step)
	n := r3.Vec{X: -dx / (2 * step), Y: 1, Z: -dz / (2 * step)}
	return r3.Scale(1/r3.Norm(n), n)
}
