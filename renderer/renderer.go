// Package renderer draws the simulation as a raylib 3D scene.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/sim"
)

// palette assigns school colors in declaration order, wrapping around.
var palette = []rl.Color{
	rl.SkyBlue,
	rl.Orange,
	rl.Lime,
	rl.Violet,
	rl.Gold,
	rl.Pink,
}

// terrainGridSteps is the number of grid lines drawn per axis.
const terrainGridSteps = 32

// Renderer draws the world each frame. It holds no per-frame state; all
// simulation data comes from the engine's working sets.
type Renderer struct {
	fovY float64
}

// New creates a renderer.
func New() *Renderer {
	return &Renderer{fovY: 60}
}

// Draw renders one frame of the 3D scene inside an open drawing context.
func (r *Renderer) Draw(eng *sim.Engine, cam *camera.Camera) {
	rl.BeginMode3D(r.toRaylib(cam))

	r.drawTerrain(eng)
	r.drawObstacles(eng)
	r.drawTargets(eng)
	r.drawAgents(eng)

	rl.EndMode3D()
}

// toRaylib converts the orbit camera to raylib's camera type.
func (r *Renderer) toRaylib(cam *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   rlVec(cam.Position()),
		Target:     rlVec(cam.Focus),
		Up:         rl.Vector3{Y: 1},
		Fovy:       float32(r.fovY),
		Projection: rl.CameraPerspective,
	}
}

// drawTerrain renders the seabed as a sampled grid of height lines.
func (r *Renderer) drawTerrain(eng *sim.Engine) {
	field := eng.Terrain()
	size := field.Size()
	half := size / 2
	step := size / terrainGridSteps

	for i := 0; i <= terrainGridSteps; i++ {
		x := -half + float64(i)*step
		for j := 0; j < terrainGridSteps; j++ {
			z0 := -half + float64(j)*step
			z1 := z0 + step
			a := r3.Vec{X: x, Y: field.HeightAt(x, z0), Z: z0}
			b := r3.Vec{X: x, Y: field.HeightAt(x, z1), Z: z1}
			rl.DrawLine3D(rlVec(a), rlVec(b), rl.DarkBrown)

			// Perpendicular run reuses the same lattice points.
			c := r3.Vec{X: z0, Y: field.HeightAt(z0, x), Z: x}
			d := r3.Vec{X: z1, Y: field.HeightAt(z1, x), Z: x}
			rl.DrawLine3D(rlVec(c), rlVec(d), rl.DarkBrown)
		}
	}
}

func (r *Renderer) drawObstacles(eng *sim.Engine) {
	for _, o := range eng.Obstacles() {
		size := rl.Vector3{
			X: float32(o.HalfExtent.X * 2),
			Y: float32(o.HalfExtent.Y * 2),
			Z: float32(o.HalfExtent.Z * 2),
		}
		rl.DrawCubeWiresV(rlVec(o.Pos), size, rl.Maroon)
	}
}

func (r *Renderer) drawTargets(eng *sim.Engine) {
	for _, t := range eng.Targets() {
		rl.DrawSphereWires(rlVec(t.Pos), 1.0, 6, 6, schoolColor(t.School))
	}
}

// drawAgents renders each agent as a tapered body along its heading, tinted
// brighter while fleeing.
func (r *Renderer) drawAgents(eng *sim.Engine) {
	for s := 0; s < eng.SchoolCount(); s++ {
		ag := eng.Agents(s)
		base := schoolColor(s)
		flee := rl.ColorBrightness(base, 0.4)

		for i := 0; i < ag.Len(); i++ {
			scale := float32(ag.Scale[i])
			tail := rlVec(r3.Add(ag.Pos[i], r3.Scale(-float64(scale), ag.Heading[i])))
			nose := rlVec(r3.Add(ag.Pos[i], r3.Scale(float64(scale)*0.5, ag.Heading[i])))

			color := base
			if ag.TargetMod[i] > 1 {
				color = flee
			}
			rl.DrawCylinderEx(tail, nose, 0.05, 0.3*scale, 5, color)
		}
	}
}

// schoolColor maps a school index onto the palette.
func schoolColor(school int) rl.Color {
	if school < 0 {
		return rl.Gray
	}
	return palette[school%len(palette)]
}

func rlVec(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
