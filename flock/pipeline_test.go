package flock

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// TestPipelineEndToEnd runs a hundred agents against one target and one
// obstacle for a hundred frames and checks the flock stays sane: unit
// headings, finite positions, inside bounds, drifting toward the target.
func TestPipelineEndToEnd(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	s := testSchool()
	rng := rand.New(rand.NewSource(42))

	ag := &Agents{}
	for i := 0; i < 100; i++ {
		p := r3.Vec{
			X: rng.Float64()*40 - 20,
			Y: rng.Float64()*40 - 20,
			Z: rng.Float64()*40 - 20,
		}
		yaw := rng.Float64() * 2 * math.Pi
		h := r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
		ag.Append(p, 1, h, h, 1, 1, r3.Vec{}, rng.Float64(), false)
	}

	meanBefore := meanPos(ag)

	in := Input{
		School:    s,
		Agents:    ag,
		Targets:   []Target{{Pos: r3.Vec{}}},
		Obstacles: []Obstacle{{Pos: r3.Vec{X: 50, Y: 50, Z: 50}, HalfExtent: r3.Vec{X: 5, Y: 5, Z: 5}}},
		Tuning:    DefaultTuning(),
		DT:        0.016,
	}
	for step := 0; step < 100; step++ {
		f.Step(in)
	}

	for i := 0; i < ag.Len(); i++ {
		p := ag.Pos[i]
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) ||
			math.IsNaN(p.Y) || math.IsInf(p.Y, 0) ||
			math.IsNaN(p.Z) || math.IsInf(p.Z, 0) {
			t.Fatalf("agent %d position degenerate: %v", i, p)
		}
		if pen := boundsPenetration(p, s.BoundsMin, s.BoundsMax); pen > 2*s.CellRadius {
			t.Errorf("agent %d escaped containment band: penetration %v", i, pen)
		}
		if n := r3.Norm(ag.Heading[i]); math.Abs(n-1) > 1e-6 {
			t.Errorf("agent %d heading norm %v", i, n)
		}
	}

	// Target seeking moved the flock centroid closer to the origin.
	meanAfter := meanPos(ag)
	if r3.Norm(meanAfter) >= r3.Norm(meanBefore)+1 {
		t.Errorf("flock centroid drifted away from target: %v -> %v",
			r3.Norm(meanBefore), r3.Norm(meanAfter))
	}

	if f.CellCount() == 0 {
		t.Error("no occupied cells after stepping")
	}
	if occ := f.MeanCellOccupancy(); occ < 1 {
		t.Errorf("mean cell occupancy %v, want >= 1", occ)
	}
}

func meanPos(ag *Agents) r3.Vec {
	var sum r3.Vec
	for _, p := range ag.Pos {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(ag.Len()), sum)
}

func TestClampToSeabed(t *testing.T) {
	s := testSchool()
	s.SeabedBound = true

	h := r3.Vec{Z: 1}
	ag := &Agents{}
	ag.Append(r3.Vec{X: 1, Y: 10, Z: 1}, 1, h, h, 1, 1, r3.Vec{}, 0, false)
	ag.Append(r3.Vec{X: 2, Y: -50, Z: 2}, 1, h, h, 1, 1, r3.Vec{}, 0, false)
	ag.Append(r3.Vec{X: 999, Y: 10, Z: 999}, 1, h, h, 1, 1, r3.Vec{}, 0, false)

	floor := -30.0
	cast := func(origin, dir r3.Vec) (RayHit, bool) {
		if origin.X > 500 { // outside the field: miss
			return RayHit{}, false
		}
		return RayHit{Point: r3.Vec{X: origin.X, Y: floor, Z: origin.Z}, Normal: r3.Vec{Y: 1}}, true
	}

	ClampToSeabed(&s, ag, cast)

	if ag.Pos[0].Y != floor {
		t.Errorf("agent 0 Y = %v, want %v", ag.Pos[0].Y, floor)
	}
	if ag.Pos[1].Y != floor {
		t.Errorf("agent 1 Y = %v, want %v (below-floor agent must be lifted)", ag.Pos[1].Y, floor)
	}
	if ag.Pos[2].Y != 10 {
		t.Errorf("agent 2 Y = %v, want unchanged on raycast miss", ag.Pos[2].Y)
	}

	// XZ never changes.
	if ag.Pos[0].X != 1 || ag.Pos[0].Z != 1 {
		t.Errorf("clamp moved agent 0 horizontally: %v", ag.Pos[0])
	}
}

func TestClampToSeabedNilRay(t *testing.T) {
	s := testSchool()
	h := r3.Vec{Z: 1}
	ag := &Agents{}
	ag.Append(r3.Vec{Y: 10}, 1, h, h, 1, 1, r3.Vec{}, 0, false)

	ClampToSeabed(&s, ag, nil)
	if ag.Pos[0].Y != 10 {
		t.Errorf("nil raycaster changed position: %v", ag.Pos[0])
	}
}
