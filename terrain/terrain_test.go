package terrain

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func testField() *Field {
	return New(42, 400, -40, 6, 0.015)
}

func TestHeightAtStaysInNoiseBand(t *testing.T) {
	f := testField()
	for x := -200.0; x <= 200; x += 25 {
		for z := -200.0; z <= 200; z += 25 {
			h := f.HeightAt(x, z)
			if h < -46 || h > -34 {
				t.Errorf("HeightAt(%v,%v) = %v outside [-46,-34]", x, z, h)
			}
		}
	}
}

func TestHeightAtDeterministic(t *testing.T) {
	a := testField()
	b := testField()
	if a.HeightAt(12.5, -31) != b.HeightAt(12.5, -31) {
		t.Error("same seed produced different heights")
	}
	c := New(7, 400, -40, 6, 0.015)
	same := true
	for x := 0.0; x < 100; x += 10 {
		if a.HeightAt(x, 0) != c.HeightAt(x, 0) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical terrain")
	}
}

func TestContains(t *testing.T) {
	f := testField()
	if !f.Contains(0, 0) || !f.Contains(200, -200) {
		t.Error("Contains rejected in-field points")
	}
	if f.Contains(201, 0) || f.Contains(0, -201) {
		t.Error("Contains accepted out-of-field points")
	}
}

func TestCastRayHit(t *testing.T) {
	f := testField()
	origin := r3.Vec{X: 10, Y: 50, Z: -20}

	hit, ok := f.CastRay(origin, r3.Vec{Y: -1})
	if !ok {
		t.Fatal("downward ray over the field missed")
	}
	if hit.Point.X != origin.X || hit.Point.Z != origin.Z {
		t.Errorf("hit moved horizontally: %v", hit.Point)
	}
	if want := f.HeightAt(origin.X, origin.Z); hit.Point.Y != want {
		t.Errorf("hit Y = %v, want %v", hit.Point.Y, want)
	}
	if n := r3.Norm(hit.Normal); math.Abs(n-1) > 1e-9 {
		t.Errorf("normal not unit: %v", n)
	}
	if hit.Normal.Y <= 0 {
		t.Errorf("normal points down: %v", hit.Normal)
	}
}

func TestCastRayMisses(t *testing.T) {
	f := testField()

	if _, ok := f.CastRay(r3.Vec{Y: 50}, r3.Vec{Y: 1}); ok {
		t.Error("upward ray reported a hit")
	}
	if _, ok := f.CastRay(r3.Vec{X: 500, Y: 50}, r3.Vec{Y: -1}); ok {
		t.Error("ray outside the field reported a hit")
	}
	below := f.HeightAt(0, 0) - 5
	if _, ok := f.CastRay(r3.Vec{Y: below}, r3.Vec{Y: -1}); ok {
		t.Error("ray from below the surface reported a hit")
	}
}
