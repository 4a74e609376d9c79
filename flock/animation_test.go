package flock

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSpeedPassClosedForm(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	s := testSchool()
	s.StateTransitionSpeed = 2

	h := r3.Vec{Z: 1}
	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, h, h, 1, FleeSpeedMod, r3.Vec{}, 0, false)

	// Stepping the discrete recurrence with alpha = 1-exp(-k dt) matches
	// the continuous solution exactly: m(T) = 3 - 2 exp(-k T).
	dt := 0.01
	steps := 100
	for i := 0; i < steps; i++ {
		f.speedPass(&s, ag, dt)
	}

	T := dt * float64(steps)
	want := 3 - 2*math.Exp(-2*T)
	if math.Abs(ag.MoveMod[0]-want) > 1e-9 {
		t.Errorf("MoveMod after %v s = %v, want %v", T, ag.MoveMod[0], want)
	}
}

func TestBendPassShapesTurnRate(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	tuning := DefaultTuning()
	dt := 0.016

	// Heading rotated by a yaw delta since last frame.
	theta := 0.02 // rad; 1.25 rad/s at this dt, above the deadzone
	prev := r3.Vec{Z: 1}
	cur := r3.Vec{X: math.Sin(theta), Z: math.Cos(theta)}

	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, cur, prev, 1, 1, r3.Vec{}, 0, false)

	f.bendPass(ag, &tuning, dt)

	want := clamp((theta/dt)*tuning.BendGain, -tuning.MaxBend, tuning.MaxBend)
	if math.Abs(ag.TargetBend[0]-want) > 1e-9 {
		t.Errorf("TargetBend = %v, want %v", ag.TargetBend[0], want)
	}
	if !vecsClose(ag.Prev[0], cur, 1e-12) {
		t.Errorf("Prev not advanced to current heading")
	}
}

func TestBendPassDeadzone(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	tuning := DefaultTuning()
	dt := 0.016

	// Angular velocity just below the deadzone emits no bend.
	theta := tuning.BendDeadzone * dt * 0.5
	prev := r3.Vec{Z: 1}
	cur := r3.Vec{X: math.Sin(theta), Z: math.Cos(theta)}

	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, cur, prev, 1, 1, r3.Vec{}, 0, false)

	f.bendPass(ag, &tuning, dt)
	if ag.TargetBend[0] != 0 {
		t.Errorf("TargetBend = %v inside deadzone, want 0", ag.TargetBend[0])
	}
}

func TestBendPassClampsToMax(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	tuning := DefaultTuning()
	dt := 0.016

	// A hard turn saturates at MaxBend.
	prev := r3.Vec{Z: 1}
	cur := r3.Vec{X: 1}

	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, cur, prev, 1, 1, r3.Vec{}, 0, false)

	f.bendPass(ag, &tuning, dt)
	if ag.TargetBend[0] != tuning.MaxBend {
		t.Errorf("TargetBend = %v, want clamp at %v", ag.TargetBend[0], tuning.MaxBend)
	}
}

func TestSlewPassNeverOvershoots(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	tuning := DefaultTuning()
	dt := 0.016

	h := r3.Vec{Z: 1}
	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, h, h, 1, 1, r3.Vec{}, 0, false)
	ag.TargetBend[0] = 0.8

	goal := r3.Vec{X: 0.8}
	prevDist := r3.Norm(r3.Sub(goal, ag.Bend[0]))
	for i := 0; i < 200; i++ {
		f.slewPass(ag, &tuning, dt)
		dist := r3.Norm(r3.Sub(goal, ag.Bend[0]))
		if dist > prevDist+1e-12 {
			t.Fatalf("slew overshot at step %d: dist %v > %v", i, dist, prevDist)
		}
		prevDist = dist
	}
	if !vecsClose(ag.Bend[0], goal, 1e-9) {
		t.Errorf("Bend = %v after settling, want %v", ag.Bend[0], goal)
	}
}

func TestTimePassAccumulatesAndWraps(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	s := testSchool()
	s.AnimationSpeed = 2

	h := r3.Vec{Z: 1}
	ag := &Agents{}
	ag.Append(r3.Vec{}, 1, h, h, 1.5, 1.5, r3.Vec{}, 0, false)

	f.timePass(&s, ag, 0.5)
	want := 0.5 * 2 * 1.5
	if math.Abs(ag.AnimTime[0]-want) > 1e-12 {
		t.Errorf("AnimTime = %v, want %v", ag.AnimTime[0], want)
	}

	ag.AnimTime[0] = animTimeWrap - 0.1
	f.timePass(&s, ag, 1)
	if ag.AnimTime[0] > animTimeWrap {
		t.Errorf("AnimTime = %v, want wrapped below %v", ag.AnimTime[0], float64(animTimeWrap))
	}
	if ag.AnimTime[0] < 0 {
		t.Errorf("AnimTime went negative: %v", ag.AnimTime[0])
	}
}
