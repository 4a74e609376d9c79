package flock

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func newTestAgents(positions []r3.Vec, heading r3.Vec) *Agents {
	ag := &Agents{}
	for _, p := range positions {
		ag.Append(p, 1, heading, heading, 1, 1, r3.Vec{}, 0, false)
	}
	return ag
}

func TestAggregateCellSums(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	// One cluster of three agents with distinct headings.
	pos := []r3.Vec{
		{X: 1, Y: 1, Z: 1},
		{X: 2, Y: 1, Z: 1},
		{X: 1, Y: 2, Z: 1},
	}
	ag := &Agents{}
	headings := []r3.Vec{{Z: 1}, {X: 1}, {Y: 1}}
	for i, p := range pos {
		ag.Append(p, 1, headings[i], headings[i], 1, 1, r3.Vec{}, 0, false)
	}

	targets := []Target{{Pos: r3.Vec{X: 50}}}
	obstacles := []Obstacle{{Pos: r3.Vec{X: -50}, HalfExtent: r3.Vec{X: 1, Y: 1, Z: 1}}}

	f.index.Build(ag.Pos, 16)
	if f.index.Cells() != 1 {
		t.Fatalf("expected one cell, got %d", f.index.Cells())
	}
	f.aggregateCells(ag, targets, obstacles, nil)

	cell := f.cells[0]
	if cell.Count != 3 {
		t.Errorf("Count = %d, want 3", cell.Count)
	}
	wantSumPos := r3.Vec{X: 4, Y: 4, Z: 3}
	if !vecsClose(cell.SumPos, wantSumPos, 1e-12) {
		t.Errorf("SumPos = %v, want %v", cell.SumPos, wantSumPos)
	}
	wantSumHeading := r3.Vec{X: 1, Y: 1, Z: 1}
	if !vecsClose(cell.SumHeading, wantSumHeading, 1e-12) {
		t.Errorf("SumHeading = %v, want %v", cell.SumHeading, wantSumHeading)
	}
	if cell.TargetIdx != 0 {
		t.Errorf("TargetIdx = %d, want 0", cell.TargetIdx)
	}
	if cell.ObstacleIdx != 0 {
		t.Errorf("ObstacleIdx = %d, want 0", cell.ObstacleIdx)
	}
	if cell.PredatorIdx != -1 {
		t.Errorf("PredatorIdx = %d, want -1 with no predators", cell.PredatorIdx)
	}
	if !math.IsInf(cell.PredatorDist, 1) {
		t.Errorf("PredatorDist = %v, want +Inf with no predators", cell.PredatorDist)
	}
}

func TestAggregateNearestSelection(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	ag := newTestAgents([]r3.Vec{{X: 0, Y: 0, Z: 0}}, r3.Vec{Z: 1})

	targets := []Target{
		{Pos: r3.Vec{X: 100}},
		{Pos: r3.Vec{X: 10}},
		{Pos: r3.Vec{X: 40}},
	}
	obstacles := []Obstacle{
		{Pos: r3.Vec{Z: 90}},
		{Pos: r3.Vec{Z: 20}},
	}
	predators := []Predator{
		{Pos: r3.Vec{Y: 70}, Size: 4},
		{Pos: r3.Vec{Y: 30}, Size: 4},
	}

	f.index.Build(ag.Pos, 8)
	f.aggregateCells(ag, targets, obstacles, predators)

	cell := f.cells[0]
	if cell.TargetIdx != 1 {
		t.Errorf("TargetIdx = %d, want 1", cell.TargetIdx)
	}
	if cell.ObstacleIdx != 1 {
		t.Errorf("ObstacleIdx = %d, want 1", cell.ObstacleIdx)
	}
	if math.Abs(cell.ObstacleDist-20) > 1e-9 {
		t.Errorf("ObstacleDist = %v, want 20", cell.ObstacleDist)
	}
	if cell.PredatorIdx != 1 {
		t.Errorf("PredatorIdx = %d, want 1", cell.PredatorIdx)
	}
	if math.Abs(cell.PredatorDist-30) > 1e-9 {
		t.Errorf("PredatorDist = %v, want 30", cell.PredatorDist)
	}
}

func TestAggregateStampsEveryAgent(t *testing.T) {
	f := NewFrame()
	defer f.Close()

	pos := []r3.Vec{
		{X: 1, Y: 1, Z: 1},
		{X: 2, Y: 1, Z: 1},
		{X: 200, Y: 1, Z: 1},
	}
	ag := newTestAgents(pos, r3.Vec{Z: 1})
	targets := []Target{{Pos: r3.Vec{}}}
	obstacles := []Obstacle{{Pos: r3.Vec{X: 500}}}

	f.index.Build(ag.Pos, 8)
	f.aggregateCells(ag, targets, obstacles, nil)

	if len(f.cellOf) != ag.Len() {
		t.Fatalf("cellOf length %d, want %d", len(f.cellOf), ag.Len())
	}
	if f.cellOf[0] != f.cellOf[1] {
		t.Errorf("near agents stamped with different cells")
	}
	if f.cellOf[0] == f.cellOf[2] {
		t.Errorf("distant agent stamped with same cell")
	}
	// Every stamp points at a cell that counted the agent.
	for i := range pos {
		if f.cells[f.cellOf[i]].Count == 0 {
			t.Errorf("agent %d stamped with empty cell", i)
		}
	}
}
