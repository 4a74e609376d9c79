package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cell holds one bucket's aggregates for a frame. Heading and position sums
// accumulate each member exactly once; steering divides by Count, which is
// at least 1 because a cell's representative counts itself.
type Cell struct {
	Count      int32
	SumHeading r3.Vec
	SumPos     r3.Vec

	ObstacleIdx  int32
	ObstacleDist float64

	TargetIdx int32

	PredatorIdx  int32 // -1 when no predators exist
	PredatorDist float64
}

// aggregateCells computes per-cell summaries in two passes. Pass 1 runs
// parallel over buckets and never writes outside its own cell, so no cell
// needs an owning task. Pass 2 stamps every agent with its cell ordinal,
// parallel over agents, reading the finished index only.
//
// Targets must already be filtered to the school being processed; ranking
// across schools is not meaningful.
func (f *Frame) aggregateCells(ag *Agents, targets []Target, obstacles []Obstacle, predators []Predator) {
	nCells := f.index.Cells()
	if cap(f.cells) < nCells {
		f.cells = make([]Cell, nCells)
	}
	f.cells = f.cells[:nCells]

	// Pass 1: per-bucket summaries.
	f.pool.forEach(nCells, func(c0, c1 int) {
		for c := c0; c < c1; c++ {
			members := f.index.Members(int32(c))
			cell := &f.cells[c]
			*cell = Cell{PredatorIdx: -1, PredatorDist: math.Inf(1)}

			// The first member encountered is the cell's representative
			// for the nearest-object lookups.
			rep := ag.Pos[members[0]]
			cell.ObstacleIdx, cell.ObstacleDist = nearestObstacle(rep, obstacles)
			cell.TargetIdx = nearestTarget(rep, targets)
			if len(predators) > 0 {
				cell.PredatorIdx, cell.PredatorDist = nearestPredator(rep, predators)
			}

			for _, m := range members {
				cell.Count++
				cell.SumHeading = r3.Add(cell.SumHeading, ag.Heading[m])
				cell.SumPos = r3.Add(cell.SumPos, ag.Pos[m])
			}
		}
	})

	// Pass 2: stamp agents with their cell ordinal.
	n := ag.Len()
	if cap(f.cellOf) < n {
		f.cellOf = make([]int32, n)
	}
	f.cellOf = f.cellOf[:n]
	f.pool.forEach(n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			ord, _ := f.index.CellOf(ag.Pos[i])
			f.cellOf[i] = ord
		}
	})
}

// nearestObstacle linearly scans the obstacle list. Obstacles are few
// relative to agents, so the O(#obstacles) scan per cell is acceptable.
func nearestObstacle(p r3.Vec, obstacles []Obstacle) (int32, float64) {
	best := int32(0)
	bestDist := math.Inf(1)
	for i, o := range obstacles {
		d := r3.Norm(r3.Sub(o.Pos, p))
		if d < bestDist {
			best = int32(i)
			bestDist = d
		}
	}
	return best, bestDist
}

// nearestTarget ranks the school-filtered target list by distance.
func nearestTarget(p r3.Vec, targets []Target) int32 {
	best := int32(0)
	bestDist := math.Inf(1)
	for i, t := range targets {
		d := r3.Norm(r3.Sub(t.Pos, p))
		if d < bestDist {
			best = int32(i)
			bestDist = d
		}
	}
	return best
}

func nearestPredator(p r3.Vec, predators []Predator) (int32, float64) {
	best := int32(-1)
	bestDist := math.Inf(1)
	for i, pr := range predators {
		d := r3.Norm(r3.Sub(pr.Pos, p))
		if d < bestDist {
			best = int32(i)
			bestDist = d
		}
	}
	return best, bestDist
}
