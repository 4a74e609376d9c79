package flock

// Input is one school's slice of the frame: its working set, the pooled
// target list, and immutable snapshots of obstacles and predators.
type Input struct {
	School    School
	Agents    *Agents
	Targets   []Target // pooled across schools; filtered internally
	Obstacles []Obstacle
	Predators []Predator
	Tuning    Tuning
	DT        float64
}

// Frame owns the frame-scoped buffers of the pipeline: the spatial index,
// the per-cell aggregates, the per-agent cell stamps, and the worker pool.
// Buffers are reused across frames; the cell indices they hold are valid
// only within the frame that produced them.
type Frame struct {
	pool  *pool
	index *SpatialIndex

	cells  []Cell
	cellOf []int32

	schoolTargets []Target // scratch for the per-school target filter
}

// NewFrame creates a pipeline frame with its worker pool running.
func NewFrame() *Frame {
	p := newPool()
	p.start()
	return &Frame{
		pool:  p,
		index: NewSpatialIndex(),
	}
}

// Close stops the worker pool.
func (f *Frame) Close() {
	f.pool.stop()
}

// Step runs the pipeline for one school: build spatial index, aggregate
// cells, steer, animate. The seabed clamp is separate (ClampToSeabed) since
// it must wait for every school's steering writes.
//
// A school with no agents, no obstacles, or no matching targets has no
// valid frame data and is skipped as a no-op.
func (f *Frame) Step(in Input) {
	dt := in.DT
	if dt > MaxDT {
		dt = MaxDT
	}
	if dt <= 0 {
		return
	}

	ag := in.Agents
	if ag.Len() == 0 || len(in.Obstacles) == 0 {
		return
	}

	f.schoolTargets = f.schoolTargets[:0]
	for _, t := range in.Targets {
		if t.School == in.School.ID {
			f.schoolTargets = append(f.schoolTargets, t)
		}
	}
	if len(f.schoolTargets) == 0 {
		return
	}

	f.index.Build(ag.Pos, in.School.CellRadius)
	f.aggregateCells(ag, f.schoolTargets, in.Obstacles, in.Predators)
	f.steerAgents(&in.School, ag, f.schoolTargets, in.Obstacles, in.Predators, &in.Tuning, dt)
	f.animateAgents(&in.School, ag, &in.Tuning, dt)
}

// CellCount reports the number of occupied cells after the last Step,
// for telemetry.
func (f *Frame) CellCount() int { return f.index.Cells() }

// MeanCellOccupancy reports agents per occupied cell after the last Step.
func (f *Frame) MeanCellOccupancy() float64 {
	cells := f.index.Cells()
	if cells == 0 {
		return 0
	}
	total := 0
	for c := 0; c < cells; c++ {
		total += len(f.index.Members(int32(c)))
	}
	return float64(total) / float64(cells)
}
