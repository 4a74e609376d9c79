package flock

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Spatial hashing primes (Teschner et al). Distinct cells can collide onto
// one bucket key; colliding cells simply merge, which only widens a
// neighborhood and never drops an agent.
const (
	hashP1 = 73856093
	hashP2 = 19349663
	hashP3 = 83492791
)

// SpatialIndex buckets agents into cells by quantized position. The cube
// quantization is deliberately approximate: neighbors straddling a cell
// boundary may land in different buckets.
type SpatialIndex struct {
	invCellRadius float64
	ordinal       map[uint64]int32 // bucket key -> dense cell ordinal
	members       [][]int32        // per-ordinal agent index lists
}

// NewSpatialIndex returns an empty index.
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{ordinal: make(map[uint64]int32)}
}

// hashCell folds quantized cell coordinates into a bucket key.
func hashCell(cx, cy, cz int64) uint64 {
	return uint64(cx)*hashP1 ^ uint64(cy)*hashP2 ^ uint64(cz)*hashP3
}

// keyFor quantizes a position to its bucket key.
func (x *SpatialIndex) keyFor(p r3.Vec) uint64 {
	cx := int64(math.Floor(p.X * x.invCellRadius))
	cy := int64(math.Floor(p.Y * x.invCellRadius))
	cz := int64(math.Floor(p.Z * x.invCellRadius))
	return hashCell(cx, cy, cz)
}

// Build rebuilds the index from scratch for one school's positions.
// O(n); insertion order is irrelevant since buckets merge associatively.
func (x *SpatialIndex) Build(pos []r3.Vec, cellRadius float64) {
	x.invCellRadius = 1 / cellRadius
	clear(x.ordinal)
	for i := range x.members {
		x.members[i] = x.members[i][:0]
	}
	used := 0

	for i, p := range pos {
		key := x.keyFor(p)
		ord, ok := x.ordinal[key]
		if !ok {
			ord = int32(used)
			x.ordinal[key] = ord
			if used == len(x.members) {
				x.members = append(x.members, make([]int32, 0, 8))
			}
			used++
		}
		x.members[ord] = append(x.members[ord], int32(i))
	}
	x.members = x.members[:used]
}

// Cells returns the number of occupied cells.
func (x *SpatialIndex) Cells() int { return len(x.members) }

// Members returns the agent indices bucketed into cell ord.
func (x *SpatialIndex) Members(ord int32) []int32 { return x.members[ord] }

// CellOf returns the cell ordinal a position quantizes to. The second
// result is false when the position's bucket is unoccupied.
func (x *SpatialIndex) CellOf(p r3.Vec) (int32, bool) {
	ord, ok := x.ordinal[x.keyFor(p)]
	return ord, ok
}
