package flock

import "gonum.org/v1/gonum/spatial/r3"

// ClampToSeabed pins seabed-bound agents to the terrain height under their
// XZ position. It must run strictly after all schools' steering writes are
// visible. Raycasts are blocking and not batched, so the pass runs on one
// goroutine. Agents over a raycast miss keep their position unchanged.
func ClampToSeabed(s *School, ag *Agents, castRay RayFunc) {
	if castRay == nil {
		return
	}
	rayY := s.BoundsMax.Y + s.CellRadius
	down := r3.Vec{Y: -1}
	for i := range ag.Pos {
		origin := r3.Vec{X: ag.Pos[i].X, Y: rayY, Z: ag.Pos[i].Z}
		hit, ok := castRay(origin, down)
		if !ok {
			continue
		}
		ag.Pos[i].Y = hit.Point.Y
	}
}
