package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated flock statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Agents  int `csv:"agents"`
	Schools int `csv:"schools"`

	// Events during window
	Spawns   int `csv:"spawns"`
	Despawns int `csv:"despawns"`

	// Flock shape (sampled at window end)
	Polarization  float64 `csv:"polarization"`   // mean heading coherence, 0..1
	Fleeing       int     `csv:"fleeing"`        // agents with flee speed boost active
	CellOccupancy float64 `csv:"cell_occupancy"` // agents per occupied cell, averaged over schools

	// Swim state distribution (sampled at window end)
	MoveModMean float64 `csv:"move_mod_mean"`
	MoveModP10  float64 `csv:"move_mod_p10"`
	MoveModP50  float64 `csv:"move_mod_p50"`
	MoveModP90  float64 `csv:"move_mod_p90"`

	BendMean float64 `csv:"bend_mean"`
	BendP90  float64 `csv:"bend_p90"`
}

// Collector accumulates events between window flushes.
type Collector struct {
	windowSec   float64
	windowStart int64
	elapsed     float64

	spawns   int
	despawns int
}

// NewCollector creates a collector that flushes every windowSec of sim time.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 2.0
	}
	return &Collector{windowSec: windowSec}
}

// RecordSpawns adds spawn events to the current window.
func (c *Collector) RecordSpawns(n int) { c.spawns += n }

// RecordDespawns adds despawn events to the current window.
func (c *Collector) RecordDespawns(n int) { c.despawns += n }

// Tick advances the window clock. Returns true when the window is full and
// the caller should sample the world and call Flush.
func (c *Collector) Tick(dt float64) bool {
	c.elapsed += dt
	return c.elapsed >= c.windowSec
}

// Flush closes the window, folding the accumulated events and the caller's
// end-of-window sample into a WindowStats record.
func (c *Collector) Flush(tick int64, simTime float64, sample Sample) WindowStats {
	ws := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   tick,
		SimTimeSec:      simTime,
		Agents:          sample.Agents,
		Schools:         sample.Schools,
		Spawns:          c.spawns,
		Despawns:        c.despawns,
		Polarization:    sample.Polarization,
		Fleeing:         sample.Fleeing,
		CellOccupancy:   sample.CellOccupancy,
	}

	ws.MoveModMean, ws.MoveModP10, ws.MoveModP50, ws.MoveModP90 = distStats(sample.MoveMods)
	if len(sample.Bends) > 0 {
		bends := append([]float64(nil), sample.Bends...)
		sort.Float64s(bends)
		ws.BendMean = stat.Mean(bends, nil)
		ws.BendP90 = stat.Quantile(0.90, stat.Empirical, bends, nil)
	}

	c.windowStart = tick
	c.elapsed = 0
	c.spawns = 0
	c.despawns = 0
	return ws
}

// Sample is the end-of-window snapshot the engine hands to Flush.
type Sample struct {
	Agents        int
	Schools       int
	Polarization  float64
	Fleeing       int
	CellOccupancy float64
	MoveMods      []float64
	Bends         []float64
}

// distStats computes mean and percentiles of a value distribution.
func distStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"schools", s.Schools,
		"spawns", s.Spawns,
		"despawns", s.Despawns,
		"polarization", s.Polarization,
		"fleeing", s.Fleeing,
		"cell_occupancy", s.CellOccupancy,
		"move_mod_mean", s.MoveModMean,
		"move_mod_p50", s.MoveModP50,
		"bend_mean", s.BendMean,
		"bend_p90", s.BendP90,
	)
}
