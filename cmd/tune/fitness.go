package main

import (
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/sim"
)

// warmupFraction of each run settles the schools before measurement starts.
const warmupFraction = 0.25

// FitnessEvaluator runs headless simulations and scores the result.
// Lower fitness is better.
type FitnessEvaluator struct {
	params   *ParamVector
	ticks    int
	seeds    []int64
	baseCfg  *config.Config
	baseYAML []byte

	mu           sync.Mutex
	lastCoherent float64
}

// NewFitnessEvaluator creates an evaluator over the given seeds.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config) (*FitnessEvaluator, error) {
	data, err := yaml.Marshal(baseCfg)
	if err != nil {
		return nil, err
	}
	return &FitnessEvaluator{
		params:   params,
		ticks:    ticks,
		seeds:    seeds,
		baseCfg:  baseCfg,
		baseYAML: data,
	}, nil
}

// LastCoherence returns the mean polarization from the most recent Evaluate.
func (fe *FitnessEvaluator) LastCoherence() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCoherent
}

// Evaluate scores a raw parameter vector. The score averages polarization
// and containment over the post-warmup part of each seeded run; fitness is
// its negation so the minimizer maximizes it.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg, err := fe.copyConfig()
	if err != nil {
		return 0
	}
	fe.params.ApplyToConfig(cfg, raw)

	var score, coherence float64
	for _, seed := range fe.seeds {
		s, pol := fe.runOnce(cfg, seed)
		score += s
		coherence += pol
	}
	score /= float64(len(fe.seeds))
	coherence /= float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastCoherent = coherence
	fe.mu.Unlock()

	return -score
}

// runOnce runs a single headless simulation and returns its score and mean
// polarization.
func (fe *FitnessEvaluator) runOnce(cfg *config.Config, seed int64) (score, polarization float64) {
	eng := sim.NewEngine(cfg, seed, nil)
	defer eng.Close()

	warmup := int(float64(fe.ticks) * warmupFraction)
	var polSum, conSum float64
	samples := 0

	for t := 0; t < fe.ticks; t++ {
		eng.Step(cfg.Sim.DT)
		if t < warmup {
			continue
		}
		pol, con := eng.Metrics()
		polSum += pol
		conSum += con
		samples++
	}

	if samples == 0 {
		return 0, 0
	}
	polarization = polSum / float64(samples)
	containment := conSum / float64(samples)
	return 0.5*polarization + 0.5*containment, polarization
}

// copyConfig deep-copies the base config through its YAML form.
func (fe *FitnessEvaluator) copyConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := yaml.Unmarshal(fe.baseYAML, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
