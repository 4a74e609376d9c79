// Package main provides CMA-ES search for steering weights that keep
// schools coherent and contained.
package main

import (
	"fmt"

	"github.com/pthm-cable/shoal/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the tunable parameters: the three steering weights of
// every school in the base config.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the parameter set from the base config's schools.
func NewParamVector(cfg *config.Config) *ParamVector {
	pv := &ParamVector{}
	for i := range cfg.Schools {
		s := &cfg.Schools[i]
		pv.Specs = append(pv.Specs,
			ParamSpec{Name: fmt.Sprintf("%s_separation", s.Name), Min: 0, Max: 4, Default: s.Separation},
			ParamSpec{Name: fmt.Sprintf("%s_alignment", s.Name), Min: 0, Max: 4, Default: s.Alignment},
			ParamSpec{Name: fmt.Sprintf("%s_target", s.Name), Min: 0, Max: 4, Default: s.TargetWeight},
		)
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config. Order follows Specs:
// three weights per school, in school declaration order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0
	for s := range cfg.Schools {
		cfg.Schools[s].Separation = clamped[i]
		i++
		cfg.Schools[s].Alignment = clamped[i]
		i++
		cfg.Schools[s].TargetWeight = clamped[i]
		i++
	}
}
