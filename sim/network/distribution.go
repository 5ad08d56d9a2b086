package network

import (
	"fmt"
	"math/rand"
)

// DistSpec describes a non-negative random variate in a scenario file.
//
//	type: exponential   mean: 2.0
//	type: constant      value: 1.5
//	type: uniform       min: 0.5  max: 1.5
type DistSpec struct {
	Type  string  `yaml:"type"`
	Mean  float64 `yaml:"mean,omitempty"`
	Value float64 `yaml:"value,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty"`
}

// Sampler draws non-negative time values.
type Sampler interface {
	Sample(rng *rand.Rand) float64
}

// ExponentialSampler produces exponentially-distributed times.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// ConstantSampler always returns the same time.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) float64 {
	return s.value
}

// UniformSampler produces times uniformly distributed in [min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.min + rng.Float64()*(s.max-s.min)
}

// Validate checks the distribution type and its parameters.
func (d DistSpec) Validate() error {
	switch d.Type {
	case "exponential":
		if d.Mean <= 0 {
			return fmt.Errorf("exponential mean must be > 0, got %g", d.Mean)
		}
	case "constant":
		if d.Value < 0 {
			return fmt.Errorf("constant value must be >= 0, got %g", d.Value)
		}
	case "uniform":
		if d.Min < 0 || d.Max < d.Min {
			return fmt.Errorf("uniform bounds must satisfy 0 <= min <= max, got [%g, %g]", d.Min, d.Max)
		}
	case "":
		return fmt.Errorf("distribution type is required")
	default:
		return fmt.Errorf("unknown distribution type %q", d.Type)
	}
	return nil
}

// AlwaysZero reports whether every sample drawn from d is 0.
func (d DistSpec) AlwaysZero() bool {
	switch d.Type {
	case "constant":
		return d.Value == 0
	case "uniform":
		return d.Max == 0
	}
	return false
}

// NewSampler builds the sampler described by d.
func NewSampler(d DistSpec) (Sampler, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch d.Type {
	case "exponential":
		return &ExponentialSampler{mean: d.Mean}, nil
	case "constant":
		return &ConstantSampler{value: d.Value}, nil
	default:
		return &UniformSampler{min: d.Min, max: d.Max}, nil
	}
}
