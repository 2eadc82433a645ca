package engine

import "github.com/zeusync/grove/internal/core/world"

// Rand is the random source behind tree regeneration. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// FloatRange is the half-open interval [Min, Max).
type FloatRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r FloatRange) Sample(rng Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// IntRange is the half-open interval [Min, Max).
type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

func (r IntRange) Sample(rng Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min)
}

// Tuning holds the constants of plant growth.
type Tuning struct {
	Sapling             world.SaplingSpec `yaml:"sapling" json:"sapling"`
	TreeActionPeriod    FloatRange        `yaml:"tree_action_period" json:"tree_action_period"`
	TreeAnimationPeriod FloatRange        `yaml:"tree_animation_period" json:"tree_animation_period"`
	TreeHealth          IntRange          `yaml:"tree_health" json:"tree_health"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Sapling:             world.DefaultSapling,
		TreeActionPeriod:    FloatRange{Min: 1.000, Max: 1.400},
		TreeAnimationPeriod: FloatRange{Min: 0.050, Max: 0.600},
		TreeHealth:          IntRange{Min: 1, Max: 3},
	}
}
