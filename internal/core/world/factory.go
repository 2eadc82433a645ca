package world

import "github.com/zeusync/grove/internal/core/images"

// Id prefixes for entities derived from another entity during a transform.
const (
	StumpPrefix   = "stump_"
	TreePrefix    = "tree_"
	SaplingPrefix = "sapling_"
)

// SaplingSpec fixes the parameters every sapling shares. Action and
// animation periods are equal so growth and animation stay in step.
type SaplingSpec struct {
	Period      float64 `yaml:"period" json:"period"`
	HealthLimit int     `yaml:"health_limit" json:"health_limit"`
}

var DefaultSapling = SaplingSpec{
	Period:      1.0,
	HealthLimit: 5,
}

func (s SaplingSpec) New(id string, pos Point, frames images.Frames, health int) *Entity {
	return &Entity{
		ID:              id,
		Kind:            KindSapling,
		Position:        pos,
		Images:          frames,
		ActionPeriod:    s.Period,
		AnimationPeriod: s.Period,
		Health:          health,
		HealthLimit:     s.HealthLimit,
	}
}

func NewSapling(id string, pos Point, frames images.Frames, health int) *Entity {
	return DefaultSapling.New(id, pos, frames, health)
}

func NewHouse(id string, pos Point, frames images.Frames) *Entity {
	return &Entity{ID: id, Kind: KindHouse, Position: pos, Images: frames}
}

func NewObstacle(id string, pos Point, animationPeriod float64, frames images.Frames) *Entity {
	return &Entity{
		ID:              id,
		Kind:            KindObstacle,
		Position:        pos,
		Images:          frames,
		AnimationPeriod: animationPeriod,
	}
}

func NewTree(id string, pos Point, actionPeriod, animationPeriod float64, health int, frames images.Frames) *Entity {
	return &Entity{
		ID:              id,
		Kind:            KindTree,
		Position:        pos,
		Images:          frames,
		ActionPeriod:    actionPeriod,
		AnimationPeriod: animationPeriod,
		Health:          health,
	}
}

func NewStump(id string, pos Point, frames images.Frames) *Entity {
	return &Entity{ID: id, Kind: KindStump, Position: pos, Images: frames}
}

func NewFairy(id string, pos Point, actionPeriod, animationPeriod float64, frames images.Frames) *Entity {
	return &Entity{
		ID:              id,
		Kind:            KindFairy,
		Position:        pos,
		Images:          frames,
		ActionPeriod:    actionPeriod,
		AnimationPeriod: animationPeriod,
	}
}

// NewWorker builds an empty-handed worker. Resource count always starts at 0.
func NewWorker(id string, pos Point, actionPeriod, animationPeriod float64, resourceLimit int, frames images.Frames) *Entity {
	return &Entity{
		ID:              id,
		Kind:            KindWorkerEmpty,
		Position:        pos,
		Images:          frames,
		ActionPeriod:    actionPeriod,
		AnimationPeriod: animationPeriod,
		ResourceLimit:   resourceLimit,
	}
}

func NewWorkerFull(id string, pos Point, actionPeriod, animationPeriod float64, resourceLimit int, frames images.Frames) *Entity {
	e := NewWorker(id, pos, actionPeriod, animationPeriod, resourceLimit, frames)
	e.Kind = KindWorkerFull
	return e
}
