package engine

import (
	"fmt"

	"github.com/zeusync/grove/internal/core/scheduler"
)

// Action is the closed set of payloads the engine dispatches: Activity or
// Animation.
type Action interface {
	scheduler.Action
	isAction()
}

// Activity runs the owner's kind-specific behavior step.
type Activity struct{}

func (Activity) Name() string { return "activity" }
func (Activity) isAction()    {}

// Animation advances the owner's frame. Repeat counts down toward 1, the
// last occurrence; 0 repeats forever.
type Animation struct {
	Repeat int
}

func (a Animation) Name() string { return fmt.Sprintf("animation(%d)", a.Repeat) }
func (Animation) isAction()      {}

// next returns the follow-up animation, or false when this was the last one.
func (a Animation) next() (Animation, bool) {
	if a.Repeat == 1 {
		return Animation{}, false
	}
	return Animation{Repeat: max(a.Repeat-1, 0)}, true
}
